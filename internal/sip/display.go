package sip

import (
	"fmt"
	"strings"

	"sipcheck/internal/sip/schema"
)

// Display renders the message as aligned rows: the code with its name, then
// each fixed field with its schema label, then each variable field with its
// tag and dictionary label. Row order follows construction order.
func (m *Message) Display() string {
	spec, known := schema.Lookup(m.Code)

	type row struct {
		label string
		value string
	}
	rows := make([]row, 0, len(m.Fixed)+len(m.Fields))
	for i, f := range m.Fixed {
		label := fmt.Sprintf("fixed[%d]", i)
		if known && i < len(spec.Fixed) {
			label = spec.Fixed[i].Name
		}
		rows = append(rows, row{label: label, value: f.Value})
	}
	for _, f := range m.Fields {
		rows = append(rows, row{
			label: fmt.Sprintf("%s %s", f.Tag, schema.TagLabel(f.Tag)),
			value: f.Value,
		})
	}

	width := 0
	for _, r := range rows {
		if len(r.label) > width {
			width = len(r.label)
		}
	}

	var b strings.Builder
	name := "unknown"
	if known {
		name = spec.Name
	}
	fmt.Fprintf(&b, "%s %s\n", m.Code, name)
	for _, r := range rows {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, r.label, r.value)
	}
	return b.String()
}

package sip

import (
	"fmt"
	"strings"

	"sipcheck/internal/sip/schema"
)

// Message is one complete protocol message: a two-character code, the
// positional fixed fields the code's schema declares, and zero or more
// tagged variable fields in construction order. A Message is built once and
// never mutated afterwards.
type Message struct {
	Code   string
	Fixed  []FixedField
	Fields []Field
}

// Build assembles a Message after validating fixed against the schema for
// code. Field pairs whose value is Omitted are dropped; everything else is
// stored verbatim in the given order.
func Build(code string, fixed []string, fields []Field) (*Message, error) {
	spec, ok := schema.Lookup(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCode, code)
	}
	if len(fixed) != len(spec.Fixed) {
		return nil, SchemaError{
			Code:   code,
			Reason: fmt.Sprintf("fixed field count mismatch: got %d want %d", len(fixed), len(spec.Fixed)),
		}
	}
	msg := &Message{Code: code, Fixed: make([]FixedField, 0, len(fixed))}
	for i, value := range fixed {
		if len(value) != spec.Fixed[i].Width {
			return nil, SchemaError{
				Code:   code,
				Field:  spec.Fixed[i].Name,
				Reason: fmt.Sprintf("width mismatch: got %d want %d", len(value), spec.Fixed[i].Width),
			}
		}
		msg.Fixed = append(msg.Fixed, FixedField{Value: value})
	}
	for _, pair := range fields {
		if pair.Value == Omitted {
			continue
		}
		msg.Fields = append(msg.Fields, pair)
	}
	return msg, nil
}

// Encode renders the message in wire form: code, fixed fields concatenated
// with no separators, each variable field with its terminator, then the
// message terminator.
func (m *Message) Encode() (string, error) {
	var b strings.Builder
	b.WriteString(m.Code)
	for _, f := range m.Fixed {
		b.WriteString(f.Value)
	}
	for _, f := range m.Fields {
		encoded, err := EncodeField(f.Tag, f.Value)
		if err != nil {
			return "", err
		}
		b.WriteString(encoded)
	}
	b.WriteByte(MessageTerminator)
	return b.String(), nil
}

// Parse is the inverse of Encode. raw must end with the message terminator;
// the fixed-field region is consumed by schema-declared widths before
// variable fields are decoded.
func Parse(raw string) (*Message, error) {
	if !strings.HasSuffix(raw, string(MessageTerminator)) {
		return nil, fmt.Errorf("%w: missing message terminator", ErrTruncated)
	}
	body := raw[:len(raw)-1]
	if len(body) < schema.CodeWidth {
		return nil, fmt.Errorf("%w: no message code", ErrTruncated)
	}
	code := body[:schema.CodeWidth]
	spec, ok := schema.Lookup(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCode, code)
	}
	rest := body[schema.CodeWidth:]
	if len(rest) < spec.FixedWidth() {
		return nil, fmt.Errorf("%w: fixed fields need %d bytes, have %d", ErrTruncated, spec.FixedWidth(), len(rest))
	}
	msg := &Message{Code: code, Fixed: make([]FixedField, 0, len(spec.Fixed))}
	for _, fs := range spec.Fixed {
		msg.Fixed = append(msg.Fixed, FixedField{Value: rest[:fs.Width]})
		rest = rest[fs.Width:]
	}
	fields, err := DecodeFields(rest)
	if err != nil {
		return nil, err
	}
	msg.Fields = fields
	return msg, nil
}

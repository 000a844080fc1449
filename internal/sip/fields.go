package sip

import (
	"fmt"
	"strings"
)

const (
	// FieldTerminator closes every variable field on the wire.
	FieldTerminator = '|'
	// MessageTerminator closes a complete message.
	MessageTerminator = '\r'

	// TagWidth is the fixed width of a variable-field tag.
	TagWidth = 2
)

// Omitted marks a field pair that Build drops instead of storing. Builders
// use it for conditionally included fields such as an optional password.
const Omitted = "\x00omitted"

// Field is one tagged variable-length field. Duplicate tags are legal.
type Field struct {
	Tag   string
	Value string
}

// FixedField is one positional field. It carries no tag on the wire; its
// meaning comes from its ordinal slot in the message's fixed-field list.
type FixedField struct {
	Value string
}

// EncodeField renders one variable field as tag+value+terminator.
func EncodeField(tag, value string) (string, error) {
	if len(tag) != TagWidth {
		return "", EncodingError{Tag: tag, Reason: "tag must be exactly two characters"}
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] <= 0x20 || tag[i] >= 0x7f {
			return "", EncodingError{Tag: tag, Reason: "tag must be printable"}
		}
	}
	if strings.ContainsRune(value, FieldTerminator) || strings.ContainsRune(value, MessageTerminator) {
		return "", EncodingError{Tag: tag, Reason: "value contains a protocol terminator"}
	}
	return tag + value + string(FieldTerminator), nil
}

// DecodeFields splits raw into ordered (tag, value) pairs. raw is the
// variable-field region of a message: every field ends with the field
// terminator, so a non-empty trailing segment means a terminator is missing.
func DecodeFields(raw string) ([]Field, error) {
	if raw == "" {
		return nil, nil
	}
	segments := strings.Split(raw, string(FieldTerminator))
	last := segments[len(segments)-1]
	if last != "" {
		return nil, fmt.Errorf("%w: unterminated field segment %q", ErrTruncated, last)
	}
	segments = segments[:len(segments)-1]
	fields := make([]Field, 0, len(segments))
	for _, seg := range segments {
		if len(seg) < TagWidth {
			return nil, fmt.Errorf("%w: segment %q", ErrShortField, seg)
		}
		fields = append(fields, Field{Tag: seg[:TagWidth], Value: seg[TagWidth:]})
	}
	return fields, nil
}

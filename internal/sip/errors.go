package sip

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated   = errors.New("sip: truncated message")
	ErrUnknownCode = errors.New("sip: unknown message code")
	ErrShortField  = errors.New("sip: field segment shorter than tag width")
)

// EncodingError reports a field that cannot be put on the wire.
type EncodingError struct {
	Tag    string
	Reason string
}

func (e EncodingError) Error() string {
	return fmt.Sprintf("sip: encode field %q: %s", e.Tag, e.Reason)
}

// SchemaError reports a fixed-field shape mismatch for a message code.
type SchemaError struct {
	Code   string
	Field  string
	Reason string
}

func (e SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("sip: schema code=%s: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("sip: schema code=%s field=%q: %s", e.Code, e.Field, e.Reason)
}

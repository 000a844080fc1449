// Package sipdate formats the protocol's 18-character timestamp.
package sipdate

import "time"

// Width is the wire width of a SIP timestamp field.
const Width = 18

// Format renders t as YYYYMMDDZZZZHHMMSS. The four zone characters are
// blank, meaning local time, which is what self-service terminals send.
func Format(t time.Time) string {
	return t.Format("20060102") + "    " + t.Format("150405")
}

// Now formats the current local time.
func Now() string {
	return Format(time.Now())
}

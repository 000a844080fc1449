// Package sip owns the SIP v2 message model and field codec.
//
// Ownership boundary:
// - variable-field encode/decode (two-character tags, '|' terminator)
// - fixed-field regions consumed by schema-declared widths
// - message build/encode/parse/display
//
// The package performs no I/O and no logging. Transport and session policy
// live in internal/transport and internal/session.
package sip

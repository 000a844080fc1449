// Package session owns the request/response driver for one connection.
//
// Ownership boundary:
// - connect / login / run-sequence / disconnect state machine
// - single-outstanding-request discipline
// - per-exchange latency recording and reporting modes
//
// The protocol has no message identifiers, so responses can only be
// correlated by never having more than one request in flight.
package session

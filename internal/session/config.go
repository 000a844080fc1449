package session

import "io"

// ReportMode selects how each exchange is rendered.
type ReportMode int

const (
	// ModeSilent suppresses per-exchange output; the aggregate summary is
	// still computed.
	ModeSilent ReportMode = iota
	// ModeProgress prints one marker rune per exchange.
	ModeProgress
	// ModeTable prints the structured rendering of request and response.
	ModeTable
	// ModeRaw prints the raw wire text of request and response.
	ModeRaw
)

// ErrorPolicy decides what a validation failure does to the rest of a run.
// Transport failures always abort regardless of policy.
type ErrorPolicy int

const (
	AbortOnError ErrorPolicy = iota
	SkipAndContinue
)

// LoginPolicy decides how the driver treats the login response. The
// protocol's reference behavior accepts any response; strict mode inspects
// the ok fixed field of a 94 response.
type LoginPolicy int

const (
	LoginOptimistic LoginPolicy = iota
	LoginStrict
)

// Config is the immutable driver configuration, fixed at construction.
type Config struct {
	Mode   ReportMode
	Policy ErrorPolicy
	Login  LoginPolicy

	// Out receives per-exchange reporting. Nil means io.Discard.
	Out io.Writer

	// Metrics enables per-transaction Prometheus recording.
	Metrics bool
}

func (c Config) WithDefaults() Config {
	if c.Out == nil {
		c.Out = io.Discard
	}
	return c
}

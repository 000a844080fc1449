package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"sipcheck/internal/catalog"
	"sipcheck/internal/observability"
	"sipcheck/internal/sip"
	"sipcheck/internal/sip/schema"
)

var (
	ErrNotConnected     = errors.New("session: not connected")
	ErrAlreadyConnected = errors.New("session: already connected")
	ErrNotAuthenticated = errors.New("session: not authenticated")
	ErrNoResponse       = errors.New("session: no response received")
	ErrLoginRejected    = errors.New("session: login rejected")
)

// Transport is the synchronous request/response channel the driver runs on.
// Timeouts and reconnection are its concern, not the driver's.
type Transport interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, msg *sip.Message) error
	Receive(ctx context.Context) (*sip.Message, error)
	Close() error
}

// State is the driver's position in its connection lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "disconnected"
	}
}

// Step is one entry of a run sequence: a transaction name, how many times to
// issue it, and the pause before each following iteration.
type Step struct {
	Name   string
	Repeat int
	Delay  time.Duration
}

// Result records one completed exchange.
type Result struct {
	Transaction string
	Latency     time.Duration
	Request     *sip.Message
	Response    *sip.Message
}

// Summary aggregates latency over a run. It is computed in every report
// mode, including silent.
type Summary struct {
	Exchanges int
	Skipped   int
	Total     time.Duration
	Min       time.Duration
	Max       time.Duration
}

func (s Summary) Mean() time.Duration {
	if s.Exchanges == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Exchanges)
}

// Driver owns one logical session. It is not safe for concurrent use; a
// load generator runs one Driver per connection. Snapshot is the one
// exception and may be called from other goroutines.
type Driver struct {
	cfg     Config
	cat     *catalog.Catalog
	req     catalog.Request
	tr      Transport
	state   State
	results []Result
	skipped int

	mu   sync.Mutex
	snap Summary
}

func New(tr Transport, cat *catalog.Catalog, req catalog.Request, cfg Config) *Driver {
	return &Driver{
		cfg:   cfg.WithDefaults(),
		cat:   cat,
		req:   req,
		tr:    tr,
		state: StateDisconnected,
	}
}

func (d *Driver) State() State {
	return d.state
}

// Results returns every recorded exchange in order.
func (d *Driver) Results() []Result {
	return d.results
}

// Connect establishes the transport session. Connection failure is fatal to
// the run; there is no retry at this layer.
func (d *Driver) Connect(ctx context.Context) error {
	if d.state != StateDisconnected {
		return ErrAlreadyConnected
	}
	if err := d.tr.Connect(ctx); err != nil {
		return fmt.Errorf("session: connect: %w", err)
	}
	d.state = StateConnected
	log.Debug().Str("state", d.state.String()).Msg("session connected")
	return nil
}

// Login sends the 93 message and blocks for its response. Under the
// optimistic policy any response authenticates; under the strict policy a 94
// with ok "0" fails the run.
func (d *Driver) Login(ctx context.Context) error {
	if d.state == StateDisconnected {
		return ErrNotConnected
	}
	res, err := d.exchangeNamed(ctx, catalog.Login)
	if err != nil {
		return err
	}
	if d.cfg.Login == LoginStrict && !loginAccepted(res.Response) {
		return fmt.Errorf("%w: response %s", ErrLoginRejected, res.Response.Code)
	}
	d.state = StateAuthenticated
	log.Debug().Str("state", d.state.String()).Msg("session authenticated")
	return nil
}

// Run executes the configured sequence. Validation failures follow the
// error policy; transport failures abort immediately. Disconnect remains the
// caller's responsibility (deferred, so it runs on every path).
func (d *Driver) Run(ctx context.Context, steps []Step) error {
	if d.state != StateAuthenticated {
		return ErrNotAuthenticated
	}
	for _, step := range steps {
		repeat := step.Repeat
		if repeat < 1 {
			repeat = 1
		}
		for i := 0; i < repeat; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := d.exchangeNamed(ctx, step.Name); err != nil {
				var ve catalog.ValidationError
				if errors.As(err, &ve) && d.cfg.Policy == SkipAndContinue {
					d.skipped++
					d.publish()
					log.Warn().Str("transaction", step.Name).Err(err).Msg("transaction skipped")
					d.reportSkip(step.Name)
					break // remaining iterations would fail identically
				}
				return err
			}
			if step.Delay > 0 && i < repeat-1 {
				if err := sleep(ctx, step.Delay); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Disconnect releases the transport. It is idempotent and must run on every
// exit path, including after a fatal mid-sequence failure.
func (d *Driver) Disconnect() {
	if d.state == StateDisconnected {
		return
	}
	if err := d.tr.Close(); err != nil {
		log.Warn().Err(err).Msg("transport close failed")
	}
	d.state = StateDisconnected
	log.Debug().Str("state", d.state.String()).Msg("session disconnected")
}

// Snapshot returns the summary last published by the run loop. It is safe
// to call while Run is in flight, which is what the status server does.
func (d *Driver) Snapshot() Summary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snap
}

// publish stores the current summary where Snapshot can read it.
func (d *Driver) publish() {
	s := d.Summary()
	d.mu.Lock()
	d.snap = s
	d.mu.Unlock()
}

// Summary aggregates the latencies recorded so far.
func (d *Driver) Summary() Summary {
	s := Summary{Skipped: d.skipped}
	for _, r := range d.results {
		s.Exchanges++
		s.Total += r.Latency
		if s.Min == 0 || r.Latency < s.Min {
			s.Min = r.Latency
		}
		if r.Latency > s.Max {
			s.Max = r.Latency
		}
	}
	return s
}

// exchangeNamed builds the named transaction and performs exactly one
// send/receive pair. The next request is never issued before the current
// response (or failure) is observed.
func (d *Driver) exchangeNamed(ctx context.Context, name string) (Result, error) {
	msg, err := d.cat.Build(name, d.req)
	if err != nil {
		var ve catalog.ValidationError
		if errors.As(err, &ve) && d.cfg.Metrics {
			observability.RecordValidationFailure(name)
		}
		return Result{}, err
	}

	start := time.Now()
	if err := d.tr.Send(ctx, msg); err != nil {
		d.recordMetrics(name, time.Since(start), err)
		return Result{}, fmt.Errorf("session: send %s: %w", name, err)
	}
	resp, err := d.tr.Receive(ctx)
	latency := time.Since(start)
	if err != nil {
		d.recordMetrics(name, latency, err)
		return Result{}, fmt.Errorf("%w: %s: %v", ErrNoResponse, name, err)
	}
	d.recordMetrics(name, latency, nil)

	res := Result{Transaction: name, Latency: latency, Request: msg, Response: resp}
	d.results = append(d.results, res)
	d.publish()
	d.report(res)
	return res, nil
}

func (d *Driver) recordMetrics(name string, latency time.Duration, err error) {
	if d.cfg.Metrics {
		observability.RecordExchange(name, latency, err)
	}
}

func (d *Driver) report(res Result) {
	switch d.cfg.Mode {
	case ModeRaw:
		reqWire, _ := res.Request.Encode()
		respWire, _ := res.Response.Encode()
		fmt.Fprintf(d.cfg.Out, ">> %s\n<< %s\n", trimTerminator(reqWire), trimTerminator(respWire))
	case ModeTable:
		fmt.Fprintf(d.cfg.Out, "--- %s (%s)\n%s%s", res.Transaction, res.Latency, res.Request.Display(), res.Response.Display())
	case ModeProgress:
		fmt.Fprint(d.cfg.Out, ".")
	}
}

func (d *Driver) reportSkip(name string) {
	switch d.cfg.Mode {
	case ModeProgress:
		fmt.Fprint(d.cfg.Out, "!")
	case ModeRaw, ModeTable:
		fmt.Fprintf(d.cfg.Out, "--- %s skipped\n", name)
	}
}

func loginAccepted(resp *sip.Message) bool {
	if resp == nil || resp.Code != schema.CodeLoginResponse {
		return false
	}
	return len(resp.Fixed) > 0 && resp.Fixed[0].Value == "1"
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func trimTerminator(wire string) string {
	if len(wire) > 0 && wire[len(wire)-1] == sip.MessageTerminator {
		return wire[:len(wire)-1]
	}
	return wire
}

package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sipcheck/internal/catalog"
	"sipcheck/internal/sip"
	"sipcheck/internal/sip/schema"
	"sipcheck/internal/testutil/testlog"
)

const testDate = "20260114    101500"

func frozen() time.Time {
	return time.Date(2026, time.January, 14, 10, 15, 0, 0, time.Local)
}

// fakeTransport is a scripted transport double. It fails the test if a
// second send arrives while a receive is still pending, which is how the
// single-outstanding-request discipline is verified.
type fakeTransport struct {
	t          *testing.T
	connected  bool
	closes     int
	pending    bool
	sent       []*sip.Message
	connectErr error
	receiveErr error
}

func newFakeTransport(t *testing.T) *fakeTransport {
	return &fakeTransport{t: t}
}

func (f *fakeTransport) Connect(ctx context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeTransport) Send(ctx context.Context, msg *sip.Message) error {
	if !f.connected {
		f.t.Fatalf("send before connect")
	}
	if f.pending {
		f.t.Fatalf("send while a prior receive is still pending")
	}
	f.pending = true
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) (*sip.Message, error) {
	if !f.pending {
		f.t.Fatalf("receive without outstanding request")
	}
	f.pending = false
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	return cannedResponse(f.t, f.sent[len(f.sent)-1].Code), nil
}

func (f *fakeTransport) Close() error {
	f.closes++
	f.connected = false
	return nil
}

func cannedResponse(t *testing.T, requestCode string) *sip.Message {
	t.Helper()
	var (
		code  string
		fixed []string
	)
	switch requestCode {
	case schema.CodeLogin:
		code, fixed = schema.CodeLoginResponse, []string{"1"}
	case schema.CodeSCStatus:
		code, fixed = schema.CodeACSStatus, []string{"Y", "Y", "Y", "Y", "Y", "N", "005", "003", testDate, "2.00"}
	case schema.CodeItemInfo:
		code, fixed = schema.CodeItemInfoResponse, []string{"01", "02", "01", testDate}
	case schema.CodeCheckin:
		code, fixed = schema.CodeCheckinResponse, []string{"1", "Y", "N", "N", testDate}
	case schema.CodePatronStatus:
		code, fixed = schema.CodePatronStatusResp, []string{strings.Repeat(" ", 14), "000", testDate}
	case schema.CodePatronInfo:
		code, fixed = schema.CodePatronInfoResp, []string{strings.Repeat(" ", 14), "000", testDate, "0000", "0000", "0000", "0000", "0000", "0000"}
	default:
		t.Fatalf("no canned response for code %s", requestCode)
	}
	msg, err := sip.Build(code, fixed, []sip.Field{{Tag: schema.TagInstitutionID, Value: "myplace"}})
	if err != nil {
		t.Fatalf("canned response %s: %v", code, err)
	}
	return msg
}

func testRequest() catalog.Request {
	return catalog.Request{
		Institution:   "myplace",
		LoginUserID:   "siplogin",
		LoginPassword: "sippassword",
		ItemID:        "123456789",
		PatronID:      "20001234",
		Summary:       "Y         ",
	}
}

func newDriver(t *testing.T, tr Transport, cfg Config) *Driver {
	return New(tr, catalog.New(frozen), testRequest(), cfg)
}

func TestEndToEndScenario(t *testing.T) {
	testlog.Start(t)
	tr := newFakeTransport(t)
	d := newDriver(t, tr, Config{})
	ctx := context.Background()

	if err := d.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer d.Disconnect()
	if err := d.Login(ctx); err != nil {
		t.Fatalf("login: %v", err)
	}
	steps := []Step{{Name: catalog.SCStatus}, {Name: catalog.ItemInfo}}
	if err := d.Run(ctx, steps); err != nil {
		t.Fatalf("run: %v", err)
	}
	d.Disconnect()

	results := d.Results()
	if len(results) != 3 {
		t.Fatalf("expected 3 exchanges, got %d", len(results))
	}
	order := []string{catalog.Login, catalog.SCStatus, catalog.ItemInfo}
	for i, want := range order {
		if results[i].Transaction != want {
			t.Fatalf("exchange %d: got %s want %s", i, results[i].Transaction, want)
		}
		if results[i].Latency < 0 {
			t.Fatalf("exchange %d: negative latency", i)
		}
	}
	if tr.closes == 0 {
		t.Fatalf("transport never closed")
	}
}

func TestSingleOutstandingRequestUnderRepeat(t *testing.T) {
	testlog.Start(t)
	tr := newFakeTransport(t)
	d := newDriver(t, tr, Config{})
	ctx := context.Background()

	if err := d.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer d.Disconnect()
	if err := d.Login(ctx); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := d.Run(ctx, []Step{{Name: catalog.SCStatus, Repeat: 5}}); err != nil {
		t.Fatalf("run: %v", err)
	}
	// login + 5 status requests, each fully paired before the next send
	if len(tr.sent) != 6 {
		t.Fatalf("expected 6 sends, got %d", len(tr.sent))
	}
}

func TestRunRespectsDelayAndContext(t *testing.T) {
	testlog.Start(t)
	tr := newFakeTransport(t)
	d := newDriver(t, tr, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	if err := d.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer d.Disconnect()
	if err := d.Login(ctx); err != nil {
		t.Fatalf("login: %v", err)
	}
	cancel()
	err := d.Run(ctx, []Step{{Name: catalog.SCStatus, Repeat: 3, Delay: time.Hour}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConnectFailureIsFatal(t *testing.T) {
	testlog.Start(t)
	tr := newFakeTransport(t)
	tr.connectErr = errors.New("connection refused")
	d := newDriver(t, tr, Config{})
	if err := d.Connect(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if d.State() != StateDisconnected {
		t.Fatalf("unexpected state %v", d.State())
	}
}

func TestLoginNoResponse(t *testing.T) {
	testlog.Start(t)
	tr := newFakeTransport(t)
	tr.receiveErr = errors.New("timeout")
	d := newDriver(t, tr, Config{})
	ctx := context.Background()

	if err := d.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer d.Disconnect()
	err := d.Login(ctx)
	if !errors.Is(err, ErrNoResponse) {
		t.Fatalf("expected ErrNoResponse, got %v", err)
	}
	if d.State() != StateConnected {
		t.Fatalf("unexpected state %v", d.State())
	}
}

func TestStrictLoginAcceptsOkOne(t *testing.T) {
	testlog.Start(t)
	tr := newFakeTransport(t)
	d := newDriver(t, tr, Config{Login: LoginStrict})
	ctx := context.Background()

	if err := d.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer d.Disconnect()

	// the canned 94 carries ok "1"; strict login accepts it
	if err := d.Login(ctx); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestStrictLoginRejectsOkZero(t *testing.T) {
	testlog.Start(t)
	if loginAccepted(mustBuild(t, schema.CodeLoginResponse, []string{"0"})) {
		t.Fatalf("ok=0 accepted")
	}
	if !loginAccepted(mustBuild(t, schema.CodeLoginResponse, []string{"1"})) {
		t.Fatalf("ok=1 rejected")
	}
	if loginAccepted(mustBuild(t, schema.CodeACSStatus, []string{"Y", "Y", "Y", "Y", "Y", "N", "005", "003", testDate, "2.00"})) {
		t.Fatalf("non-94 accepted")
	}
}

func mustBuild(t *testing.T, code string, fixed []string) *sip.Message {
	t.Helper()
	msg, err := sip.Build(code, fixed, nil)
	if err != nil {
		t.Fatalf("build %s: %v", code, err)
	}
	return msg
}

func TestValidationFailureAbortPolicy(t *testing.T) {
	testlog.Start(t)
	tr := newFakeTransport(t)
	req := testRequest()
	req.PatronID = ""
	d := New(tr, catalog.New(frozen), req, Config{})
	ctx := context.Background()

	if err := d.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer d.Disconnect()
	if err := d.Login(ctx); err != nil {
		t.Fatalf("login: %v", err)
	}
	sendsBefore := len(tr.sent)
	err := d.Run(ctx, []Step{{Name: catalog.PatronStatus}})
	var ve catalog.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(tr.sent) != sendsBefore {
		t.Fatalf("a send was attempted for an invalid transaction")
	}
}

func TestValidationFailureSkipPolicy(t *testing.T) {
	testlog.Start(t)
	tr := newFakeTransport(t)
	req := testRequest()
	req.PatronID = ""
	d := New(tr, catalog.New(frozen), req, Config{Policy: SkipAndContinue})
	ctx := context.Background()

	if err := d.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer d.Disconnect()
	if err := d.Login(ctx); err != nil {
		t.Fatalf("login: %v", err)
	}
	steps := []Step{
		{Name: catalog.SCStatus},
		{Name: catalog.PatronStatus, Repeat: 3},
		{Name: catalog.ItemInfo},
	}
	if err := d.Run(ctx, steps); err != nil {
		t.Fatalf("run: %v", err)
	}
	// login, sc-status, item-information; patron-status skipped once
	if len(d.Results()) != 3 {
		t.Fatalf("expected 3 exchanges, got %d", len(d.Results()))
	}
	if got := d.Summary().Skipped; got != 1 {
		t.Fatalf("expected 1 skip, got %d", got)
	}
}

func TestSnapshotConcurrentWithRun(t *testing.T) {
	testlog.Start(t)
	tr := newFakeTransport(t)
	d := newDriver(t, tr, Config{})
	ctx := context.Background()

	if err := d.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer d.Disconnect()
	if err := d.Login(ctx); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Poll Snapshot from another goroutine for the whole run, the way the
	// status server's /stats handler does. The race detector flags any
	// unsynchronized access to the shared summary.
	stop := make(chan struct{})
	polled := make(chan Summary, 1)
	go func() {
		var last Summary
		for {
			select {
			case <-stop:
				polled <- last
				return
			default:
				last = d.Snapshot()
			}
		}
	}()

	if err := d.Run(ctx, []Step{{Name: catalog.SCStatus, Repeat: 50}}); err != nil {
		t.Fatalf("run: %v", err)
	}
	close(stop)
	<-polled

	got := d.Snapshot()
	if want := d.Summary(); got != want {
		t.Fatalf("snapshot %+v diverges from summary %+v", got, want)
	}
	if got.Exchanges != 51 {
		t.Fatalf("expected 51 exchanges in snapshot, got %d", got.Exchanges)
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	testlog.Start(t)
	tr := newFakeTransport(t)
	d := newDriver(t, tr, Config{})
	if err := d.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	d.Disconnect()
	d.Disconnect()
	if tr.closes != 1 {
		t.Fatalf("expected one close, got %d", tr.closes)
	}
}

func TestRunRequiresLogin(t *testing.T) {
	testlog.Start(t)
	tr := newFakeTransport(t)
	d := newDriver(t, tr, Config{})
	if err := d.Run(context.Background(), nil); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestReportModes(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		mode ReportMode
		want string
	}{
		{ModeRaw, ">> 99"},
		{ModeTable, "SC Status"},
		{ModeProgress, "."},
	}
	for _, tc := range cases {
		tr := newFakeTransport(t)
		var out bytes.Buffer
		d := newDriver(t, tr, Config{Mode: tc.mode, Out: &out})
		ctx := context.Background()
		if err := d.Connect(ctx); err != nil {
			t.Fatalf("connect: %v", err)
		}
		if err := d.Login(ctx); err != nil {
			t.Fatalf("login: %v", err)
		}
		if err := d.Run(ctx, []Step{{Name: catalog.SCStatus}}); err != nil {
			t.Fatalf("run: %v", err)
		}
		d.Disconnect()
		if !strings.Contains(out.String(), tc.want) {
			t.Fatalf("mode %v: output %q missing %q", tc.mode, out.String(), tc.want)
		}
	}
}

func TestSilentModeStillAggregates(t *testing.T) {
	testlog.Start(t)
	tr := newFakeTransport(t)
	var out bytes.Buffer
	d := newDriver(t, tr, Config{Mode: ModeSilent, Out: &out})
	ctx := context.Background()
	if err := d.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer d.Disconnect()
	if err := d.Login(ctx); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := d.Run(ctx, []Step{{Name: catalog.SCStatus, Repeat: 2}}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("silent mode produced output: %q", out.String())
	}
	s := d.Summary()
	if s.Exchanges != 3 {
		t.Fatalf("expected 3 exchanges in summary, got %d", s.Exchanges)
	}
	if s.Max < s.Min {
		t.Fatalf("summary min/max inverted: %+v", s)
	}
}

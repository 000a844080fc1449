package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sipcheck/internal/config"
	"sipcheck/internal/session"
)

func TestRunListParsing(t *testing.T) {
	var runs runList
	cases := []struct {
		raw  string
		want runStep
	}{
		{"sc-status", runStep{Step: session.Step{Name: "sc-status", Repeat: 1}}},
		{"item-information:10", runStep{Step: session.Step{Name: "item-information", Repeat: 10}, repeatSet: true}},
		{"checkin:5:250ms", runStep{Step: session.Step{Name: "checkin", Repeat: 5, Delay: 250 * time.Millisecond}, repeatSet: true, delaySet: true}},
	}
	for _, tc := range cases {
		if err := runs.Set(tc.raw); err != nil {
			t.Fatalf("set %q: %v", tc.raw, err)
		}
	}
	if len(runs) != len(cases) {
		t.Fatalf("expected %d steps, got %d", len(cases), len(runs))
	}
	for i, tc := range cases {
		if runs[i] != tc.want {
			t.Fatalf("step %d: got %+v want %+v", i, runs[i], tc.want)
		}
	}
}

func TestMaterializeStepsKeepsDirectiveValues(t *testing.T) {
	var runs runList
	for _, raw := range []string{"sc-status", "sc-status:1", "checkin:3", "item-information::100ms"} {
		if err := runs.Set(raw); err != nil {
			t.Fatalf("set %q: %v", raw, err)
		}
	}
	steps := materializeSteps(runs, 5, time.Second)
	want := []session.Step{
		{Name: "sc-status", Repeat: 5, Delay: time.Second},
		// an explicit :1 is not the same as omitting the repeat
		{Name: "sc-status", Repeat: 1, Delay: time.Second},
		{Name: "checkin", Repeat: 3, Delay: time.Second},
		{Name: "item-information", Repeat: 5, Delay: 100 * time.Millisecond},
	}
	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(steps))
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Fatalf("step %d: got %+v want %+v", i, steps[i], want[i])
		}
	}
}

func TestRunListRejectsBadDirectives(t *testing.T) {
	for _, raw := range []string{"", ":3", "sc-status:x", "sc-status:0", "sc-status:2:soon"} {
		var runs runList
		if err := runs.Set(raw); err == nil {
			t.Fatalf("directive %q: expected error", raw)
		}
	}
}

func TestApplyFileConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sipcheck.toml")
	body := `
address = "sip.example.org:6001"
login_user_id = "siplogin"
institution = "myplace"
strict_login = true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	opts := defaultOptions()
	opts.Address = "flagged:9999"
	explicit := map[string]bool{"addr": true}
	if err := applyFileConfig(path, &opts, explicit); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if opts.Address != "flagged:9999" {
		t.Fatalf("explicit flag overridden: %q", opts.Address)
	}
	if opts.LoginUserID != "siplogin" || opts.Institution != "myplace" {
		t.Fatalf("file values not applied: %+v", opts)
	}
	if !opts.StrictLogin {
		t.Fatalf("strict_login not applied")
	}
	if opts.Output != "table" {
		t.Fatalf("undefined key changed a default: %q", opts.Output)
	}
}

func TestApplyScenarioKeepsExplicitFlags(t *testing.T) {
	sc := config.Scenario{
		Address:     "sip.example.org:6001",
		LoginUserID: "siplogin",
		PatronID:    "20001234",
		ItemID:      "999",
	}
	opts := defaultOptions()
	opts.ItemID = "123456789"
	opts.Address = "flagged:9999"
	explicit := map[string]bool{"item": true, "addr": true}

	applyScenario(sc, &opts, explicit)

	if opts.ItemID != "123456789" {
		t.Fatalf("explicit -item overridden: %q", opts.ItemID)
	}
	if opts.Address != "flagged:9999" {
		t.Fatalf("explicit -addr overridden: %q", opts.Address)
	}
	if opts.LoginUserID != "siplogin" || opts.PatronID != "20001234" {
		t.Fatalf("scenario values not applied: %+v", opts)
	}
	if opts.Summary != defaultOptions().Summary {
		t.Fatalf("empty scenario value changed a default: %q", opts.Summary)
	}
}

func TestParseModeValues(t *testing.T) {
	for raw, want := range map[string]session.ReportMode{
		"raw":      session.ModeRaw,
		"table":    session.ModeTable,
		"progress": session.ModeProgress,
		"summary":  session.ModeProgress,
		"silent":   session.ModeSilent,
	} {
		got, err := parseMode(raw)
		if err != nil {
			t.Fatalf("mode %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("mode %q: got %v want %v", raw, got, want)
		}
	}
	if _, err := parseMode("verbose"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sipcheck/internal/testutil/testlog"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	testlog.Start(t)
	path := writeScenario(t, `
address = "sip.example.org:6001"
login_user_id = "siplogin"
login_password = "sippassword"
institution = "myplace"
item_id = "123456789"

[[steps]]
transaction = "sc-status"

[[steps]]
transaction = "item-information"
repeat = 5
delay = "250ms"
`)
	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.Address != "sip.example.org:6001" {
		t.Fatalf("unexpected address %q", sc.Address)
	}
	if len(sc.Summary) != 10 {
		t.Fatalf("summary default not applied: %q", sc.Summary)
	}

	steps := sc.SessionSteps()
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].Repeat != 1 {
		t.Fatalf("default repeat not applied: %+v", steps[0])
	}
	if steps[1].Repeat != 5 || steps[1].Delay != 250*time.Millisecond {
		t.Fatalf("unexpected step: %+v", steps[1])
	}

	req := sc.Request()
	if req.Institution != "myplace" || req.ItemID != "123456789" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestLoadScenarioRejectsUnknownTransaction(t *testing.T) {
	testlog.Start(t)
	path := writeScenario(t, `
address = "sip.example.org:6001"

[[steps]]
transaction = "renew-all"
`)
	if _, err := LoadScenario(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadScenarioRejectsMissingAddress(t *testing.T) {
	testlog.Start(t)
	path := writeScenario(t, `
[[steps]]
transaction = "sc-status"
`)
	if _, err := LoadScenario(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadScenarioRejectsBadDelay(t *testing.T) {
	testlog.Start(t)
	path := writeScenario(t, `
address = "sip.example.org:6001"

[[steps]]
transaction = "sc-status"
delay = "soon"
`)
	if _, err := LoadScenario(path); err == nil {
		t.Fatalf("expected error")
	}
}

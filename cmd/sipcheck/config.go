package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"sipcheck/internal/catalog"
	"sipcheck/internal/config"
	"sipcheck/internal/session"
)

// options is the merged CLI configuration: flag defaults, then config file
// values for flags the user did not set, then explicit flags.
type options struct {
	Address          string
	LoginUserID      string
	LoginPassword    string
	Institution      string
	LocationCode     string
	TerminalPassword string
	ItemID           string
	PatronID         string
	PatronPassword   string
	Summary          string

	Output          string
	ContinueOnError bool
	StrictLogin     bool
	StatusAddr      string
	Repeat          int
	Delay           time.Duration
}

func defaultOptions() options {
	return options{
		Output:  "table",
		Summary: strings.Repeat(" ", catalog.SummaryWidth),
		Repeat:  1,
	}
}

func (o options) request() catalog.Request {
	return catalog.Request{
		Institution:      o.Institution,
		LoginUserID:      o.LoginUserID,
		LoginPassword:    o.LoginPassword,
		LocationCode:     o.LocationCode,
		TerminalPassword: o.TerminalPassword,
		ItemID:           o.ItemID,
		PatronID:         o.PatronID,
		PatronPassword:   o.PatronPassword,
		Summary:          o.Summary,
	}
}

func parseMode(raw string) (session.ReportMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "raw":
		return session.ModeRaw, nil
	case "table", "":
		return session.ModeTable, nil
	case "progress", "summary":
		return session.ModeProgress, nil
	case "silent":
		return session.ModeSilent, nil
	default:
		return session.ModeTable, fmt.Errorf("unknown output mode %q", raw)
	}
}

// runStep is one parsed -run directive. repeatSet and delaySet record
// which parts the directive spelled out itself; only the unset parts fall
// back to the -repeat/-delay defaults, so -run name:1 stays at 1 even
// under -repeat 5.
type runStep struct {
	session.Step
	repeatSet bool
	delaySet  bool
}

// runList collects repeatable -run directives of the form
// name[:repeat[:delay]], e.g. -run sc-status -run item-information:10:250ms.
type runList []runStep

func (r *runList) String() string {
	parts := make([]string, 0, len(*r))
	for _, step := range *r {
		parts = append(parts, step.Name)
	}
	return strings.Join(parts, ",")
}

func (r *runList) Set(raw string) error {
	parts := strings.SplitN(raw, ":", 3)
	step := runStep{Step: session.Step{Name: strings.TrimSpace(parts[0]), Repeat: 1}}
	if step.Name == "" {
		return fmt.Errorf("empty transaction name")
	}
	if len(parts) > 1 && parts[1] != "" {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 {
			return fmt.Errorf("bad repeat count %q", parts[1])
		}
		step.Repeat = n
		step.repeatSet = true
	}
	if len(parts) > 2 && parts[2] != "" {
		d, err := time.ParseDuration(parts[2])
		if err != nil {
			return fmt.Errorf("bad delay %q: %w", parts[2], err)
		}
		step.Delay = d
		step.delaySet = true
	}
	*r = append(*r, step)
	return nil
}

// materializeSteps resolves -run directives against the global -repeat and
// -delay defaults, filling in only what each directive left unset.
func materializeSteps(runs runList, repeat int, delay time.Duration) []session.Step {
	steps := make([]session.Step, 0, len(runs))
	for _, rs := range runs {
		step := rs.Step
		if !rs.repeatSet {
			step.Repeat = repeat
		}
		if !rs.delaySet {
			step.Delay = delay
		}
		steps = append(steps, step)
	}
	return steps
}

// fileConfig mirrors options for the TOML config file.
type fileConfig struct {
	Address          string `toml:"address"`
	LoginUserID      string `toml:"login_user_id"`
	LoginPassword    string `toml:"login_password"`
	Institution      string `toml:"institution"`
	LocationCode     string `toml:"location_code"`
	TerminalPassword string `toml:"terminal_password"`
	ItemID           string `toml:"item_id"`
	PatronID         string `toml:"patron_id"`
	PatronPassword   string `toml:"patron_password"`
	Summary          string `toml:"summary"`
	Output           string `toml:"output"`
	ContinueOnError  bool   `toml:"continue_on_error"`
	StrictLogin      bool   `toml:"strict_login"`
	StatusAddr       string `toml:"status_addr"`
}

// applyFileConfig overlays file values onto opts, skipping any key whose
// flag the user set explicitly.
func applyFileConfig(path string, opts *options, explicit map[string]bool) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	set := func(key, flagName string, apply func()) {
		if meta.IsDefined(key) && !explicit[flagName] {
			apply()
		}
	}
	set("address", "addr", func() { opts.Address = raw.Address })
	set("login_user_id", "login-user", func() { opts.LoginUserID = raw.LoginUserID })
	set("login_password", "login-password", func() { opts.LoginPassword = raw.LoginPassword })
	set("institution", "institution", func() { opts.Institution = raw.Institution })
	set("location_code", "location", func() { opts.LocationCode = raw.LocationCode })
	set("terminal_password", "terminal-password", func() { opts.TerminalPassword = raw.TerminalPassword })
	set("item_id", "item", func() { opts.ItemID = raw.ItemID })
	set("patron_id", "patron", func() { opts.PatronID = raw.PatronID })
	set("patron_password", "patron-password", func() { opts.PatronPassword = raw.PatronPassword })
	set("summary", "summary", func() { opts.Summary = raw.Summary })
	set("output", "output", func() { opts.Output = raw.Output })
	set("continue_on_error", "continue-on-error", func() { opts.ContinueOnError = raw.ContinueOnError })
	set("strict_login", "strict-login", func() { opts.StrictLogin = raw.StrictLogin })
	set("status_addr", "status-addr", func() { opts.StatusAddr = raw.StatusAddr })
	return nil
}

// applyScenario overlays the scenario's identifiers onto opts the same way
// applyFileConfig does: an explicit flag always wins, and empty scenario
// values are left alone.
func applyScenario(sc config.Scenario, opts *options, explicit map[string]bool) {
	set := func(value, flagName string, apply func()) {
		if value != "" && !explicit[flagName] {
			apply()
		}
	}
	set(sc.Address, "addr", func() { opts.Address = sc.Address })
	set(sc.LoginUserID, "login-user", func() { opts.LoginUserID = sc.LoginUserID })
	set(sc.LoginPassword, "login-password", func() { opts.LoginPassword = sc.LoginPassword })
	set(sc.Institution, "institution", func() { opts.Institution = sc.Institution })
	set(sc.LocationCode, "location", func() { opts.LocationCode = sc.LocationCode })
	set(sc.TerminalPassword, "terminal-password", func() { opts.TerminalPassword = sc.TerminalPassword })
	set(sc.ItemID, "item", func() { opts.ItemID = sc.ItemID })
	set(sc.PatronID, "patron", func() { opts.PatronID = sc.PatronID })
	set(sc.PatronPassword, "patron-password", func() { opts.PatronPassword = sc.PatronPassword })
	set(sc.Summary, "summary", func() { opts.Summary = sc.Summary })
}

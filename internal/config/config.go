// Package config loads run scenarios: a TOML description of the server,
// credentials, default identifiers and the transaction sequence to execute.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"sipcheck/internal/catalog"
	"sipcheck/internal/session"
)

type Scenario struct {
	Address          string       `toml:"address"`
	LoginUserID      string       `toml:"login_user_id"`
	LoginPassword    string       `toml:"login_password"`
	Institution      string       `toml:"institution"`
	LocationCode     string       `toml:"location_code"`
	TerminalPassword string       `toml:"terminal_password"`
	ItemID           string       `toml:"item_id"`
	PatronID         string       `toml:"patron_id"`
	PatronPassword   string       `toml:"patron_password"`
	Summary          string       `toml:"summary"`
	Steps            []StepConfig `toml:"steps"`
}

type StepConfig struct {
	Transaction string `toml:"transaction"`
	Repeat      int    `toml:"repeat"`
	Delay       string `toml:"delay"`
}

// LoadScenario reads and validates a scenario file. Missing optional values
// get usable defaults; a scenario without steps is rejected.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario load failed (%s): %w", path, err)
	}
	var sc Scenario
	if err := toml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("scenario parse failed (%s): %w", path, err)
	}
	if sc.Summary == "" {
		sc.Summary = strings.Repeat(" ", catalog.SummaryWidth)
	}
	if err := ValidateScenario(sc); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

func ValidateScenario(sc Scenario) error {
	if strings.TrimSpace(sc.Address) == "" {
		return fmt.Errorf("scenario missing address")
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario has no steps")
	}
	known := make(map[string]struct{})
	for _, name := range catalog.Names() {
		known[name] = struct{}{}
	}
	for i, step := range sc.Steps {
		name := strings.TrimSpace(step.Transaction)
		if name == "" {
			return fmt.Errorf("steps[%d] missing transaction", i)
		}
		if _, ok := known[name]; !ok {
			return fmt.Errorf("steps[%d] unknown transaction %q", i, name)
		}
		if step.Repeat < 0 {
			return fmt.Errorf("steps[%d] negative repeat", i)
		}
		if step.Delay != "" {
			if _, err := time.ParseDuration(step.Delay); err != nil {
				return fmt.Errorf("steps[%d] bad delay: %w", i, err)
			}
		}
	}
	return nil
}

// Request maps the scenario's identifiers onto a transaction request.
func (sc Scenario) Request() catalog.Request {
	return catalog.Request{
		Institution:      sc.Institution,
		LoginUserID:      sc.LoginUserID,
		LoginPassword:    sc.LoginPassword,
		LocationCode:     sc.LocationCode,
		TerminalPassword: sc.TerminalPassword,
		ItemID:           sc.ItemID,
		PatronID:         sc.PatronID,
		PatronPassword:   sc.PatronPassword,
		Summary:          sc.Summary,
	}
}

// SessionSteps converts the scenario steps into driver steps. ValidateScenario
// must have accepted the scenario first.
func (sc Scenario) SessionSteps() []session.Step {
	steps := make([]session.Step, 0, len(sc.Steps))
	for _, step := range sc.Steps {
		repeat := step.Repeat
		if repeat < 1 {
			repeat = 1
		}
		var delay time.Duration
		if step.Delay != "" {
			delay, _ = time.ParseDuration(step.Delay)
		}
		steps = append(steps, session.Step{
			Name:   strings.TrimSpace(step.Transaction),
			Repeat: repeat,
			Delay:  delay,
		})
	}
	return steps
}

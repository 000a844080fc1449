package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"sipcheck/internal/catalog"
	"sipcheck/internal/config"
	"sipcheck/internal/logging"
	"sipcheck/internal/observability"
	"sipcheck/internal/session"
	"sipcheck/internal/transport"
)

func main() {
	logging.ConfigureRuntime()
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts := defaultOptions()
	var (
		runs         runList
		configPath   string
		scenarioPath string
	)

	fs := flag.NewFlagSet("sipcheck", flag.ContinueOnError)
	fs.StringVar(&opts.Address, "addr", opts.Address, "server address (host:port)")
	fs.StringVar(&configPath, "config", "", "TOML config file")
	fs.StringVar(&scenarioPath, "scenario", "", "TOML scenario file with a full run description")
	fs.StringVar(&opts.LoginUserID, "login-user", opts.LoginUserID, "login user id (CN)")
	fs.StringVar(&opts.LoginPassword, "login-password", opts.LoginPassword, "login password (CO)")
	fs.StringVar(&opts.Institution, "institution", opts.Institution, "institution id (AO)")
	fs.StringVar(&opts.LocationCode, "location", opts.LocationCode, "location code (CP/AP)")
	fs.StringVar(&opts.TerminalPassword, "terminal-password", opts.TerminalPassword, "terminal password (AC)")
	fs.StringVar(&opts.ItemID, "item", opts.ItemID, "item identifier (AB)")
	fs.StringVar(&opts.PatronID, "patron", opts.PatronID, "patron identifier (AA)")
	fs.StringVar(&opts.PatronPassword, "patron-password", opts.PatronPassword, "patron password (AD)")
	fs.StringVar(&opts.Summary, "summary", opts.Summary, "ten-character patron-information summary")
	fs.StringVar(&opts.Output, "output", opts.Output, "output mode: raw, table, progress, silent")
	fs.BoolVar(&opts.ContinueOnError, "continue-on-error", opts.ContinueOnError, "skip transactions with invalid inputs instead of aborting")
	fs.BoolVar(&opts.StrictLogin, "strict-login", opts.StrictLogin, "abort the run when the login response signals failure")
	fs.StringVar(&opts.StatusAddr, "status-addr", opts.StatusAddr, "optional HTTP listen address for /health, /stats and /metrics")
	fs.IntVar(&opts.Repeat, "repeat", opts.Repeat, "default repeat count for -run directives")
	fs.DurationVar(&opts.Delay, "delay", opts.Delay, "default inter-request delay for -run directives")
	fs.Var(&runs, "run", "transaction to run: name[:repeat[:delay]] (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	steps := materializeSteps(runs, opts.Repeat, opts.Delay)

	// Precedence: explicit flags, then scenario, then config file, then
	// flag defaults. Each overlay skips flags the user set explicitly.
	if configPath != "" {
		if err := applyFileConfig(configPath, &opts, explicit); err != nil {
			log.Error().Err(err).Msg("config rejected")
			return 1
		}
	}
	if scenarioPath != "" {
		sc, err := config.LoadScenario(scenarioPath)
		if err != nil {
			log.Error().Err(err).Msg("scenario rejected")
			return 1
		}
		applyScenario(sc, &opts, explicit)
		steps = append(sc.SessionSteps(), steps...)
	}
	req := opts.request()

	mode, err := parseMode(opts.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sipcheck: %v\n", err)
		return 2
	}
	if opts.Address == "" {
		fmt.Fprintln(os.Stderr, "sipcheck: -addr is required")
		return 2
	}
	if len(steps) == 0 {
		fmt.Fprintln(os.Stderr, "sipcheck: nothing to run; use -run or -scenario")
		return 2
	}

	tr, err := transport.New(transport.Config{Address: opts.Address})
	if err != nil {
		log.Error().Err(err).Msg("transport setup failed")
		return 1
	}

	cfg := session.Config{
		Mode:    mode,
		Out:     os.Stdout,
		Metrics: true,
	}
	if opts.ContinueOnError {
		cfg.Policy = session.SkipAndContinue
	}
	if opts.StrictLogin {
		cfg.Login = session.LoginStrict
	}
	driver := session.New(tr, catalog.New(nil), req, cfg)

	if opts.StatusAddr != "" {
		srv := observability.NewStatusServer(opts.StatusAddr, func() any { return driver.Snapshot() }, nil)
		go func() {
			if err := srv.Serve(); err != nil {
				log.Error().Err(err).Msg("status server failed")
			}
		}()
	}

	ctx := context.Background()
	if err := driver.Connect(ctx); err != nil {
		log.Error().Err(err).Msg("connect failed")
		return 1
	}
	defer driver.Disconnect()

	if err := driver.Login(ctx); err != nil {
		log.Error().Err(err).Msg("login failed")
		return 1
	}
	runErr := driver.Run(ctx, steps)
	if mode == session.ModeProgress {
		fmt.Println()
	}
	printSummary(driver.Summary())
	if runErr != nil {
		log.Error().Err(runErr).Msg("run aborted")
		return 1
	}
	return 0
}

func printSummary(s session.Summary) {
	fmt.Printf("exchanges=%d skipped=%d total=%s min=%s mean=%s max=%s\n",
		s.Exchanges, s.Skipped, round(s.Total), round(s.Min), round(s.Mean()), round(s.Max))
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Microsecond)
}

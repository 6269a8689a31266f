package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/dialcheck/dialcheck/api"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "dialcheck"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
}

func New() *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		cli: &cli.App{
			Name:  AppName,
			Usage: "Drive voice agent test runs from CI: create, wait, and threshold-check",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "verbose",
					Usage: "Enable verbose (debug) logging",
				},
				&cli.StringFlag{
					Name:    "api-key",
					Usage:   "API key for the test service",
					EnvVars: []string{"API_KEY"},
				},
				&cli.StringFlag{
					Name:    "base-url",
					Usage:   "Base URL of the test service REST API",
					EnvVars: []string{"BASE_URL"},
				},
				&cli.StringFlag{
					Name:    "ui-url",
					Usage:   "Base URL of the test service UI, used for operator-facing links",
					EnvVars: []string{"UI_BASE_URL"},
				},
			},
			Before: func(ctx *cli.Context) error {
				if ctx.Bool("verbose") {
					zerolog.SetGlobalLevel(zerolog.DebugLevel)
				}
				return nil
			},
		},
	}

	// A .env file in the working directory supplies env-bound flags,
	// matching how CI jobs inject configuration. Missing file is fine.
	_ = godotenv.Load()

	app.cli.Commands = append(app.cli.Commands,
		&cli.Command{
			Name:   "run",
			Usage:  "Create a test run and print its id to stdout",
			Action: app.run,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "agent-id",
					Usage:   "Agent to test",
					EnvVars: []string{"AGENT_ID"},
				},
				&cli.StringFlag{
					Name:    "phone-numbers",
					Usage:   "Comma-separated E.164 phone numbers to call",
					EnvVars: []string{"PHONE_NUMBERS"},
				},
				&cli.StringFlag{
					Name:    "tag-ids",
					Usage:   "Comma-separated tag ids selecting test cases (mutually exclusive with --test-case-ids)",
					EnvVars: []string{"TAG_IDS"},
				},
				&cli.StringFlag{
					Name:    "test-case-ids",
					Usage:   "Comma-separated test case ids (mutually exclusive with --tag-ids)",
					EnvVars: []string{"TEST_CASE_IDS"},
				},
				&cli.StringFlag{
					Name:    "persona-id",
					Usage:   "Persona override applied to the selected test cases",
					EnvVars: []string{"PERSONA_ID"},
				},
				&cli.StringFlag{
					Name:    "scenario-id",
					Usage:   "Scenario override applied to the selected test cases",
					EnvVars: []string{"SCENARIO_ID"},
				},
			},
		},
		&cli.Command{
			Name:      "wait",
			Usage:     "Poll a test run until it reaches a terminal state",
			ArgsUsage: "<test-run-id>",
			Action:    app.wait,
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:    "poll-interval",
					Usage:   "Fixed interval between status polls",
					Value:   api.DefaultPollInterval,
					EnvVars: []string{"POLL_INTERVAL"},
				},
				&cli.DurationFlag{
					Name:    "timeout",
					Usage:   "Maximum wall-clock time to wait",
					Value:   api.DefaultWaitTimeout,
					EnvVars: []string{"TIMEOUT"},
				},
			},
		},
		&cli.Command{
			Name:      "check",
			Usage:     "Fetch results for a finished run and gate on thresholds",
			ArgsUsage: "<test-run-id>",
			Action:    app.check,
			Flags: []cli.Flag{
				&cli.Float64Flag{
					Name:    "min-test-pass-rate",
					Usage:   "Minimum fraction of test cases that must pass (0.0-1.0)",
					Value:   1.0,
					EnvVars: []string{"MIN_TEST_PASS_RATE"},
				},
				&cli.Float64Flag{
					Name:    "min-assertion-pass-rate",
					Usage:   "Minimum assertion overall score (0.0-1.0)",
					Value:   1.0,
					EnvVars: []string{"MIN_ASSERTION_PASS_RATE"},
				},
				&cli.BoolFlag{
					Name:  "json",
					Usage: "Print the raw results document to stdout",
				},
			},
		},
		&cli.Command{
			Name:   "history",
			Usage:  "List recorded invocations from the local history directory",
			Action: app.history,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "limit",
					Usage: "Show at most this many entries (0 = all)",
				},
				&cli.StringFlag{
					Name:  "command",
					Usage: "Only show entries for this subcommand (run, wait, check)",
				},
			},
		},
	)
	return app
}

func (a *App) Run(args []string) error {
	return a.cli.Run(args)
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if commit != "none" && commit != "" {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}

// apiClient builds the REST client from the global flags. The API key and
// base URL are required for any command that talks to the service.
func (a *App) apiClient(ctx *cli.Context) (*api.Client, error) {
	apiKey := ctx.String("api-key")
	if apiKey == "" {
		return nil, fmt.Errorf("%w (set --api-key or API_KEY)", api.ErrUnauthorized)
	}
	baseURL := ctx.String("base-url")
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is not set (use --base-url or BASE_URL)")
	}
	return api.New(baseURL, apiKey, a.logger), nil
}

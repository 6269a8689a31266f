package cli

// This file contains the wait command, which blocks until a test run
// reaches a terminal state or the timeout elapses.

import (
	"fmt"
	"os"
	"time"

	"github.com/dialcheck/dialcheck/api"
	"github.com/dialcheck/dialcheck/model"
	"github.com/urfave/cli/v2"
)

func (a *App) wait(ctx *cli.Context) error {
	startTime := time.Now()

	testRunID := ctx.Args().First()
	if testRunID == "" {
		return fmt.Errorf("usage: %s wait <test-run-id>", AppName)
	}

	client, err := a.apiClient(ctx)
	if err != nil {
		return err
	}

	if uiURL := model.RunURL(ctx.String("ui-url"), testRunID); uiURL != "" {
		a.logger.Info().Str("url", uiURL).Msg("View in UI")
	}

	status, err := client.WaitForRun(ctx.Context, testRunID, api.WaitOptions{
		Interval: ctx.Duration("poll-interval"),
		Timeout:  ctx.Duration("timeout"),
	})

	exitCode := 0
	if err != nil {
		exitCode = 1
	}
	a.recordInvocation(&model.Invocation{
		Command:   model.InvocationWait,
		Timestamp: startTime,
		Args:      os.Args,
		TestRunID: testRunID,
		ExitCode:  exitCode,
		Duration:  time.Since(startTime),
		RunStatus: status,
	})

	if err != nil {
		a.logger.Error().Err(err).Msg("Test run did not complete successfully")
		return err
	}

	a.logger.Info().
		Str("test_run_id", testRunID).
		Str("status", string(status)).
		Dur("waited", time.Since(startTime)).
		Msg("Test run completed")
	return nil
}

package cli

// This file contains the check command, which fetches results for a
// finished run and gates on the two pass-rate thresholds.

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dialcheck/dialcheck/model"
	"github.com/dialcheck/dialcheck/scoring"
	"github.com/urfave/cli/v2"
)

func (a *App) check(ctx *cli.Context) error {
	startTime := time.Now()

	testRunID := ctx.Args().First()
	if testRunID == "" {
		return fmt.Errorf("usage: %s check <test-run-id>", AppName)
	}

	client, err := a.apiClient(ctx)
	if err != nil {
		return err
	}

	results, err := client.GetRunResults(ctx.Context, testRunID)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to fetch test run results")
		return err
	}

	if ctx.Bool("json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(results); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	}

	thresholds := scoring.Thresholds{
		MinTestPassRate:      ctx.Float64("min-test-pass-rate"),
		MinAssertionPassRate: ctx.Float64("min-assertion-pass-rate"),
	}

	report, err := scoring.Evaluate(results, thresholds)
	if err != nil {
		a.logger.Error().Err(err).Msg("Cannot evaluate test run results")
		return err
	}

	a.logReport(report, thresholds)
	a.logCallDetails(results, ctx.String("ui-url"))

	exitCode := 0
	if !report.Passed {
		exitCode = 1
	}
	a.recordInvocation(&model.Invocation{
		Command:   model.InvocationCheck,
		Timestamp: startTime,
		Args:      os.Args,
		TestRunID: testRunID,
		ExitCode:  exitCode,
		Duration:  time.Since(startTime),
		RunStatus: results.Status,
		Verdict:   report.Verdict(),
	})

	if !report.Passed {
		return fmt.Errorf("test run %s failed threshold checks", testRunID)
	}

	a.logger.Info().Msg("All checks passed")
	return nil
}

func (a *App) logReport(report *scoring.Report, thresholds scoring.Thresholds) {
	testCheck := a.logger.Info()
	if !report.TestCheckPassed {
		testCheck = a.logger.Error()
	}
	testCheck = testCheck.
		Int("passed", report.PassedCalls).
		Int("total", report.TotalCalls).
		Float64("rate", report.TestPassRate).
		Float64("threshold", thresholds.MinTestPassRate)
	if report.TestCheckPassed {
		testCheck.Msg("Test pass rate meets threshold")
	} else {
		testCheck.Msg("Test pass rate below threshold")
	}

	switch {
	case report.AssertionCheckSkipped:
		a.logger.Info().Msg("No assertions configured, assertion check skipped")
	case report.AssertionCheckPassed:
		a.logger.Info().
			Float64("score", report.AssertionScore).
			Float64("threshold", thresholds.MinAssertionPassRate).
			Msg("Assertion score meets threshold")
	default:
		a.logger.Error().
			Float64("score", report.AssertionScore).
			Float64("threshold", thresholds.MinAssertionPassRate).
			Msg("Assertion score below threshold")
	}

	if len(report.FailingTestCaseIDs) > 0 {
		a.logger.Error().
			Strs("test_case_ids", report.FailingTestCaseIDs).
			Msg("Failing test cases")
	}
}

// logCallDetails prints a per-call breakdown with UI links so a failing
// pipeline points operators straight at the offending test cases.
func (a *App) logCallDetails(results *model.TestRunResults, uiBase string) {
	for _, call := range results.Calls {
		event := a.logger.Info()
		if call.Status != model.CallStatusPassed {
			event = a.logger.Error()
		}
		event = event.
			Str("call_id", call.CallID).
			Str("test_case_id", call.TestCaseID).
			Str("status", call.Status).
			Str("phone_number", call.PhoneNumber)
		if call.DurationSeconds > 0 {
			event = event.Float64("duration_s", call.DurationSeconds)
		}
		if len(call.Scores) > 0 {
			event = event.Interface("scores", call.Scores)
		}
		if url := model.TestCaseURL(uiBase, call.TestCaseID); url != "" {
			event = event.Str("url", url)
		}
		event.Msg("Call result")
	}
}

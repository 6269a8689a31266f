package api

// This file contains the poll loop that waits for a test run to reach a
// terminal state.

import (
	"context"
	"errors"
	"time"

	"github.com/dialcheck/dialcheck/model"
)

const (
	// DefaultPollInterval is how often the status endpoint is polled.
	DefaultPollInterval = 10 * time.Second
	// DefaultWaitTimeout bounds the total wall-clock time spent waiting.
	DefaultWaitTimeout = 10 * time.Minute
)

// WaitOptions configure the poll loop. Zero values fall back to the
// package defaults.
type WaitOptions struct {
	Interval time.Duration
	Timeout  time.Duration
}

// WaitForRun polls the run's status at a fixed interval until it reaches a
// terminal state or the timeout elapses. It returns the terminal status on
// success, a *RunFailedError when the run ends in FAILED, and a
// *TimeoutError once elapsed wall-clock time exceeds the budget. There is
// no backoff and no retry budget: transient poll errors are logged and the
// next tick tries again, while authentication and not-found errors abort
// immediately.
func (c *Client) WaitForRun(ctx context.Context, testRunID string, opts WaitOptions) (model.Status, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	c.logger.Info().
		Str("test_run_id", testRunID).
		Dur("interval", interval).
		Dur("timeout", timeout).
		Msg("Waiting for test run to complete")

	start := time.Now()
	var lastStatus model.Status

	for {
		if time.Since(start) > timeout {
			return lastStatus, &TimeoutError{TestRunID: testRunID, Timeout: timeout, LastStatus: lastStatus}
		}

		status, err := c.GetRunStatus(ctx, testRunID)
		switch {
		case errors.Is(err, ErrRunNotFound), errors.Is(err, ErrUnauthorized):
			return lastStatus, err
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return lastStatus, err
		case err != nil:
			c.logger.Warn().Err(err).Msg("Failed to poll test run status")
		default:
			if status != lastStatus {
				c.logger.Info().Str("status", string(status)).Msg("Test run status changed")
				lastStatus = status
			}
			switch status {
			case model.StatusFinished:
				return status, nil
			case model.StatusFailed:
				return status, &RunFailedError{TestRunID: testRunID, Status: status}
			case model.StatusRunning:
				c.logProgress(ctx, testRunID)
			}
		}

		select {
		case <-ctx.Done():
			return lastStatus, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// logProgress fetches interim results and logs per-status call counts.
// Best effort: results may not be available while the run is in flight.
func (c *Client) logProgress(ctx context.Context, testRunID string) {
	results, err := c.GetRunResults(ctx, testRunID)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Could not fetch interim results")
		return
	}
	if len(results.Calls) == 0 {
		return
	}

	counts := make(map[string]int)
	for _, call := range results.Calls {
		counts[call.Status]++
	}
	c.logger.Info().
		Int("calls", len(results.Calls)).
		Interface("by_status", counts).
		Msg("Test run progress")
}

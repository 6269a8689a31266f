package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/dialcheck/dialcheck/model"
)

// Sentinel errors for the 4xx responses callers branch on.
var (
	// ErrUnauthorized means the API key is missing or rejected.
	ErrUnauthorized = errors.New("api key missing or invalid")
	// ErrRunNotFound means the service does not know the run id.
	ErrRunNotFound = errors.New("test run not found")
)

// StatusError is any other non-2xx response from the service.
type StatusError struct {
	StatusCode int
	// Server-provided message, if the error body could be decoded
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// TimeoutError is returned by WaitForRun when the run does not reach a
// terminal state within the configured budget.
type TimeoutError struct {
	TestRunID  string
	Timeout    time.Duration
	LastStatus model.Status
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("test run %s did not complete within %s (last status: %s)", e.TestRunID, e.Timeout, e.LastStatus)
}

// RunFailedError is returned by WaitForRun when the run reaches FAILED.
type RunFailedError struct {
	TestRunID string
	Status    model.Status
}

func (e *RunFailedError) Error() string {
	return fmt.Sprintf("test run %s finished with status %s", e.TestRunID, e.Status)
}

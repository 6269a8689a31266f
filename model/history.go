package model

import "time"

// InvocationCommand identifies which subcommand produced a history entry.
type InvocationCommand string

const (
	InvocationRun   InvocationCommand = "run"
	InvocationWait  InvocationCommand = "wait"
	InvocationCheck InvocationCommand = "check"
)

// Invocation records a single dialcheck execution in the local history
// directory, so operators can reconstruct what a CI job did after the fact.
type Invocation struct {
	// Unique ID for this invocation (16 random bytes, hex encoded)
	ID string `json:"id"`
	// Which subcommand ran
	Command InvocationCommand `json:"command"`
	// Timestamp when the invocation started
	Timestamp time.Time `json:"timestamp"`
	// Command-line arguments (including command name)
	Args []string `json:"args"`
	// Remote test run this invocation created or acted on
	TestRunID string `json:"test_run_id,omitempty"`
	// Results URL reported by the service (run command only)
	ResultsURL string `json:"results_url,omitempty"`
	// Exit code of the invocation
	ExitCode int `json:"exit_code"`
	// Duration of the invocation
	Duration time.Duration `json:"duration"`
	// Final run status observed (wait and check commands)
	RunStatus Status `json:"run_status,omitempty"`
	// Threshold evaluation outcome (check command only)
	Verdict *Verdict `json:"verdict,omitempty"`
}

// Verdict is the stored outcome of a threshold check.
type Verdict struct {
	Passed bool `json:"passed"`
	// Fraction of calls with status PASSED
	TestPassRate float64 `json:"test_pass_rate"`
	// Service-computed assertion overall score
	AssertionScore float64 `json:"assertion_score"`
	// True when no assertions were configured for the run
	AssertionCheckSkipped bool `json:"assertion_check_skipped,omitempty"`
	// Test case ids of calls that did not pass
	FailingTestCases []string `json:"failing_test_cases,omitempty"`
}

package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status represents the lifecycle state of a remote test run.
type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusRunning  Status = "RUNNING"
	StatusScoring  Status = "SCORING"
	StatusFinished Status = "FINISHED"
	StatusFailed   Status = "FAILED"
)

// normalizeStatus folds legacy status values the service still emits into
// the five-state machine. Unknown values pass through untouched so callers
// can report them verbatim.
func normalizeStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COMPLETED":
		return StatusFinished
	case "CANCELED", "SCORING_FAILED":
		return StatusFailed
	default:
		return Status(strings.ToUpper(strings.TrimSpace(s)))
	}
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = normalizeStatus(raw)
	return nil
}

// Terminal reports whether the run has reached a final state.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusFailed
}

// TestRunRequest is the body of a test run creation call.
// Exactly one of TagIDs or TestConfigurations selects the test cases.
type TestRunRequest struct {
	// Agent under test
	AgentID string `json:"agentId"`
	// Phone numbers the service dials, E.164 format
	PhoneNumbers []string `json:"phoneNumbers"`
	// Tag-based test case selection
	TagIDs []string `json:"tagIds,omitempty"`
	// Explicit test case selection with optional overrides
	TestConfigurations []TestConfiguration `json:"testConfigurations,omitempty"`
}

// TestConfiguration selects a single test case, optionally overriding the
// persona or scenario it was authored with.
type TestConfiguration struct {
	TestCaseID string `json:"testCaseId"`
	PersonaID  string `json:"personaId,omitempty"`
	ScenarioID string `json:"scenarioId,omitempty"`
}

// ValidationError reports malformed input rejected before any remote call.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validate checks the request invariants: a non-empty agent id, phone
// numbers in E.164 form, and exactly one selection method.
func (r *TestRunRequest) Validate() error {
	if r.AgentID == "" {
		return &ValidationError{Msg: "agent id is required"}
	}
	if len(r.PhoneNumbers) == 0 {
		return &ValidationError{Msg: "at least one phone number is required"}
	}
	for _, number := range r.PhoneNumbers {
		if !strings.HasPrefix(number, "+") {
			return &ValidationError{Msg: fmt.Sprintf("phone number must start with '+': %s", number)}
		}
	}
	hasTags := len(r.TagIDs) > 0
	hasConfigs := len(r.TestConfigurations) > 0
	if hasTags && hasConfigs {
		return &ValidationError{Msg: "cannot select by both tag ids and test case ids, choose one"}
	}
	if !hasTags && !hasConfigs {
		return &ValidationError{Msg: "either tag ids or test case ids must be provided"}
	}
	return nil
}

// TestRunResponse is returned by the creation endpoint.
type TestRunResponse struct {
	TestRunID  string `json:"testRunId"`
	ResultsURL string `json:"resultsUrl"`
	Status     Status `json:"status"`
	// Test cases queued for this run; empty means the selection
	// matched nothing
	TestCaseRuns []TestCaseRun `json:"testCaseRuns,omitempty"`
}

// TestCaseRun identifies one queued test case within a run.
type TestCaseRun struct {
	ID         string `json:"id"`
	TestCaseID string `json:"testCaseId"`
}

// TestRunResults is the full result document for a terminal run.
type TestRunResults struct {
	TestRunID string       `json:"testRunId"`
	Status    Status       `json:"status"`
	Calls     []CallResult `json:"calls"`
	Summary   Summary      `json:"summary"`
}

// CallResult describes one phone call placed during a run.
type CallResult struct {
	CallID      string `json:"callId"`
	Status      string `json:"status"`
	PhoneNumber string `json:"phoneNumber"`
	TestCaseID  string `json:"testCaseId"`
	// Per-scorer scores, 0.0 to 1.0
	Scores     map[string]float64 `json:"scores,omitempty"`
	Transcript string             `json:"transcript,omitempty"`
	// Call duration in seconds
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
}

// CallStatusPassed marks a call whose test case passed all checks.
const CallStatusPassed = "PASSED"

// Summary aggregates run-level scores.
type Summary struct {
	Assertions AssertionSummary `json:"assertions"`
}

// AssertionSummary carries the service-computed assertion score for the run.
// An overall score of zero with no categories means no assertions were
// configured for the selected test cases.
type AssertionSummary struct {
	OverallScore float64             `json:"overallScore"`
	Categories   []AssertionCategory `json:"categories,omitempty"`
}

// AssertionCategory is a per-category score breakdown.
type AssertionCategory struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// RunURL returns the operator-facing UI link for a test run.
// Returns "" when no UI base is configured.
func RunURL(uiBase, testRunID string) string {
	if uiBase == "" {
		return ""
	}
	return fmt.Sprintf("%s/test-runs/%s", strings.TrimRight(uiBase, "/"), testRunID)
}

// TestCaseURL returns the operator-facing UI link for a test case.
func TestCaseURL(uiBase, testCaseID string) string {
	if uiBase == "" {
		return ""
	}
	return fmt.Sprintf("%s/test-cases/%s", strings.TrimRight(uiBase, "/"), testCaseID)
}

package scoring

// This package evaluates finished test run results against the two
// CI gate thresholds: test case pass rate and assertion overall score.

import (
	"fmt"

	"github.com/dialcheck/dialcheck/model"
)

// Thresholds are the minimum rates a run must meet to pass the gate.
// Both default to 1.0 (everything must pass).
type Thresholds struct {
	MinTestPassRate      float64
	MinAssertionPassRate float64
}

// DefaultThresholds requires a perfect run.
func DefaultThresholds() Thresholds {
	return Thresholds{MinTestPassRate: 1.0, MinAssertionPassRate: 1.0}
}

// Report holds the complete evaluation output for one run.
type Report struct {
	Passed bool

	TotalCalls  int
	PassedCalls int
	// PassedCalls / TotalCalls
	TestPassRate    float64
	TestCheckPassed bool

	// Service-computed assertion overall score (0.0 to 1.0)
	AssertionScore float64
	// True when the run has no assertions configured; the assertion
	// check then counts as passed regardless of threshold
	AssertionCheckSkipped bool
	AssertionCheckPassed  bool

	// Test case ids of calls that did not pass, in call order
	FailingTestCaseIDs []string
}

// Evaluate computes the gate verdict for a finished run.
// It returns an error when the results cannot be evaluated at all:
// the run is not in a successful terminal state, or it contains no calls.
func Evaluate(results *model.TestRunResults, thresholds Thresholds) (*Report, error) {
	if results.Status != model.StatusFinished {
		return nil, fmt.Errorf("test run %s did not finish successfully, status: %s", results.TestRunID, results.Status)
	}
	if len(results.Calls) == 0 {
		return nil, fmt.Errorf("test run %s has no calls in its results", results.TestRunID)
	}

	report := &Report{
		TotalCalls:     len(results.Calls),
		AssertionScore: results.Summary.Assertions.OverallScore,
	}

	for _, call := range results.Calls {
		if call.Status == model.CallStatusPassed {
			report.PassedCalls++
		} else {
			report.FailingTestCaseIDs = append(report.FailingTestCaseIDs, call.TestCaseID)
		}
	}

	report.TestPassRate = float64(report.PassedCalls) / float64(report.TotalCalls)
	report.TestCheckPassed = report.TestPassRate >= thresholds.MinTestPassRate

	// An overall score of zero with no category breakdown means no
	// assertions were configured, not that every assertion failed.
	if results.Summary.Assertions.OverallScore == 0 && len(results.Summary.Assertions.Categories) == 0 {
		report.AssertionCheckSkipped = true
		report.AssertionCheckPassed = true
	} else {
		report.AssertionCheckPassed = report.AssertionScore >= thresholds.MinAssertionPassRate
	}

	report.Passed = report.TestCheckPassed && report.AssertionCheckPassed
	return report, nil
}

// Verdict converts the report into its history record form.
func (r *Report) Verdict() *model.Verdict {
	return &model.Verdict{
		Passed:                r.Passed,
		TestPassRate:          r.TestPassRate,
		AssertionScore:        r.AssertionScore,
		AssertionCheckSkipped: r.AssertionCheckSkipped,
		FailingTestCases:      r.FailingTestCaseIDs,
	}
}

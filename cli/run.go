package cli

// This file contains the run command, which creates a remote test run and
// prints its id to stdout for chaining into wait and check.

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dialcheck/dialcheck/model"
	"github.com/urfave/cli/v2"
)

func (a *App) run(ctx *cli.Context) error {
	startTime := time.Now()

	req, err := buildTestRunRequest(
		ctx.String("agent-id"),
		parseCommaSeparated(ctx.String("phone-numbers")),
		parseCommaSeparated(ctx.String("tag-ids")),
		parseCommaSeparated(ctx.String("test-case-ids")),
		ctx.String("persona-id"),
		ctx.String("scenario-id"),
	)
	if err != nil {
		return err
	}

	client, err := a.apiClient(ctx)
	if err != nil {
		return err
	}

	if len(req.TagIDs) > 0 {
		a.logger.Info().Strs("tag_ids", req.TagIDs).Msg("Selecting test cases by tag")
	} else {
		caseIDs := make([]string, 0, len(req.TestConfigurations))
		for _, tc := range req.TestConfigurations {
			caseIDs = append(caseIDs, tc.TestCaseID)
		}
		a.logger.Info().Strs("test_case_ids", caseIDs).Msg("Selecting explicit test cases")
	}
	a.logger.Info().
		Str("agent_id", req.AgentID).
		Strs("phone_numbers", req.PhoneNumbers).
		Msg("Creating test run")

	resp, err := client.CreateTestRun(ctx.Context, req)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to create test run")
		return err
	}

	if err := checkCasesQueued(resp); err != nil {
		a.logger.Error().Err(err).Msg("Refusing to start an empty run")
		return err
	}

	a.logger.Info().
		Str("test_run_id", resp.TestRunID).
		Str("results_url", resp.ResultsURL).
		Int("test_cases_queued", len(resp.TestCaseRuns)).
		Msg("Test run created")
	if uiURL := model.RunURL(ctx.String("ui-url"), resp.TestRunID); uiURL != "" {
		a.logger.Info().Str("url", uiURL).Msg("View in UI")
	}

	a.recordInvocation(&model.Invocation{
		Command:    model.InvocationRun,
		Timestamp:  startTime,
		Args:       os.Args,
		TestRunID:  resp.TestRunID,
		ResultsURL: resp.ResultsURL,
		Duration:   time.Since(startTime),
		RunStatus:  resp.Status,
	})

	// Only the run id goes to stdout so callers can capture it
	fmt.Println(resp.TestRunID)
	return nil
}

// buildTestRunRequest assembles the creation request from flag values.
// Persona and scenario overrides apply to explicit test case selection only.
func buildTestRunRequest(agentID string, phoneNumbers, tagIDs, testCaseIDs []string, personaID, scenarioID string) (*model.TestRunRequest, error) {
	if (personaID != "" || scenarioID != "") && len(testCaseIDs) == 0 {
		return nil, &model.ValidationError{Msg: "persona and scenario overrides require --test-case-ids"}
	}

	req := &model.TestRunRequest{
		AgentID:      agentID,
		PhoneNumbers: phoneNumbers,
		TagIDs:       tagIDs,
	}
	for _, caseID := range testCaseIDs {
		req.TestConfigurations = append(req.TestConfigurations, model.TestConfiguration{
			TestCaseID: caseID,
			PersonaID:  personaID,
			ScenarioID: scenarioID,
		})
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// checkCasesQueued rejects runs where the selection matched no test cases,
// which would otherwise sit in CREATED forever.
func checkCasesQueued(resp *model.TestRunResponse) error {
	if len(resp.TestCaseRuns) == 0 {
		return &model.ValidationError{Msg: "no test cases matched the given tags or ids"}
	}
	return nil
}

// parseCommaSeparated splits a comma-separated flag value, trimming
// whitespace and dropping empty items.
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

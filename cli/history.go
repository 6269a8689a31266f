package cli

// This file contains the history command for displaying previous
// dialcheck invocations.

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dialcheck/dialcheck/history"
	"github.com/dialcheck/dialcheck/model"
	"github.com/urfave/cli/v2"
)

func (a *App) history(ctx *cli.Context) error {
	filterCommand := ctx.String("command")
	limit := ctx.Int("limit")

	root, err := history.Root()
	if err != nil {
		return err
	}

	entries, err := history.LoadEntries(a.logger, root)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	// Apply command filter if specified
	var filtered []history.Entry
	for _, entry := range entries {
		if filterCommand == "" || string(entry.Invocation.Command) == filterCommand {
			filtered = append(filtered, entry)
		}
	}

	if len(filtered) == 0 {
		if filterCommand != "" {
			fmt.Printf("No history entries found for command: %s\n", filterCommand)
		} else {
			fmt.Println("No history entries found")
		}
		return nil
	}

	// Sort by timestamp (newest first)
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Invocation.Timestamp.After(filtered[j].Invocation.Timestamp)
	})

	display := filtered
	if limit > 0 && limit < len(display) {
		display = display[:limit]
	}

	fmt.Printf("\n=== History (%d total) ===\n\n", len(filtered))

	for _, entry := range display {
		inv := entry.Invocation
		timestamp := inv.Timestamp.Format("2006-01-02 15:04:05")
		duration := inv.Duration.Round(time.Millisecond)

		status := "✓"
		if inv.ExitCode != 0 {
			status = "✗"
		}

		// Format args (skip the program name)
		args := ""
		if len(inv.Args) > 1 {
			args = strings.Join(inv.Args[1:], " ")
		}

		shortID := inv.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}

		fmt.Printf("%s  %s  %-5s  [%s]  exit=%d  id=%s\n", status, timestamp, inv.Command, duration, inv.ExitCode, shortID)
		if args != "" {
			fmt.Printf("   Args: %s\n", args)
		}
		if inv.TestRunID != "" {
			fmt.Printf("   Test run: %s", inv.TestRunID)
			if inv.RunStatus != "" {
				fmt.Printf(" (%s)", inv.RunStatus)
			}
			fmt.Println()
		}
		if inv.ResultsURL != "" {
			fmt.Printf("   Results: %s\n", inv.ResultsURL)
		}
		if inv.Verdict != nil {
			printVerdict(inv.Verdict)
		}
		fmt.Printf("   %s\n", entry.FullPath)
		fmt.Println()
	}

	return nil
}

func printVerdict(v *model.Verdict) {
	outcome := "PASSED"
	if !v.Passed {
		outcome = "FAILED"
	}
	assertion := fmt.Sprintf("assertion score %.1f%%", v.AssertionScore*100)
	if v.AssertionCheckSkipped {
		assertion = "assertion check skipped"
	}
	fmt.Printf("   Verdict: %s (test pass rate %.1f%%, %s)\n", outcome, v.TestPassRate*100, assertion)
	if len(v.FailingTestCases) > 0 {
		fmt.Printf("   Failing: %s\n", strings.Join(v.FailingTestCases, ", "))
	}
}

package cli

// This file contains invocation recording, which saves metadata about each
// dialcheck execution to the local history directory.

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dialcheck/dialcheck/history"
	"github.com/dialcheck/dialcheck/model"
)

// recordInvocation persists the invocation under
// .dialcheck/history/<timestamp>-<run>-<id>. Recording failures are logged
// but never fail the command itself.
func (a *App) recordInvocation(inv *model.Invocation) {
	if err := a.writeInvocationRecord(inv); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to record invocation")
	}
}

func (a *App) writeInvocationRecord(inv *model.Invocation) error {
	// Generate random 16-byte ID
	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return fmt.Errorf("failed to generate invocation ID: %w", err)
	}
	inv.ID = hex.EncodeToString(idBytes)

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	root := filepath.Join(cwd, history.DirName, "history")

	timestamp := inv.Timestamp.Format("20060102-150405")
	shortRun := inv.TestRunID
	if len(shortRun) > 8 {
		shortRun = shortRun[:8]
	}
	if shortRun == "" {
		shortRun = "none"
	}
	runName := fmt.Sprintf("%s-%s-%s", timestamp, shortRun, inv.ID[:8])

	dir := filepath.Join(root, runName)
	if err := writeInvocation(dir, inv); err != nil {
		return err
	}

	a.logger.Debug().Str("dir", dir).Str("id", inv.ID).Msg("Recorded invocation")
	return nil
}

// writeInvocation creates the run directory and writes invocation.json.
func writeInvocation(dir string, inv *model.Invocation) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	metadataJSON, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal invocation: %w", err)
	}

	metadataPath := filepath.Join(dir, "invocation.json")
	if err := os.WriteFile(metadataPath, metadataJSON, 0644); err != nil {
		return fmt.Errorf("failed to write invocation metadata: %w", err)
	}
	return nil
}

package history

// This file contains shared history utilities for loading and parsing
// recorded dialcheck invocations.

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dialcheck/dialcheck/model"
	"github.com/rs/zerolog"
)

// DirName is the history directory created in the working directory.
const DirName = ".dialcheck"

type Entry struct {
	Invocation model.Invocation
	FullPath   string
}

// Root returns the .dialcheck directory path under the current working
// directory. It fails when no invocations have been recorded yet.
func Root() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root := filepath.Join(cwd, DirName)

	if _, err := os.Stat(root); os.IsNotExist(err) {
		return "", fmt.Errorf("no recorded invocations found in %s", root)
	}

	return root, nil
}

// LoadEntries loads all history entries from the .dialcheck directory.
func LoadEntries(logger zerolog.Logger, root string) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			invocationPath := filepath.Join(path, "invocation.json")
			if _, err := os.Stat(invocationPath); err == nil {
				invocation, err := parseInvocationJSON(invocationPath)
				if err != nil {
					logger.Warn().Err(err).Str("path", invocationPath).Msg("Failed to parse invocation.json")
					return nil
				}

				entries = append(entries, Entry{
					Invocation: invocation,
					FullPath:   path,
				})
			}
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk %s directory: %w", DirName, err)
	}

	return entries, nil
}

// parseInvocationJSON parses an invocation.json file.
func parseInvocationJSON(invocationPath string) (model.Invocation, error) {
	data, err := os.ReadFile(invocationPath)
	if err != nil {
		return model.Invocation{}, err
	}

	var invocation model.Invocation
	if err := json.Unmarshal(data, &invocation); err != nil {
		return model.Invocation{}, err
	}

	return invocation, nil
}

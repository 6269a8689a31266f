package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func writeEntry(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, "history", name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invocation.json"), []byte(content), 0644))
}

func TestLoadEntries(t *testing.T) {
	root := t.TempDir()
	writeEntry(t, root, "20260115-120000-tr111111-aaaa1111", `{
		"id": "aaaa11112222333344445555666677",
		"command": "run",
		"timestamp": "2026-01-15T12:00:00Z",
		"args": ["dialcheck", "run"],
		"test_run_id": "tr-111111",
		"exit_code": 0,
		"duration": 2000000000
	}`)
	writeEntry(t, root, "20260115-120500-tr111111-bbbb2222", `{
		"id": "bbbb22223333444455556666777788",
		"command": "wait",
		"timestamp": "2026-01-15T12:05:00Z",
		"test_run_id": "tr-111111",
		"run_status": "FINISHED",
		"exit_code": 0,
		"duration": 60000000000
	}`)
	// Malformed entries are skipped, not fatal
	writeEntry(t, root, "20260115-121000-broken-cccc3333", `{not json`)

	entries, err := LoadEntries(zerolog.Nop(), root)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byCommand := map[string]bool{}
	for _, entry := range entries {
		byCommand[string(entry.Invocation.Command)] = true
		require.Equal(t, "tr-111111", entry.Invocation.TestRunID)
	}
	require.True(t, byCommand["run"])
	require.True(t, byCommand["wait"])
}

func TestLoadEntries_ParsesDurations(t *testing.T) {
	root := t.TempDir()
	writeEntry(t, root, "20260115-120000-tr111111-aaaa1111", `{
		"id": "aaaa1111",
		"command": "wait",
		"timestamp": "2026-01-15T12:00:00Z",
		"duration": 60000000000
	}`)

	entries, err := LoadEntries(zerolog.Nop(), root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, time.Minute, entries[0].Invocation.Duration)
}

func TestRoot_MissingDirectory(t *testing.T) {
	tmp := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	_, err = Root()
	require.ErrorContains(t, err, "no recorded invocations")

	require.NoError(t, os.Mkdir(filepath.Join(tmp, DirName), 0755))
	root, err := Root()
	require.NoError(t, err)
	require.Equal(t, DirName, filepath.Base(root))
}

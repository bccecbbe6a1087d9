package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionList_UsesProjectLogDir(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)

	logsDir := filepath.Join(dir, "experiment-logs")
	require.NoError(t, os.MkdirAll(logsDir, 0o755))
	logName := "20260115T100000Z-hero-copy.jsonl"
	require.NoError(t, os.WriteFile(filepath.Join(logsDir, logName), []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".splitlab.yaml"), []byte("paths:\n  logs: experiment-logs\n"), 0o644))

	cmd := newSessionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), logName)
}

func TestSessionList_ExplicitDirWins(t *testing.T) {
	dir := t.TempDir()
	chdirForTest(t, dir)

	logsDir := filepath.Join(dir, "experiment-logs")
	require.NoError(t, os.MkdirAll(logsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(logsDir, "20260115T100000Z-hero-copy.jsonl"), []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".splitlab.yaml"), []byte("paths:\n  logs: experiment-logs\n"), 0o644))

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.MkdirAll(empty, 0o755))

	cmd := newSessionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"list", "--dir", empty})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "No experiment logs found.")
}

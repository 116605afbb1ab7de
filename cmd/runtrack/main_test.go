package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runtrack/internal/session"
	"runtrack/internal/spawnctx"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	session.Reset()
	t.Cleanup(session.Reset)

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSetupCommandPrintsSession(t *testing.T) {
	t.Setenv("RUNTRACK_API_KEY", "")
	t.Setenv("RUNTRACK_CONFIG_PATHS", "")

	out, _, err := execute(t, "setup", "--set", "project=demo", "--set", "mode=offline")
	require.NoError(t, err)

	assert.Contains(t, out, "session:")
	assert.Contains(t, out, "  project: demo")
	assert.Contains(t, out, "  offline: true")
	assert.Contains(t, out, "viewer: skipped")
	assert.Contains(t, out, "start method:")
}

func TestSetupCommandReadsObservabilitySection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runtrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("observability:\n  tracing:\n    exporter: carrier-pigeon\n    enabled: true\n"), 0o600))
	t.Setenv("RUNTRACK_MODE", "offline")

	_, _, err := execute(t, "setup", "--set", "config_paths="+path)
	assert.ErrorContains(t, err, "unsupported exporter")
}

func TestSetupCommandRejectsBadOverride(t *testing.T) {
	_, _, err := execute(t, "setup", "--set", "save_code=perhaps")
	assert.Error(t, err)

	_, _, err = execute(t, "setup", "--set", "novalue")
	assert.ErrorContains(t, err, "expected key=value")
}

func TestWorkerCommand(t *testing.T) {
	t.Setenv(spawnctx.WorkerEnv, "")
	_, _, err := execute(t, "worker")
	assert.ErrorContains(t, err, "started by runtrack")

	t.Setenv(spawnctx.WorkerEnv, "1")
	out, _, err := execute(t, "worker")
	require.NoError(t, err)
	assert.Contains(t, out, "ready")
}

func TestSetupCommandWritesLogFile(t *testing.T) {
	t.Setenv("RUNTRACK_MODE", "offline")
	t.Setenv("RUNTRACK_CONFIG_PATHS", "")
	logPath := filepath.Join(t.TempDir(), "runtrack.log")

	_, stderr, err := execute(t, "setup", "--log-file", logPath, "--set", "log_level=debug")
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "setting up session")
	assert.Contains(t, string(data), "done")
	assert.Contains(t, stderr, "setting up session")
}

func TestSetupCommandServesMetrics(t *testing.T) {
	t.Setenv("RUNTRACK_MODE", "offline")
	t.Setenv("RUNTRACK_CONFIG_PATHS", "")

	out, _, err := execute(t, "setup", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "viewer: skipped")
}

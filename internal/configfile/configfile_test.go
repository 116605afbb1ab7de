package configfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadMergesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "project: base\nobservability:\n  logging:\n    level: info\n")
	writeFile(t, dir, "override.json", `{"project": "override", "Team": "core"}`)

	values, err := Read(dir, "base.yaml", "override.json")
	require.NoError(t, err)

	assert.Equal(t, "override", values["project"])
	assert.Equal(t, "core", values["team"])
	observability, ok := values["observability"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"level": "info"}, observability["logging"])
}

func TestReadWithoutExtensionIsYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "runtrackrc", "entity: team\n")

	values, err := Read("", path)
	require.NoError(t, err)
	assert.Equal(t, "team", values["entity"])
}

func TestReadReportsFailuresAndKeepsGoing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.toml", "project = \"demo\"\n")
	writeFile(t, dir, "bad.yaml", "project: [unterminated\n")

	values, err := Read(dir, "missing.yaml", "bad.yaml", "good.toml")
	require.Error(t, err)
	assert.Equal(t, "demo", values["project"])

	var readErr *ReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, filepath.Join(dir, "missing.yaml"), readErr.Path)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestReadNoPaths(t *testing.T) {
	values, err := Read("/nowhere")
	require.NoError(t, err)
	assert.Empty(t, values)
}

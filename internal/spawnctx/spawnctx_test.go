package spawnctx

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runtrack/internal/logging"
)

type fakePlatform struct {
	methods    []string
	selectable bool
	fallback   string
}

func (p fakePlatform) StartMethods() []string  { return p.methods }
func (p fakePlatform) SupportsSelection() bool { return p.selectable }
func (p fakePlatform) DefaultMethod() string   { return p.fallback }

func TestSelectPrefersSpawn(t *testing.T) {
	buffer := logging.NewEarlyBuffer()
	platform := fakePlatform{methods: []string{"fork", "spawn"}, selectable: true, fallback: "fork"}

	got := Select(platform, "", buffer)

	assert.Equal(t, Context{Method: "spawn", Available: []string{"fork", "spawn"}}, got)
	records := buffer.Records()
	require.Len(t, records, 1)
	assert.Equal(t, logging.LevelInfo, records[0].Level)
	assert.Equal(t, "start methods=fork,spawn, using: spawn", records[0].Message())
}

func TestSelectHonoursAvailablePreference(t *testing.T) {
	platform := fakePlatform{methods: []string{"spawn", "fork"}, selectable: true, fallback: "fork"}
	assert.Equal(t, "fork", Select(platform, "fork", nil).Method)
}

func TestSelectWarnsOnUnavailablePreference(t *testing.T) {
	buffer := logging.NewEarlyBuffer()
	platform := fakePlatform{methods: []string{"spawn", "fork"}, selectable: true, fallback: "fork"}

	got := Select(platform, "forkserver", buffer)

	assert.Equal(t, "spawn", got.Method)
	records := buffer.Records()
	require.Len(t, records, 2)
	assert.Equal(t, logging.LevelWarn, records[0].Level)
}

func TestSelectFallsBackWithoutCapability(t *testing.T) {
	buffer := logging.NewEarlyBuffer()
	platform := fakePlatform{methods: []string{"spawn", "fork"}, selectable: false, fallback: "fork"}

	got := Select(platform, "spawn", buffer)

	assert.Equal(t, "fork", got.Method)
	assert.True(t, got.Fallback)
	assert.Equal(t, []string{"spawn", "fork"}, got.Available)
	records := buffer.Records()
	require.Len(t, records, 1)
	assert.Contains(t, records[0].Message(), "platform dependent")
}

func TestSelectCopiesAvailable(t *testing.T) {
	methods := []string{"spawn"}
	got := Select(fakePlatform{methods: methods, selectable: true}, "", nil)
	methods[0] = "mutated"
	assert.Equal(t, []string{"spawn"}, got.Available)
}

func TestHostPlatform(t *testing.T) {
	host := hostPlatform{executable: func() (string, error) { return "/bin/runtrack", nil }}
	assert.True(t, host.SupportsSelection())
	assert.Contains(t, host.StartMethods(), MethodSpawn)

	broken := hostPlatform{executable: func() (string, error) { return "", errors.New("no exe") }}
	assert.False(t, broken.SupportsSelection())
	assert.NotContains(t, broken.StartMethods(), MethodSpawn)
	assert.Equal(t, nativeDefault, broken.DefaultMethod())
}

func TestCommandEnvironment(t *testing.T) {
	spawn := Context{Method: MethodSpawn, Available: []string{MethodSpawn}}
	cmd, err := spawn.Command(context.Background(), []string{"ONLY=this"}, "worker")
	require.NoError(t, err)
	assert.Equal(t, []string{"ONLY=this", WorkerEnv + "=1"}, cmd.Env)
	assert.Equal(t, "worker", cmd.Args[len(cmd.Args)-1])

	t.Setenv("RUNTRACK_SPAWN_TEST", "live")
	fork := Context{Method: MethodFork, Fallback: true}
	cmd, err = fork.Command(context.Background(), []string{"ONLY=this"})
	require.NoError(t, err)
	assert.True(t, slices.Contains(cmd.Env, "RUNTRACK_SPAWN_TEST=live"))
	assert.True(t, slices.Contains(cmd.Env, WorkerEnv+"=1"))
	assert.False(t, slices.Contains(cmd.Env, "ONLY=this"))
}

func TestIsWorker(t *testing.T) {
	env := map[string]string{WorkerEnv: "1"}
	lookup := func(key string) (string, bool) { v, ok := env[key]; return v, ok }
	assert.True(t, IsWorker(lookup))
	env[WorkerEnv] = "0"
	assert.False(t, IsWorker(lookup))
}

package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runtrack/internal/logging"
)

func resolveForTest(t *testing.T, opts ...Option) *Settings {
	t.Helper()
	base := []Option{WithEnviron(Environ{}), WithWorkingDir("/work")}
	s, err := Resolve(append(base, opts...)...)
	require.NoError(t, err)
	return s
}

func TestResolveDefaults(t *testing.T) {
	s := resolveForTest(t)

	assert.Equal(t, ModeOnline, s.String(Mode))
	assert.False(t, s.Bool(Offline))
	assert.False(t, s.Bool(SaveCode))
	assert.Equal(t, DefaultBaseURL, s.String(BaseURL))
	assert.Equal(t, "spawn", s.String(StartMethod))
	assert.Equal(t, 5*time.Second, s.Duration(ViewerTimeout))
	assert.Equal(t, "/work", s.String(RootDir))
	assert.Empty(t, s.StringSlice(ConfigPaths))
	assert.Equal(t, SourceDefault, s.Source(SaveCode))
	assert.False(t, s.Frozen())

	for _, field := range Fields() {
		_, ok := s.Get(field.Name)
		assert.True(t, ok, "missing %s", field.Name)
	}
}

func TestResolveExplicitBeatsRemoteFlag(t *testing.T) {
	s := resolveForTest(t,
		WithOverrides(map[string]any{SaveCode: true}),
		WithFlags(map[string]any{"code_saving_enabled": false}),
	)

	assert.True(t, s.Bool(SaveCode))
	assert.Equal(t, SourceOverride, s.Source(SaveCode))
}

func TestResolveRemoteFlagFillsGap(t *testing.T) {
	s := resolveForTest(t, WithFlags(map[string]any{"code_saving_enabled": true}))

	assert.True(t, s.Bool(SaveCode))
	assert.Equal(t, SourceFlag, s.Source(SaveCode))
}

func TestResolveRemoteFlagBeatsEnvironment(t *testing.T) {
	s := resolveForTest(t,
		WithEnviron(Environ{"RUNTRACK_SAVE_CODE": "true"}),
		WithFlags(map[string]any{"code_saving_enabled": false}),
	)

	assert.False(t, s.Bool(SaveCode))
	assert.Equal(t, SourceFlag, s.Source(SaveCode))
}

func TestResolveMalformedFlagIsSkipped(t *testing.T) {
	buffer := logging.NewEarlyBuffer()
	var observed []bool

	s := resolveForTest(t,
		WithEnviron(Environ{"RUNTRACK_SAVE_CODE": "true"}),
		WithFlags(map[string]any{"code_saving_enabled": "yes", "unrelated_flag": 3}),
		WithLogger(buffer),
		WithFlagObserver(func(flag string, applied bool) {
			assert.Equal(t, "code_saving_enabled", flag)
			observed = append(observed, applied)
		}),
	)

	assert.True(t, s.Bool(SaveCode))
	assert.Equal(t, SourceEnv, s.Source(SaveCode))
	assert.Equal(t, []bool{false}, observed)

	records := buffer.Records()
	require.Len(t, records, 1)
	assert.Equal(t, logging.LevelWarn, records[0].Level)
	assert.Contains(t, records[0].Message(), "code_saving_enabled")
}

func TestResolveWithoutFlagsCompletes(t *testing.T) {
	s := resolveForTest(t, WithFlags(nil))
	assert.False(t, s.Bool(SaveCode))
	assert.Equal(t, SourceDefault, s.Source(SaveCode))
}

func TestResolveEnvironment(t *testing.T) {
	s := resolveForTest(t, WithEnviron(Environ{
		"RUNTRACK_MODE":           "dryrun",
		"RUNTRACK_VIEWER_TIMEOUT": "250ms",
		"RUNTRACK_CONFIG_PATHS":   "a.yaml, ,b.yaml",
		"RUNTRACK_ENTITY":         "team",
		"RUNTRACK_DIR":            "/data",
		"UNRELATED":               "ignored",
	}))

	assert.Equal(t, ModeDryrun, s.String(Mode))
	assert.True(t, s.Bool(Offline))
	assert.Equal(t, 250*time.Millisecond, s.Duration(ViewerTimeout))
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, s.StringSlice(ConfigPaths))
	assert.Equal(t, "team", s.String(Entity))
	assert.Equal(t, "/data", s.String(RootDir))
	assert.Equal(t, SourceEnv, s.Source(Mode))
}

func TestResolveOverrideBeatsEnvironment(t *testing.T) {
	s := resolveForTest(t,
		WithEnviron(Environ{"RUNTRACK_MODE": "offline"}),
		WithOverrides(map[string]any{Mode: ModeOnline}),
	)

	assert.Equal(t, ModeOnline, s.String(Mode))
	assert.False(t, s.Bool(Offline))
}

func TestResolveExplicitOfflineWins(t *testing.T) {
	s := resolveForTest(t, WithOverrides(map[string]any{Mode: ModeOffline, Offline: false}))

	assert.Equal(t, ModeOffline, s.String(Mode))
	assert.False(t, s.Bool(Offline))
}

func TestResolveInvalidEnvironment(t *testing.T) {
	tests := map[string]Environ{
		"bool":     {"RUNTRACK_SAVE_CODE": "maybe"},
		"duration": {"RUNTRACK_VIEWER_TIMEOUT": "soon"},
		"choice":   {"RUNTRACK_MODE": "sideways"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Resolve(WithEnviron(env), WithWorkingDir("/work"))
			var invalid *InvalidValueError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, SourceEnv, invalid.Source)
		})
	}
}

func TestResolveInvalidOverrides(t *testing.T) {
	_, err := Resolve(WithEnviron(Environ{}), WithOverrides(map[string]any{"colour": "blue"}))
	var unknown *UnknownSettingError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "colour", unknown.Name)

	_, err = Resolve(WithEnviron(Environ{}), WithOverrides(map[string]any{SaveCode: "true"}))
	var invalid *InvalidValueError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, SaveCode, invalid.Name)
}

func TestResolveDetectsCI(t *testing.T) {
	assert.True(t, resolveForTest(t, WithEnviron(Environ{"GITHUB_ACTIONS": "true"})).Bool(CI))
	assert.True(t, resolveForTest(t, WithEnviron(Environ{"JENKINS_URL": "http://ci"})).Bool(CI))
	assert.False(t, resolveForTest(t, WithEnviron(Environ{"CI": "false"})).Bool(CI))
	assert.False(t, resolveForTest(t).Bool(CI))
}

func TestResolveCopiesEnvironment(t *testing.T) {
	env := Environ{"RUNTRACK_MODE": "online"}
	opt := WithEnviron(env)
	env["RUNTRACK_MODE"] = "offline"

	s, err := Resolve(opt, WithWorkingDir("/work"))
	require.NoError(t, err)
	assert.Equal(t, ModeOnline, s.String(Mode))
}

func TestResolveCopiesOverridesAndFlags(t *testing.T) {
	overrides := map[string]any{Project: "demo"}
	flags := map[string]any{"code_saving_enabled": true}
	opts := []Option{WithOverrides(overrides), WithFlags(flags)}
	overrides[Project] = "changed"
	flags["code_saving_enabled"] = false

	s := resolveForTest(t, opts...)
	assert.Equal(t, "demo", s.String(Project))
	assert.True(t, s.Bool(SaveCode))
}

func TestEnvironFromList(t *testing.T) {
	env := EnvironFromList([]string{"A=1", "B=x=y", "broken", "=skip", "A=2"})
	assert.Equal(t, Environ{"A": "2", "B": "x=y"}, env)
	assert.ElementsMatch(t, []string{"A=2", "B=x=y"}, env.List())
}

package session

import (
	"context"
	"runtime/debug"
	"testing"

	"runtrack/internal/logging"
	"runtrack/internal/viewer"
)

type fakePlatform struct {
	methods    []string
	selectable bool
	fallback   string
}

func (p fakePlatform) StartMethods() []string  { return p.methods }
func (p fakePlatform) SupportsSelection() bool { return p.selectable }
func (p fakePlatform) DefaultMethod() string   { return p.fallback }

var selectablePlatform = fakePlatform{methods: []string{"spawn", "fork"}, selectable: true, fallback: "fork"}

// stubRuntime pins the sanity check inputs for the duration of a test.
func stubRuntime(t *testing.T, onMain, hasBuildInfo bool) {
	t.Helper()
	prevMain, prevBuild := isMainGoroutine, readBuildInfo
	isMainGoroutine = func() bool { return onMain }
	readBuildInfo = func() (*debug.BuildInfo, bool) { return &debug.BuildInfo{}, hasBuildInfo }
	t.Cleanup(func() {
		isMainGoroutine, readBuildInfo = prevMain, prevBuild
	})
}

func testOptions(t *testing.T, extra ...Option) []Option {
	t.Helper()
	opts := []Option{
		WithEnviron([]string{}),
		WithWorkingDir(t.TempDir()),
		WithPlatform(selectablePlatform),
		WithSessionID("test-session"),
	}
	return append(opts, extra...)
}

func staticQuerier(result viewer.Result) viewer.Querier {
	return viewer.QuerierFunc(func(context.Context) (viewer.Result, error) {
		return result, nil
	})
}

func drain(t *testing.T, s *Session) *logging.EarlyBuffer {
	t.Helper()
	sink := logging.NewEarlyBuffer()
	if err := s.InstallLogger(sink); err != nil {
		t.Fatalf("install logger: %v", err)
	}
	return sink
}

func messages(buffer *logging.EarlyBuffer) []string {
	var out []string
	for _, rec := range buffer.Records() {
		out = append(out, rec.Message())
	}
	return out
}

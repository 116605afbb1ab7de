package session

import (
	"context"
	"io"
	"maps"
	"os/exec"
	"slices"
	"sync"

	"runtrack/internal/logging"
	"runtrack/internal/observability"
	"runtrack/internal/settings"
	"runtrack/internal/spawnctx"
	"runtrack/internal/viewer"
)

// Session is the process-wide bootstrap context. Everything it exposes was
// fixed during setup; accessors hand out copies.
type Session struct {
	id          string
	settings    *settings.Settings
	viewer      viewer.Result
	concurrency spawnctx.Context
	config      map[string]any
	diagnostics []Diagnostic
	environ     settings.Environ
	metrics     *observability.BootstrapMetrics

	handle *logging.Handle
	logger logging.Leveled

	finalize sync.Once
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Settings returns an unfrozen copy of the session settings with overrides
// applied. The shared snapshot is never modified.
func (s *Session) Settings(overrides map[string]any) (*settings.Settings, error) {
	return s.settings.Derive(overrides)
}

// Snapshot returns the frozen settings shared by the session.
func (s *Session) Snapshot() *settings.Settings {
	return s.settings
}

// Entity returns the configured entity, falling back to the one reported by
// the tracking server.
func (s *Session) Entity() (string, bool) {
	if entity := s.settings.String(settings.Entity); entity != "" {
		return entity, true
	}
	return s.viewer.Entity, s.viewer.HasEntity
}

// Flags returns the remote feature flags seen during setup.
func (s *Session) Flags() map[string]any {
	return maps.Clone(s.viewer.Flags)
}

// Viewer returns the outcome of the viewer query.
func (s *Session) Viewer() viewer.Result {
	result := s.viewer
	result.Flags = maps.Clone(result.Flags)
	return result
}

// Concurrency returns the chosen worker start strategy.
func (s *Session) Concurrency() spawnctx.Context {
	c := s.concurrency
	c.Available = slices.Clone(c.Available)
	return c
}

// Config returns the values read from the configured config files.
func (s *Session) Config() map[string]any {
	return maps.Clone(s.config)
}

// Diagnostics returns the advisory events raised during setup.
func (s *Session) Diagnostics() []Diagnostic {
	return slices.Clone(s.diagnostics)
}

// Logger returns the session logger. It buffers until InstallLogger is
// called and delegates afterwards.
func (s *Session) Logger() logging.Leveled {
	return s.logger
}

// InstallLogger replaces the buffering logger with target and replays every
// record captured so far into it. Plain printf loggers are accepted; their
// Critical and Exception calls map onto Error. A target that writes back into
// the session logger fails with logging.ErrInstallCycle.
func (s *Session) InstallLogger(target logging.Logger) error {
	return s.handle.Install(logging.Upgrade(target))
}

// NewLogger builds a logger writing to w with the session's log_level and
// log_format settings.
func (s *Session) NewLogger(w io.Writer) logging.Leveled {
	backend := observability.NewLogger(observability.LogConfig{
		Level:  s.settings.String(settings.LogLevel),
		Format: s.settings.String(settings.LogFormat),
		Output: w,
	})
	return logging.FromObservability(backend, "runtrack")
}

// WorkerCommand builds a worker process command using the chosen start
// strategy and the environment captured at setup.
func (s *Session) WorkerCommand(ctx context.Context, args ...string) (*exec.Cmd, error) {
	return s.concurrency.Command(ctx, s.environ.List(), args...)
}

// Finalize logs that the session is done. Only the first call has an effect.
func (s *Session) Finalize() {
	s.finalize.Do(func() {
		s.logger.Info("done")
	})
}

// Package session owns the process-wide client session. The first Setup
// call builds it; every later call returns the same instance.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	runerrors "runtrack/internal/errors"
	"runtrack/internal/logging"
	"runtrack/internal/viewer"
)

// ErrAlreadyConfigured is returned in strict mode when settings are passed
// to Setup after the session exists.
var ErrAlreadyConfigured = errors.New("session already configured")

// State is the lifecycle state of a Manager.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Manager holds at most one Session. Setup calls are serialized; Current is
// lock free once the session is ready.
type Manager struct {
	mu      sync.Mutex
	state   atomic.Int32
	current atomic.Pointer[Session]
	viewers *viewer.Cache
}

// NewManager returns an uninitialized manager.
func NewManager() *Manager {
	return &Manager{viewers: viewer.NewCache(8, 10*time.Minute)}
}

// Setup returns the session, building it on the first call. Concurrent
// callers wait for the first one to finish.
//
// Once a session exists, settings passed to Setup are discarded with a
// warning; with WithStrict the existing session is returned together with
// ErrAlreadyConfigured. A failed setup leaves the manager uninitialized so
// a later call can retry.
func (m *Manager) Setup(ctx context.Context, opts ...Option) (*Session, error) {
	cfg := newConfig(opts)

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing := m.current.Load(); existing != nil {
		existing.metrics.RecordSetup(ctx, "reused")
		if len(cfg.overrides) == 0 {
			return existing, nil
		}
		names := make([]string, 0, len(cfg.overrides))
		for name := range cfg.overrides {
			names = append(names, name)
		}
		sort.Strings(names)
		existing.logger.LogAttrs(logging.LevelWarn,
			"session already set up; ignoring settings: "+strings.Join(names, ", "),
			slog.String("code", DiagSetupIgnoredSettings),
		)
		if cfg.strict {
			return existing, ErrAlreadyConfigured
		}
		return existing, nil
	}

	m.state.Store(int32(StateInitializing))
	s, err := bootstrap(ctx, cfg, m.viewers)
	if err != nil {
		m.state.Store(int32(StateUninitialized))
		cfg.metrics.RecordSetup(ctx, "failed")
		return nil, runerrors.NewPermanent(err, "session setup")
	}

	m.current.Store(s)
	m.state.Store(int32(StateReady))
	cfg.metrics.RecordSetup(ctx, "initialized")
	return s, nil
}

// Current returns the session, or nil before a successful Setup.
func (m *Manager) Current() *Session {
	return m.current.Load()
}

// State reports the lifecycle state.
func (m *Manager) State() State {
	return State(m.state.Load())
}

// Reset forgets the session and cached viewer results. It exists for tests
// that need several independent sessions in one process.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.Store(nil)
	m.state.Store(int32(StateUninitialized))
	m.viewers.Purge()
}

var defaultManager = NewManager()

// Setup sets up the process-wide session.
func Setup(ctx context.Context, opts ...Option) (*Session, error) {
	return defaultManager.Setup(ctx, opts...)
}

// Current returns the process-wide session, or nil.
func Current() *Session {
	return defaultManager.Current()
}

// Reset forgets the process-wide session. For tests only.
func Reset() {
	defaultManager.Reset()
}

package logging

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrInstallCycle is returned when Install is given the handle itself or a
// logger that writes back into it.
var ErrInstallCycle = errors.New("logging: logger installed into itself")

// wrapper is implemented by loggers that forward to other loggers.
type wrapper interface {
	unwrapLoggers() []Leveled
}

// Handle is a two-state logger. It starts out buffering into an EarlyBuffer
// and becomes a plain delegate once Install hands it a real logger.
//
// Collaborators receive the Handle itself, so nothing has to re-read a shared
// logger variable after the swap.
type Handle struct {
	mu     sync.RWMutex
	active Leveled
	early  *EarlyBuffer
}

// NewHandle returns a handle in the buffering state.
func NewHandle() *Handle {
	early := NewEarlyBuffer()
	return &Handle{active: early, early: early}
}

// Install switches the handle to target and replays the early buffer into it.
// The write lock is held during replay so buffered records always precede
// records logged after the swap. Later calls only swap the target.
// A target that forwards into h is rejected with ErrInstallCycle and the
// handle is left unchanged.
func (h *Handle) Install(target Leveled) error {
	target = OrNop(target)
	if reaches(target, h, map[*Handle]bool{}) {
		return ErrInstallCycle
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.active = target
	if h.early == nil {
		return nil
	}
	early := h.early
	h.early = nil
	return early.Flush(target)
}

// Installed reports whether a real logger has replaced the buffer.
func (h *Handle) Installed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.early == nil
}

// Early returns the buffer backing the handle, or nil after Install.
func (h *Handle) Early() *EarlyBuffer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.early
}

func (h *Handle) unwrapLoggers() []Leveled {
	return []Leveled{h.current()}
}

// reaches reports whether logger is h or forwards into it.
func reaches(logger Leveled, h *Handle, seen map[*Handle]bool) bool {
	if other, ok := logger.(*Handle); ok {
		if other == h {
			return true
		}
		if seen[other] {
			return false
		}
		seen[other] = true
	}
	w, ok := logger.(wrapper)
	if !ok {
		return false
	}
	for _, inner := range w.unwrapLoggers() {
		if reaches(inner, h, seen) {
			return true
		}
	}
	return false
}

func (h *Handle) current() Leveled {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.active
}

func (h *Handle) Debug(format string, args ...any) { h.current().Debug(format, args...) }
func (h *Handle) Info(format string, args ...any)  { h.current().Info(format, args...) }
func (h *Handle) Warn(format string, args ...any)  { h.current().Warn(format, args...) }
func (h *Handle) Error(format string, args ...any) { h.current().Error(format, args...) }

func (h *Handle) Critical(format string, args ...any) {
	h.current().Critical(format, args...)
}

func (h *Handle) Log(level Level, format string, args ...any) {
	h.current().Log(level, format, args...)
}

func (h *Handle) LogAttrs(level Level, msg string, attrs ...slog.Attr) {
	h.current().LogAttrs(level, msg, attrs...)
}

func (h *Handle) Exception(err error, format string, args ...any) {
	h.current().Exception(err, format, args...)
}

package logging

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBufferDrained is returned when Flush is called on a buffer that has
// already been replayed.
var ErrBufferDrained = errors.New("logging: early buffer already flushed")

// Record is one captured plain log call. Args holds printf arguments for
// Log-style calls; Attrs holds structured attributes for LogAttrs calls.
type Record struct {
	Time   time.Time
	Level  Level
	Format string
	Args   []any
	Attrs  []slog.Attr
}

// Message renders the record the way a printf logger would.
func (r Record) Message() string {
	return sprintf(r.Format, r.Args)
}

// ExceptionRecord is one captured Exception call.
type ExceptionRecord struct {
	Time   time.Time
	Err    error
	Format string
	Args   []any
}

// EarlyBuffer captures log calls in memory until a real logger exists.
//
// Plain records and exception records are kept in two sequences, each in
// arrival order. The buffer is single-use: Flush replays both sequences once,
// and anything recorded afterwards stays in the buffer but is never replayed.
type EarlyBuffer struct {
	mu         sync.Mutex
	records    []Record
	exceptions []ExceptionRecord
	flushed    bool
	pending    int
	now        func() time.Time
}

// NewEarlyBuffer returns an empty buffer.
func NewEarlyBuffer() *EarlyBuffer {
	return &EarlyBuffer{now: time.Now}
}

func (b *EarlyBuffer) Debug(format string, args ...any) { b.Log(LevelDebug, format, args...) }
func (b *EarlyBuffer) Info(format string, args ...any)  { b.Log(LevelInfo, format, args...) }
func (b *EarlyBuffer) Warn(format string, args ...any)  { b.Log(LevelWarn, format, args...) }
func (b *EarlyBuffer) Error(format string, args ...any) { b.Log(LevelError, format, args...) }

func (b *EarlyBuffer) Critical(format string, args ...any) {
	b.Log(LevelCritical, format, args...)
}

// Log records a call at an arbitrary level.
func (b *EarlyBuffer) Log(level Level, format string, args ...any) {
	b.append(Record{Level: level, Format: format, Args: cloneArgs(args)})
}

// LogAttrs records a structured call at an arbitrary level.
func (b *EarlyBuffer) LogAttrs(level Level, msg string, attrs ...slog.Attr) {
	var copied []slog.Attr
	if len(attrs) > 0 {
		copied = append(copied, attrs...)
	}
	b.append(Record{Level: level, Format: msg, Attrs: copied})
}

// Exception records an error report.
func (b *EarlyBuffer) Exception(err error, format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exceptions = append(b.exceptions, ExceptionRecord{
		Time:   b.now(),
		Err:    err,
		Format: format,
		Args:   cloneArgs(args),
	})
	if b.flushed {
		b.pending++
	}
}

func (b *EarlyBuffer) append(rec Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec.Time = b.now()
	b.records = append(b.records, rec)
	if b.flushed {
		b.pending++
	}
}

// Flush replays every plain record to target at its original level, then
// every exception record through target.Exception. Passing the buffer itself
// as target is a programming error and panics.
func (b *EarlyBuffer) Flush(target Leveled) error {
	if self, ok := target.(*EarlyBuffer); ok && self == b {
		panic("logging: early buffer flushed into itself")
	}
	target = OrNop(target)

	b.mu.Lock()
	if b.flushed {
		b.mu.Unlock()
		return ErrBufferDrained
	}
	b.flushed = true
	records := b.records
	exceptions := b.exceptions
	b.mu.Unlock()

	for _, rec := range records {
		if len(rec.Attrs) > 0 {
			target.LogAttrs(rec.Level, rec.Format, rec.Attrs...)
			continue
		}
		target.Log(rec.Level, rec.Format, rec.Args...)
	}
	for _, exc := range exceptions {
		target.Exception(exc.Err, exc.Format, exc.Args...)
	}
	return nil
}

// Flushed reports whether Flush has run.
func (b *EarlyBuffer) Flushed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushed
}

// Pending returns how many records arrived after Flush. They are retained
// for inspection but not replayed.
func (b *EarlyBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Records returns a copy of the plain records captured so far.
func (b *EarlyBuffer) Records() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Record(nil), b.records...)
}

// Exceptions returns a copy of the exception records captured so far.
func (b *EarlyBuffer) Exceptions() []ExceptionRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ExceptionRecord(nil), b.exceptions...)
}

func cloneArgs(args []any) []any {
	if len(args) == 0 {
		return nil
	}
	return append([]any(nil), args...)
}

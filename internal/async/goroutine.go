package async

import (
	"context"
	"fmt"
	"runtime/debug"
)

// PanicLogger captures panic reports from background goroutines.
type PanicLogger interface {
	Error(format string, args ...any)
}

// PanicError is returned by Await when fn panicked.
type PanicError struct {
	Name  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("goroutine panic: %v", e.Value)
	}
	return fmt.Sprintf("goroutine panic [%s]: %v", e.Name, e.Value)
}

// Go runs fn in a goroutine guarded by panic recovery.
func Go(logger PanicLogger, name string, fn func()) {
	go func() {
		defer Recover(logger, name)
		fn()
	}()
}

// Recover logs panic details without crashing the process.
func Recover(logger PanicLogger, name string) {
	if r := recover(); r != nil {
		report(logger, name, r, debug.Stack())
	}
}

// Await runs fn in a panic-guarded goroutine and waits for it or for ctx.
// When ctx ends first Await returns ctx.Err() and the goroutine is left to
// finish on its own; its result is discarded. fn receives ctx and should
// stop early when it is cancelled.
func Await[T any](ctx context.Context, logger PanicLogger, name string, fn func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				report(logger, name, r, stack)
				done <- outcome{err: &PanicError{Name: name, Value: r, Stack: stack}}
			}
		}()
		value, err := fn(ctx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func report(logger PanicLogger, name string, r any, stack []byte) {
	if logger == nil {
		return
	}
	if name == "" {
		logger.Error("goroutine panic: %v, stack: %s", r, stack)
		return
	}
	logger.Error("goroutine panic [%s]: %v, stack: %s", name, r, stack)
}

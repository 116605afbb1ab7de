package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) Error(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

func TestGoRecoversPanic(t *testing.T) {
	logger := &recordingLogger{}
	done := make(chan struct{})

	Go(logger, "worker", func() {
		defer close(done)
		panic("kaboom")
	})

	<-done
	require.Eventually(t, func() bool { return len(logger.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, logger.snapshot()[0], "goroutine panic [worker]: kaboom")
}

func TestAwaitReturnsValue(t *testing.T) {
	got, err := Await(context.Background(), nil, "value", func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestAwaitReturnsError(t *testing.T) {
	want := errors.New("nope")
	_, err := Await(context.Background(), nil, "err", func(context.Context) (string, error) {
		return "", want
	})
	assert.ErrorIs(t, err, want)
}

func TestAwaitConvertsPanic(t *testing.T) {
	logger := &recordingLogger{}
	_, err := Await(context.Background(), logger, "panicky", func(context.Context) (int, error) {
		panic("bad")
	})

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "bad", panicErr.Value)
	assert.Len(t, logger.snapshot(), 1)
}

func TestAwaitHonoursDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	_, err := Await(ctx, nil, "slow", func(context.Context) (int, error) {
		<-release
		return 1, nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

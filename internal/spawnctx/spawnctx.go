// Package spawnctx decides how worker processes are started for a session.
package spawnctx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"

	"runtrack/internal/logging"
)

// Start methods.
const (
	// MethodSpawn re-executes the binary with an explicit environment.
	MethodSpawn = "spawn"
	// MethodFork starts the binary with the live environment of the parent.
	MethodFork = "fork"
)

// WorkerEnv marks a process started through Context.Command.
const WorkerEnv = "RUNTRACK_WORKER"

// Platform reports the start methods available to this process.
type Platform interface {
	StartMethods() []string
	// SupportsSelection reports whether a method can be chosen explicitly.
	SupportsSelection() bool
	// DefaultMethod is used when selection is unsupported.
	DefaultMethod() string
}

// Context is the start strategy chosen for the session. It never changes
// after Select returns it.
type Context struct {
	Method    string
	Available []string
	Fallback  bool
}

// Select picks the start method. When the platform supports selection it
// prefers preferred, then spawn; otherwise it keeps the platform default.
// There is no failure path.
func Select(platform Platform, preferred string, logger logging.Leveled) Context {
	logger = logging.OrNop(logger)
	available := slices.Clone(platform.StartMethods())

	if !platform.SupportsSelection() {
		method := platform.DefaultMethod()
		logger.Info("start method selection unavailable; using platform default %q (platform dependent, usually fork on POSIX)", method)
		return Context{Method: method, Available: available, Fallback: true}
	}

	method := ""
	switch {
	case preferred != "" && slices.Contains(available, preferred):
		method = preferred
	case slices.Contains(available, MethodSpawn):
		if preferred != "" && preferred != MethodSpawn {
			logger.Warn("start method %q not available; using %s", preferred, MethodSpawn)
		}
		method = MethodSpawn
	default:
		method = platform.DefaultMethod()
	}

	logger.Info("start methods=%s, using: %s", strings.Join(available, ","), method)
	return Context{Method: method, Available: available, Fallback: false}
}

// Command builds the command for a worker process running args.
//
// With spawn the worker sees only environ; otherwise it inherits the live
// environment of this process. Both get WorkerEnv=1.
func (c Context) Command(ctx context.Context, environ []string, args ...string) (*exec.Cmd, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}

	cmd := exec.CommandContext(ctx, exe, args...)
	base := os.Environ()
	if c.Method == MethodSpawn && !c.Fallback {
		base = slices.Clone(environ)
	}
	cmd.Env = append(base, WorkerEnv+"=1")
	return cmd, nil
}

// IsWorker reports whether lookup describes a worker process.
func IsWorker(lookup func(string) (string, bool)) bool {
	value, ok := lookup(WorkerEnv)
	return ok && value == "1"
}

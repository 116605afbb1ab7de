package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"runtrack/internal/session"
	"runtrack/internal/spawnctx"
)

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Short:  "Worker process entry point",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !spawnctx.IsWorker(os.LookupEnv) {
				return errors.New("worker must be started by runtrack")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "worker %d ready\n", os.Getpid())
			return nil
		},
	}
}

// runWorker starts one worker with the session's start method and relays
// its output.
func runWorker(ctx context.Context, w io.Writer, s *session.Session) error {
	cmd, err := s.WorkerCommand(ctx, "worker")
	if err != nil {
		return err
	}
	cmd.Stdout = w
	cmd.Stderr = w
	s.Logger().Info("starting worker with %s", s.Concurrency().Method)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"runtrack/internal/configfile"
	"runtrack/internal/logging"
	"runtrack/internal/observability"
	"runtrack/internal/session"
	"runtrack/internal/settings"
)

type setupOptions struct {
	set         []string
	spawnWorker bool
	logFile     string
}

func newSetupCommand(cli *CLI) *cobra.Command {
	opts := &setupOptions{}
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Set up a session and print what it resolved",
		Long: "Set up the runtrack session the way a library client would and print the\n" +
			"resolved settings, the worker start method and any diagnostics.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.runSetup(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "Explicit setting as key=value (repeatable)")
	cmd.Flags().BoolVar(&opts.spawnWorker, "spawn-worker", false, "Start one worker with the chosen start method")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "Also write the session log to this file")
	return cmd
}

func (cli *CLI) runSetup(ctx context.Context, stdout, stderr io.Writer, opts *setupOptions) (err error) {
	overrides, err := settings.ParseOverrides(opts.set)
	if err != nil {
		return err
	}

	obsConfig, err := cli.observabilityConfig(overrides)
	if err != nil {
		return err
	}

	var logFile *os.File
	if opts.logFile != "" {
		logFile, err = os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()
	}

	sessionOpts := []session.Option{session.WithSettings(overrides)}

	if obsConfig.Metrics.Enabled {
		prom, metrics, startErr := startMetrics(obsConfig.Metrics, stderr)
		if startErr != nil {
			return startErr
		}
		defer shutdown(&err, prom.Shutdown)
		sessionOpts = append(sessionOpts, session.WithMetrics(metrics))
	}

	if obsConfig.Tracing.Enabled {
		tracer, tracerErr := observability.NewTracerProvider(obsConfig.Tracing)
		if tracerErr != nil {
			return tracerErr
		}
		defer shutdown(&err, tracer.Shutdown)
		sessionOpts = append(sessionOpts, session.WithTracerProvider(tracer.Provider()))
	}

	s, err := session.Setup(ctx, sessionOpts...)
	if err != nil {
		return err
	}
	defer s.Finalize()

	logger := s.NewLogger(stderr)
	if logFile != nil {
		logger = logging.Multi(logger, s.NewLogger(logFile))
	}
	if err := s.InstallLogger(logger); err != nil {
		return err
	}

	if err := printSession(stdout, s); err != nil {
		return err
	}

	if opts.spawnWorker {
		return runWorker(ctx, stdout, s)
	}
	return nil
}

func startMetrics(config observability.MetricsConfig, stderr io.Writer) (*observability.PrometheusProvider, *observability.BootstrapMetrics, error) {
	prom, err := observability.NewPrometheusProvider()
	if err != nil {
		return nil, nil, err
	}
	metrics, err := observability.NewBootstrapMetrics(prom.MeterProvider())
	if err != nil {
		return nil, nil, err
	}
	logger := logging.FromObservability(observability.NewLogger(observability.LogConfig{Output: stderr}), "metrics")
	if err := prom.Serve(config.Addr, logger); err != nil {
		return nil, nil, err
	}
	return prom, metrics, nil
}

// observabilityConfig reads the observability section of the configured
// files and applies command line flags on top.
func (cli *CLI) observabilityConfig(overrides map[string]any) (observability.Config, error) {
	prelim, err := settings.Resolve(settings.WithOverrides(overrides))
	if err != nil {
		return observability.Config{}, err
	}

	// Unreadable files are reported again as a session diagnostic.
	values, _ := configfile.Read(prelim.String(settings.RootDir), prelim.StringSlice(settings.ConfigPaths)...)
	config, err := observability.DecodeConfig(values["observability"])
	if err != nil {
		return observability.Config{}, fmt.Errorf("observability config: %w", err)
	}

	if addr := cli.v.GetString("metrics-addr"); addr != "" {
		config.Metrics.Enabled = true
		config.Metrics.Addr = addr
	}
	if exporter := cli.v.GetString("trace-exporter"); exporter != "" {
		config.Tracing.Enabled = true
		config.Tracing.Exporter = exporter
	}
	if endpoint := cli.v.GetString("trace-endpoint"); endpoint != "" {
		switch config.Tracing.Exporter {
		case "zipkin":
			config.Tracing.ZipkinEndpoint = endpoint
		default:
			config.Tracing.OTLPEndpoint = endpoint
		}
	}
	return config, nil
}

func printSession(w io.Writer, s *session.Session) error {
	rendered, err := yaml.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("render settings: %w", err)
	}

	fmt.Fprintf(w, "%s %s\n", bold("session:"), s.ID())
	fmt.Fprintln(w, bold("settings:"))
	for _, line := range strings.Split(strings.TrimRight(string(rendered), "\n"), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}

	concurrency := s.Concurrency()
	method := green(concurrency.Method)
	if concurrency.Fallback {
		method = yellow(concurrency.Method + " (fallback)")
	}
	fmt.Fprintf(w, "%s %s %s\n", bold("start method:"), method,
		gray("available="+strings.Join(concurrency.Available, ",")))

	result := s.Viewer()
	fmt.Fprintf(w, "%s %s\n", bold("viewer:"), result.Outcome)
	if entity, ok := s.Entity(); ok {
		fmt.Fprintf(w, "%s %s\n", bold("entity:"), entity)
	}

	diags := s.Diagnostics()
	if len(diags) == 0 {
		fmt.Fprintf(w, "%s %s\n", bold("diagnostics:"), green("none"))
		return nil
	}
	fmt.Fprintln(w, bold("diagnostics:"))
	for _, diag := range diags {
		fmt.Fprintf(w, "  [%s] %s: %s\n", severity(diag.Severity), diag.Code, diag.Message)
	}
	return nil
}

func shutdown(errp *error, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		*errp = errors.Join(*errp, err)
	}
}

package observability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promclient "github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"runtrack/internal/async"
)

// MetricsConfig configures the metrics exporter
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// BootstrapMetrics records what happens while a session is set up.
// A nil *BootstrapMetrics is valid and records nothing.
type BootstrapMetrics struct {
	setupCalls    metric.Int64Counter
	viewerQueries metric.Int64Counter
	viewerLatency metric.Float64Histogram
	flags         metric.Int64Counter
	diagnostics   metric.Int64Counter
}

// NewBootstrapMetrics creates the bootstrap instruments on provider. A nil
// provider falls back to a no-op provider.
func NewBootstrapMetrics(provider metric.MeterProvider) (*BootstrapMetrics, error) {
	if provider == nil {
		provider = noop.NewMeterProvider()
	}
	meter := provider.Meter("runtrack")

	setupCalls, err := meter.Int64Counter(
		"runtrack.setup.calls",
		metric.WithDescription("Setup calls by outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create setup_calls counter: %w", err)
	}

	viewerQueries, err := meter.Int64Counter(
		"runtrack.viewer.queries",
		metric.WithDescription("Viewer queries by outcome"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create viewer_queries counter: %w", err)
	}

	viewerLatency, err := meter.Float64Histogram(
		"runtrack.viewer.latency",
		metric.WithDescription("Viewer query latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create viewer_latency histogram: %w", err)
	}

	flags, err := meter.Int64Counter(
		"runtrack.flags",
		metric.WithDescription("Remote feature flags seen during settings resolution"),
		metric.WithUnit("{flag}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flags counter: %w", err)
	}

	diagnostics, err := meter.Int64Counter(
		"runtrack.diagnostics",
		metric.WithDescription("Environment diagnostics raised during setup"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create diagnostics counter: %w", err)
	}

	return &BootstrapMetrics{
		setupCalls:    setupCalls,
		viewerQueries: viewerQueries,
		viewerLatency: viewerLatency,
		flags:         flags,
		diagnostics:   diagnostics,
	}, nil
}

// RecordSetup records one setup call; outcome is initialized, reused or failed.
func (m *BootstrapMetrics) RecordSetup(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.setupCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordViewerQuery records a viewer query and its latency.
func (m *BootstrapMetrics) RecordViewerQuery(ctx context.Context, outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.viewerQueries.Add(ctx, 1, attrs)
	m.viewerLatency.Record(ctx, latency.Seconds(), attrs)
}

// RecordFlag records whether a remote flag was applied to the settings.
func (m *BootstrapMetrics) RecordFlag(ctx context.Context, flag string, applied bool) {
	if m == nil {
		return
	}
	m.flags.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flag", flag),
		attribute.Bool("applied", applied),
	))
}

// RecordDiagnostic records one environment diagnostic.
func (m *BootstrapMetrics) RecordDiagnostic(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.diagnostics.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// PrometheusProvider is a meter provider whose readings are exposed in the
// Prometheus text format.
type PrometheusProvider struct {
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry
	server   *http.Server
}

// NewPrometheusProvider creates a meter provider backed by a dedicated
// Prometheus registry.
func NewPrometheusProvider() (*PrometheusProvider, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	return &PrometheusProvider{
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter)),
		registry: registry,
	}, nil
}

// MeterProvider returns the provider instruments should be created on.
func (p *PrometheusProvider) MeterProvider() metric.MeterProvider {
	return p.provider
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusProvider) Handler() http.Handler {
	return promclient.HandlerFor(p.registry, promclient.HandlerOpts{})
}

// Serve starts an HTTP server on addr exposing /metrics. It returns once the
// listener is bound.
func (p *PrometheusProvider) Serve(addr string, logger async.PanicLogger) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	p.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	async.Go(logger, "prometheus-server", func() {
		if err := p.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) && logger != nil {
			logger.Error("prometheus server error: %v", err)
		}
	})
	return nil
}

// Shutdown stops the metrics server and flushes the provider.
func (p *PrometheusProvider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.server != nil {
		errs = append(errs, p.server.Shutdown(ctx))
	}
	errs = append(errs, p.provider.Shutdown(ctx))
	return errors.Join(errs...)
}

package session

import (
	"maps"
	"slices"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"runtrack/internal/observability"
	"runtrack/internal/settings"
	"runtrack/internal/spawnctx"
	"runtrack/internal/viewer"
)

// Option customises Setup.
type Option func(*config)

// QuerierFactory builds the viewer querier for a server and API key.
type QuerierFactory func(baseURL, apiKey string) viewer.Querier

type config struct {
	overrides      map[string]any
	environ        []string
	workingDir     string
	querier        viewer.Querier
	querierFactory QuerierFactory
	platform       spawnctx.Platform
	metrics        *observability.BootstrapMetrics
	tracer         trace.Tracer
	strict         bool
	sessionID      string
}

func newConfig(opts []Option) config {
	cfg := config{
		querierFactory: defaultQuerierFactory,
		platform:       spawnctx.HostPlatform(),
		tracer:         noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func defaultQuerierFactory(baseURL, apiKey string) viewer.Querier {
	return viewer.NewHTTPClient(baseURL, apiKey)
}

// WithSettings supplies explicit settings. They are ignored, with a warning,
// once a session exists.
func WithSettings(overrides map[string]any) Option {
	copied := maps.Clone(overrides)
	return func(c *config) { c.overrides = copied }
}

// WithEnviron replaces the process environment with a KEY=VALUE list.
func WithEnviron(environ []string) Option {
	copied := slices.Clone(environ)
	return func(c *config) { c.environ = copied }
}

// WithWorkingDir fixes the directory used for the root_dir default.
func WithWorkingDir(dir string) Option {
	return func(c *config) { c.workingDir = dir }
}

// WithQuerier injects the viewer querier. It is used even without an API key.
func WithQuerier(q viewer.Querier) Option {
	return func(c *config) { c.querier = q }
}

// WithQuerierFactory replaces how the default viewer querier is built.
func WithQuerierFactory(factory QuerierFactory) Option {
	return func(c *config) {
		if factory != nil {
			c.querierFactory = factory
		}
	}
}

// WithPlatform replaces the host platform used to pick a start method.
func WithPlatform(platform spawnctx.Platform) Option {
	return func(c *config) {
		if platform != nil {
			c.platform = platform
		}
	}
}

// WithMetrics records bootstrap metrics.
func WithMetrics(metrics *observability.BootstrapMetrics) Option {
	return func(c *config) { c.metrics = metrics }
}

// WithTracerProvider records bootstrap spans.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *config) {
		if provider != nil {
			c.tracer = provider.Tracer("runtrack/session")
		}
	}
}

// WithStrict makes Setup fail with ErrAlreadyConfigured when settings are
// passed after the session exists.
func WithStrict() Option {
	return func(c *config) { c.strict = true }
}

// WithSessionID fixes the session identifier instead of generating one.
func WithSessionID(id string) Option {
	return func(c *config) { c.sessionID = id }
}

func (c config) environSnapshot() settings.Environ {
	if c.environ == nil {
		return settings.CaptureEnviron()
	}
	return settings.EnvironFromList(c.environ)
}

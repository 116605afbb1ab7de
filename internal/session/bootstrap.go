package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"runtrack/internal/configfile"
	"runtrack/internal/logging"
	"runtrack/internal/observability"
	"runtrack/internal/settings"
	"runtrack/internal/spawnctx"
	"runtrack/internal/viewer"
)

// bootstrap runs the setup sequence: preliminary settings, viewer query,
// final settings, freeze, sanity checks, start method, config files.
func bootstrap(ctx context.Context, cfg config, cache *viewer.Cache) (*Session, error) {
	id := cfg.sessionID
	if id == "" {
		id = uuid.NewString()
	}

	handle := logging.NewHandle()
	s := &Session{
		id:      id,
		environ: cfg.environSnapshot(),
		metrics: cfg.metrics,
		handle:  handle,
		logger:  logging.WithSessionID(handle, id),
	}

	ctx, span := cfg.tracer.Start(ctx, observability.SpanSessionSetup)
	span.SetAttributes(observability.SessionAttrs(id)...)
	defer span.End()

	s.logger.Debug("setting up session")

	preliminary, err := s.resolve(ctx, cfg, nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.viewer = s.queryViewer(ctx, cfg, preliminary, cache)
	if s.viewer.Err != nil {
		// QueryWithTimeout already logged the failure.
		s.record(ctx, Diagnostic{
			Code:     DiagViewerUnavailable,
			Severity: logging.LevelWarn,
			Message:  fmt.Sprintf("remote settings unavailable (%s); using local values", s.viewer.Outcome),
		}, false)
	}

	final, err := s.resolve(ctx, cfg, s.viewer.Flags)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	final.Freeze()
	s.settings = final

	for _, diag := range sanityChecks() {
		s.record(ctx, diag, true)
	}

	s.concurrency = s.selectStartMethod(ctx, cfg)
	s.config = s.readConfig(ctx, cfg)

	span.SetAttributes(
		attribute.String(observability.AttrViewerOutcome, string(s.viewer.Outcome)),
		attribute.String(observability.AttrStartMethod, s.concurrency.Method),
		attribute.Bool(observability.AttrFallback, s.concurrency.Fallback),
		attribute.Int(observability.AttrDiagnostics, len(s.diagnostics)),
	)
	s.logger.Debug("session ready")
	return s, nil
}

// resolve builds a settings snapshot. The preliminary pass has no flags and
// only configures the viewer query.
func (s *Session) resolve(ctx context.Context, cfg config, flags map[string]any) (*settings.Settings, error) {
	_, span := cfg.tracer.Start(ctx, observability.SpanResolveSettings)
	defer span.End()

	opts := []settings.Option{
		settings.WithOverrides(cfg.overrides),
		settings.WithEnviron(s.environ),
		settings.WithWorkingDir(cfg.workingDir),
		settings.WithLogger(s.logger),
	}
	if flags != nil {
		opts = append(opts,
			settings.WithFlags(flags),
			settings.WithFlagObserver(func(flag string, applied bool) {
				cfg.metrics.RecordFlag(ctx, flag, applied)
			}),
		)
	}

	resolved, err := settings.Resolve(opts...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("resolve settings: %w", err)
	}
	return resolved, nil
}

func (s *Session) queryViewer(ctx context.Context, cfg config, prelim *settings.Settings, cache *viewer.Cache) viewer.Result {
	mode := prelim.String(settings.Mode)
	if prelim.Bool(settings.Offline) || mode == settings.ModeDisabled {
		s.logger.Debug("skipping viewer query in %s mode", mode)
		cfg.metrics.RecordViewerQuery(ctx, string(viewer.OutcomeSkipped), 0)
		return viewer.Result{Outcome: viewer.OutcomeSkipped}
	}

	q := cfg.querier
	if q == nil {
		baseURL, apiKey := prelim.String(settings.BaseURL), prelim.String(settings.APIKey)
		if apiKey == "" {
			s.logger.Debug("skipping viewer query: no API key")
			cfg.metrics.RecordViewerQuery(ctx, string(viewer.OutcomeSkipped), 0)
			return viewer.Result{Outcome: viewer.OutcomeSkipped}
		}
		s.logger.Debug("querying viewer at %s with key %s", baseURL, observability.SanitizeAPIKey(apiKey))
		q = cfg.querierFactory(baseURL, apiKey)
		if cache != nil {
			q = cache.Wrap(viewer.CacheKey(baseURL, apiKey), q)
		}
	}

	return viewer.QueryWithTimeout(ctx, q, prelim.Duration(settings.ViewerTimeout),
		viewer.WithLogger(s.logger),
		viewer.WithMetrics(cfg.metrics),
		viewer.WithTracer(cfg.tracer),
	)
}

func (s *Session) selectStartMethod(ctx context.Context, cfg config) spawnctx.Context {
	_, span := cfg.tracer.Start(ctx, observability.SpanSelectSpawn)
	defer span.End()

	selected := spawnctx.Select(cfg.platform, s.settings.String(settings.StartMethod), s.logger)
	span.SetAttributes(
		attribute.String(observability.AttrStartMethod, selected.Method),
		attribute.Bool(observability.AttrFallback, selected.Fallback),
	)
	return selected
}

func (s *Session) readConfig(ctx context.Context, cfg config) map[string]any {
	paths := s.settings.StringSlice(settings.ConfigPaths)
	if len(paths) == 0 {
		return map[string]any{}
	}

	_, span := cfg.tracer.Start(ctx, observability.SpanReadConfig)
	defer span.End()

	values, err := configfile.Read(s.settings.String(settings.RootDir), paths...)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.record(ctx, Diagnostic{
			Code:     DiagConfigFileUnreadable,
			Severity: logging.LevelWarn,
			Message:  fmt.Sprintf("config files partly unreadable: %v", err),
		}, true)
	}
	if values == nil {
		values = map[string]any{}
	}
	return values
}

// record keeps diag on the session and optionally logs it.
func (s *Session) record(ctx context.Context, diag Diagnostic, log bool) {
	s.diagnostics = append(s.diagnostics, diag)
	s.metrics.RecordDiagnostic(ctx, diag.Code)
	if log {
		s.logger.LogAttrs(diag.Severity, diag.Message, slog.String("code", diag.Code))
	}
}

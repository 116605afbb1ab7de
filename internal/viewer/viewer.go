// Package viewer fetches the account behind an API key together with the
// feature flags the tracking server wants applied to the session.
package viewer

import (
	"context"
	"errors"
	"maps"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"runtrack/internal/async"
	runerrors "runtrack/internal/errors"
	"runtrack/internal/logging"
	"runtrack/internal/observability"
)

// DefaultTimeout bounds a viewer query when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Outcome describes how a viewer query ended.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeTimeout Outcome = "timeout"
	OutcomeError   Outcome = "error"
	OutcomeSkipped Outcome = "skipped"
)

// Result is what the tracking server knows about the caller. A zero Result
// means no data and is always safe to use.
type Result struct {
	Entity    string
	HasEntity bool
	Flags     map[string]any
	Outcome   Outcome
	// Err is the degraded error behind a timeout or error outcome.
	Err error
}

// Flag returns a single feature flag.
func (r Result) Flag(name string) (any, bool) {
	value, ok := r.Flags[name]
	return value, ok
}

func (r Result) clone() Result {
	r.Flags = maps.Clone(r.Flags)
	return r
}

// Querier performs one viewer query.
type Querier interface {
	Query(ctx context.Context) (Result, error)
}

// QuerierFunc adapts a function to Querier.
type QuerierFunc func(ctx context.Context) (Result, error)

func (f QuerierFunc) Query(ctx context.Context) (Result, error) {
	return f(ctx)
}

// QueryOption customises QueryWithTimeout.
type QueryOption func(*queryOptions)

type queryOptions struct {
	logger  logging.Leveled
	metrics *observability.BootstrapMetrics
	tracer  trace.Tracer
}

// WithLogger sets where failures are reported.
func WithLogger(logger logging.Leveled) QueryOption {
	return func(o *queryOptions) { o.logger = logger }
}

// WithMetrics records the query outcome and latency.
func WithMetrics(metrics *observability.BootstrapMetrics) QueryOption {
	return func(o *queryOptions) { o.metrics = metrics }
}

// WithTracer wraps the query in a span.
func WithTracer(tracer trace.Tracer) QueryOption {
	return func(o *queryOptions) { o.tracer = tracer }
}

// QueryWithTimeout runs q bounded by timeout. It never fails: errors, panics
// and timeouts are logged at warning level and produce a Result without
// entity or flags. A nil querier yields OutcomeSkipped.
func QueryWithTimeout(ctx context.Context, q Querier, timeout time.Duration, opts ...QueryOption) Result {
	options := queryOptions{tracer: noop.NewTracerProvider().Tracer("")}
	for _, opt := range opts {
		opt(&options)
	}
	logger := logging.OrNop(options.logger)

	if q == nil {
		options.metrics.RecordViewerQuery(ctx, string(OutcomeSkipped), 0)
		return Result{Outcome: OutcomeSkipped}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, span := options.tracer.Start(ctx, observability.SpanViewerQuery)
	defer span.End()

	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	result, err := async.Await(queryCtx, logger, "viewer.query", q.Query)
	latency := time.Since(started)

	switch {
	case err == nil:
		result = result.clone()
		result.Outcome = OutcomeOK
		result.Err = nil
	case errors.Is(err, context.DeadlineExceeded) && queryCtx.Err() != nil:
		logger.Warn("viewer query timed out after %s; continuing without remote data", timeout)
		result = Result{Outcome: OutcomeTimeout, Err: runerrors.NewDegraded("viewer", err)}
	default:
		degraded := runerrors.NewDegraded("viewer", err)
		logger.Warn("viewer query failed (%s): %s; continuing without remote data",
			runerrors.GetErrorType(err), runerrors.Describe(err))
		result = Result{Outcome: OutcomeError, Err: degraded}
	}

	span.SetAttributes(attribute.String(observability.AttrViewerOutcome, string(result.Outcome)))
	if result.Err != nil {
		span.SetStatus(codes.Error, result.Err.Error())
	}
	options.metrics.RecordViewerQuery(ctx, string(result.Outcome), latency)
	return result
}

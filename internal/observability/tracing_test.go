package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracerProviderDisabledIsNoop(t *testing.T) {
	tp, err := NewTracerProvider(TracingConfig{Enabled: false})
	require.NoError(t, err)

	_, span := tp.Provider().Tracer("test").Start(context.Background(), SpanSessionSetup)
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTracerProviderRejectsUnknownExporter(t *testing.T) {
	_, err := NewTracerProvider(TracingConfig{Enabled: true, Exporter: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unsupported exporter")
}

func TestNewTracerProviderZipkin(t *testing.T) {
	tp, err := NewTracerProvider(TracingConfig{
		Enabled:        true,
		Exporter:       "zipkin",
		ZipkinEndpoint: "http://127.0.0.1:1/api/v2/spans",
	})
	require.NoError(t, err)
	_, span := tp.Provider().Tracer("test").Start(context.Background(), SpanSessionSetup)
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	// Export to the closed port fails; shutdown still returns.
	_ = tp.Shutdown(context.Background())
}

func TestSessionAttrs(t *testing.T) {
	attrs := SessionAttrs("abc")
	require.Len(t, attrs, 1)
	assert.Equal(t, AttrSessionID, string(attrs[0].Key))
	assert.Equal(t, "abc", attrs[0].Value.AsString())
}

package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

func TestExporterKind(t *testing.T) {
	assert.Equal(t, ExporterStdout, OtelConfig{}.exporterKind())
	assert.Equal(t, ExporterOTLP, OtelConfig{Endpoint: "collector:4318"}.exporterKind())
	assert.Equal(t, ExporterNone, OtelConfig{Exporter: " NONE ", Endpoint: "collector:4318"}.exporterKind())
}

func TestNewSpanExporterRejectsBadConfig(t *testing.T) {
	_, err := newSpanExporter(context.Background(), OtelConfig{Exporter: ExporterOTLP})
	require.Error(t, err)
	_, err = newSpanExporter(context.Background(), OtelConfig{Exporter: "zipkin"})
	require.Error(t, err)

	exp, err := newSpanExporter(context.Background(), OtelConfig{Exporter: ExporterNone})
	require.NoError(t, err)
	assert.Nil(t, exp)
}

func TestTracerProviderRecordsSpans(t *testing.T) {
	ctx := context.Background()
	rec := tracetest.NewInMemoryExporter()
	tp := newTracerProvider(ctx, logger.NewNop(), OtelConfig{ServiceName: "cesizen-test", SampleRatio: 5}, rec)

	_, span := tp.Tracer("test").Start(ctx, "diagnostic.submit")
	span.End()
	require.NoError(t, tp.ForceFlush(ctx))
	require.NoError(t, tp.Shutdown(ctx))

	spans := rec.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "diagnostic.submit", spans[0].Name)
	assert.Equal(t, "cesizen-test", spans[0].Resource.Attributes()[0].Value.AsString())
}

func TestInitOTelDisabled(t *testing.T) {
	shutdown := InitOTel(context.Background(), logger.NewNop(), OtelConfig{})
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}

func TestClampRatio(t *testing.T) {
	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 1.0, clampRatio(3))
	assert.Equal(t, 0.25, clampRatio(0.25))
}

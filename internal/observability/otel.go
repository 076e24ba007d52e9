package observability

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

const (
	ExporterAuto   = ""
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
	ExporterNone   = "none"
)

type OtelConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
	Version     string
	// Exporter is otlp, stdout or none. Empty picks otlp when Endpoint is
	// set and stdout otherwise.
	Exporter    string
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

func (c OtelConfig) exporterKind() string {
	kind := strings.ToLower(strings.TrimSpace(c.Exporter))
	if kind != ExporterAuto {
		return kind
	}
	if strings.TrimSpace(c.Endpoint) != "" {
		return ExporterOTLP
	}
	return ExporterStdout
}

func noopShutdown(context.Context) error { return nil }

// InitOTel installs a global tracer provider and W3C propagators. Failures
// are logged and tracing stays off; the returned shutdown is never nil.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	if !cfg.Enabled {
		return noopShutdown
	}
	exporter, err := newSpanExporter(ctx, cfg)
	if err != nil {
		if log != nil {
			log.Warn("Tracing disabled: exporter init failed", "exporter", cfg.exporterKind(), "error", err)
		}
		return noopShutdown
	}
	tp := newTracerProvider(ctx, log, cfg, exporter)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if log != nil {
		log.Info("Tracing enabled", "exporter", cfg.exporterKind(), "endpoint", cfg.Endpoint, "sample_ratio", clampRatio(cfg.SampleRatio))
	}
	return tp.Shutdown
}

// newTracerProvider batches into exporter when one is given; a nil exporter
// still yields sampled spans, which is enough for trace id propagation.
func newTracerProvider(ctx context.Context, log *logger.Logger, cfg OtelConfig, exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.SampleRatio)))),
	}
	res, err := serviceResource(ctx, cfg)
	if err != nil && log != nil {
		log.Warn("Partial tracing resource", "error", err)
	}
	if res != nil {
		opts = append(opts, sdktrace.WithResource(res))
	}
	if exporter != nil {
		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
	}
	return sdktrace.NewTracerProvider(opts...)
}

func serviceResource(ctx context.Context, cfg OtelConfig) (*resource.Resource, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "cesizen-api"
	}
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(name)}
	if v := strings.TrimSpace(cfg.Version); v != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(v))
	}
	if env := strings.TrimSpace(cfg.Environment); env != "" {
		attrs = append(attrs, attribute.String("deployment.environment", env))
	}
	return resource.New(ctx, resource.WithAttributes(attrs...))
}

func newSpanExporter(ctx context.Context, cfg OtelConfig) (sdktrace.SpanExporter, error) {
	switch kind := cfg.exporterKind(); kind {
	case ExporterNone:
		return nil, nil
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	case ExporterOTLP:
		endpoint := strings.TrimSpace(cfg.Endpoint)
		if endpoint == "" {
			return nil, fmt.Errorf("otlp exporter needs OTEL_EXPORTER_OTLP_ENDPOINT")
		}
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", kind)
	}
}

func clampRatio(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

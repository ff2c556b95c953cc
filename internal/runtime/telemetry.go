package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/loqalabs/loqa-dictate/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"
)

// Stage latencies run from tens of milliseconds (injection) to the recording
// cap, so the default http-style buckets are replaced.
var stageBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30, 60}

// telemetry owns the global providers installed for one runtime.
type telemetry struct {
	meters  *sdkmetric.MeterProvider
	tracer  *sdktrace.TracerProvider
	metrics http.Handler
}

// setupTelemetry installs the global tracer and meter providers. Spans are
// only recorded when telemetry.traces is set; they go to the OTLP endpoint
// when one is configured and to traceOut otherwise. The returned handler
// serves /metrics and is nil when the prometheus exporter failed.
func setupTelemetry(cfg config.Config, traceOut io.Writer, logger *slog.Logger) (func(context.Context) error, http.Handler, error) {
	ctx := context.Background()
	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.RuntimeName),
			attribute.String("deployment.environment", cfg.Environment),
			attribute.String("dictation.mode", cfg.Pipeline.Mode),
			attribute.String("dictation.language", cfg.STT.Language),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	var t telemetry
	if cfg.Telemetry.Traces {
		exporter, err := spanExporter(ctx, cfg.Telemetry, traceOut, logger)
		if err != nil {
			return nil, nil, err
		}
		t.tracer = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(t.tracer)
	}

	t.meters, t.metrics = meterProvider(res, logger)
	otel.SetMeterProvider(t.meters)
	return t.shutdown, t.metrics, nil
}

func (t *telemetry) shutdown(ctx context.Context) error {
	var errs []error
	if err := t.meters.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if t.tracer != nil {
		if err := t.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func spanExporter(ctx context.Context, cfg config.TelemetryConfig, traceOut io.Writer, logger *slog.Logger) (sdktrace.SpanExporter, error) {
	endpoint := strings.TrimSpace(cfg.OTLPEndpoint)
	if endpoint == "" {
		logger.Info("tracing initialized", slog.String("exporter", "stdout"))
		return stdouttrace.New(stdouttrace.WithWriter(traceOut))
	}
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	logger.Info("tracing initialized", slog.String("exporter", "otlp"), slog.String("endpoint", endpoint))
	return otlptracegrpc.New(ctx, opts...)
}

func meterProvider(res *resource.Resource, logger *slog.Logger) (*sdkmetric.MeterProvider, http.Handler) {
	stageView := sdkmetric.NewView(
		sdkmetric.Instrument{Name: "dictation.stage.duration"},
		sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: stageBuckets}},
	)
	promExporter, err := prometheus.New()
	if err != nil {
		logger.Warn("failed to initialize prometheus exporter", slogError(err))
		return sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithView(stageView)), nil
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
		sdkmetric.WithView(stageView),
	)
	return provider, promhttp.Handler()
}

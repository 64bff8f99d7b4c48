package observability

import (
	"context"
	"fmt"
	"net/http"

	"hbnb/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts every HBnB span. It is a no-op until InitTracing enables it.
var Tracer trace.Tracer = otel.Tracer("hbnb-api")

// TracingConfig selects the exporter and labels the emitted spans.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	StorageBackend string
	Enabled        bool
	Exporter       string // stdout or otlp
	OTLPEndpoint   string
	// SamplerRatio applies to root spans; zero means sample everything.
	SamplerRatio float64
}

// InitTracing installs the global tracer provider and returns its shutdown func.
func InitTracing(cfg TracingConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		Tracer = otel.Tracer(cfg.ServiceName)
		return func(context.Context) error { return nil }, nil
	}

	ctx := context.Background()
	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
		attribute.String("hbnb.storage", cfg.StorageBackend),
	))
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SamplerRatio > 0 && cfg.SamplerRatio < 1 {
		sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplerRatio))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	Tracer = tp.Tracer(cfg.ServiceName)
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "", "stdout":
		return stdouttrace.New()
	case "otlp":
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.OTLPEndpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", cfg.Exporter)
	}
}

// StartFacadeSpan starts a span for a facade operation on a record kind.
// id is omitted from the span when empty.
func StartFacadeSpan(ctx context.Context, operation, kind, id string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("hbnb.kind", kind)}
	if id != "" {
		attrs = append(attrs, attribute.String("hbnb.id", id))
	}
	return Tracer.Start(ctx, "facade."+operation+" "+kind,
		trace.WithSpanKind(trace.SpanKindInternal), trace.WithAttributes(attrs...))
}

// EndSpan ends span. Only errors that would surface as a 5xx mark the span
// failed; not-found and validation outcomes are recorded as events.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if models.StatusCode(err) >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}

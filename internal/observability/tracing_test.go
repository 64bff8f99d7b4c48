package observability

import (
	"context"
	"errors"
	"testing"

	"hbnb/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() {
		Tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestFacadeSpans(t *testing.T) {
	sr := recordSpans(t)
	ctx := context.Background()

	_, span := StartFacadeSpan(ctx, "create", "place", "")
	EndSpan(span, nil)
	_, span = StartFacadeSpan(ctx, "update", "place", "p-1")
	EndSpan(span, models.NewNotFoundError("Place"))
	_, span = StartFacadeSpan(ctx, "delete", "user", "u-1")
	EndSpan(span, models.NewInternalError(errors.New("disk full")))

	ended := sr.Ended()
	require.Len(t, ended, 3)

	assert.Equal(t, "facade.create place", ended[0].Name())
	assert.Equal(t, []attribute.KeyValue{attribute.String("hbnb.kind", "place")}, ended[0].Attributes())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)

	assert.Contains(t, ended[1].Attributes(), attribute.String("hbnb.id", "p-1"))
	assert.Equal(t, codes.Unset, ended[1].Status().Code, "not found is an expected outcome")
	assert.Len(t, ended[1].Events(), 1)

	assert.Equal(t, codes.Error, ended[2].Status().Code)
}

func TestInitTracing(t *testing.T) {
	prev := Tracer
	t.Cleanup(func() { Tracer = prev })

	shutdown, err := InitTracing(TracingConfig{ServiceName: "hbnb-test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, err = InitTracing(TracingConfig{ServiceName: "hbnb-test", Enabled: true, Exporter: "zipkin"})
	assert.Error(t, err)

	shutdown, err = InitTracing(TracingConfig{ServiceName: "hbnb-test", Enabled: true, Exporter: "stdout", StorageBackend: "memory"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

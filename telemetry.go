package audiosweep

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/ermos/audiosweep"

// InitTracing configures the global tracer provider. Spans go to the OTLP/HTTP
// endpoint when one is given (or set through OTEL_EXPORTER_OTLP_ENDPOINT) and
// are discarded otherwise. The returned function flushes pending spans.
func InitTracing(ctx context.Context, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res := resource.NewSchemaless(
		semconv.ServiceName("audiosweep"),
		semconv.ServiceVersion(serviceVersion),
	)

	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	if endpoint != "" {
		exporter, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(io.Discard))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

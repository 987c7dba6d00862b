// Package otel wires opt-in OpenTelemetry tracing for linkup processes.
package otel

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	endpointEnv = "LINKUP_OTEL_ENDPOINT"
	enabledEnv  = "LINKUP_OTEL_ENABLED"
)

// ShutdownFunc flushes buffered spans. Callers defer it for the process
// lifetime.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// enabled reports whether tracing should be wired, and the collector
// endpoint when it should. Tracing stays off unless an endpoint is set, and
// LINKUP_OTEL_ENABLED=false forces it off even with one.
func enabled() (string, bool) {
	if strings.EqualFold(os.Getenv(enabledEnv), "false") {
		return "", false
	}
	endpoint := strings.TrimSpace(os.Getenv(endpointEnv))
	return endpoint, endpoint != ""
}

// Setup registers a global OTLP/HTTP tracer provider for the service when
// tracing is enabled. When it is not, Setup succeeds with a no-op shutdown
// so callers never branch on telemetry state.
func Setup(ctx context.Context, serviceName string) (ShutdownFunc, error) {
	endpoint, ok := enabled()
	if !ok {
		return noopShutdown, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noopShutdown, fmt.Errorf("create otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noopShutdown, fmt.Errorf("build otel resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return provider.Shutdown, nil
}

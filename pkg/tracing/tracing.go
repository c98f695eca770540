// Package tracing installs an OpenTelemetry tracer provider and exposes the
// tracer used around workflow operations. When tracing is disabled the global
// no-op provider stays in place and spans cost nothing.
package tracing

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/jobdrop-api/pkg/config"
)

const instrumentationName = "github.com/noah-isme/jobdrop-api"

// Shutdown flushes and stops the provider.
type Shutdown func(context.Context) error

// Init configures the global provider with the stdout exporter writing to
// cfg.Output (stdout when empty).
func Init(ctx context.Context, serviceName string, cfg config.TracingConfig) (Shutdown, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	if cfg.Output == "" {
		return initWriter(ctx, serviceName, os.Stdout)
	}
	f, err := os.Create(cfg.Output)
	if err != nil {
		return nil, err
	}
	shutdown, err := initWriter(ctx, serviceName, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return closeAfter(shutdown, f), nil
}

func initWriter(ctx context.Context, serviceName string, w io.Writer) (Shutdown, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, err
	}
	return InitWithExporter(ctx, serviceName, exporter)
}

// closeAfter closes c once shutdown has flushed the provider.
func closeAfter(shutdown Shutdown, c io.Closer) Shutdown {
	return func(ctx context.Context) error {
		err := shutdown(ctx)
		if cerr := c.Close(); err == nil {
			err = cerr
		}
		return err
	}
}

// InitWithExporter installs a provider around any span exporter.
func InitWithExporter(ctx context.Context, serviceName string, exporter sdktrace.SpanExporter) (Shutdown, error) {
	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", serviceName)))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Tracer returns the package tracer from the current global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Start opens a span with string attributes.
func Start(ctx context.Context, name string, attrs map[string]string) (context.Context, trace.Span) {
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		kvs = append(kvs, attribute.String(k, v))
	}
	return Tracer().Start(ctx, name, trace.WithAttributes(kvs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

package apm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

type Provider string

const (
	ZipkinProvider   Provider = "zipkin"
	ConsoleProvider  Provider = "console"
	OTLPGRPCProvider Provider = "otlp-grpc"
	OTLPHTTPProvider Provider = "otlp-http"
	EmptyProvider    Provider = "empty"
)

type TraceProvider interface {
	Stop() error
}

// Settings configure exporter endpoints.
type Settings struct {
	ServiceName string
	Endpoint    string
	Headers     string // key=value
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

// NewEmptyTraceProvider leaves the global no-op tracer in place.
func NewEmptyTraceProvider() TraceProvider {
	return emptyTraceProvider{}
}

func newExporter(provider Provider, s Settings) (sdktrace.SpanExporter, error) {
	ctx := context.Background()

	switch provider {
	case ConsoleProvider:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ZipkinProvider:
		return zipkin.New(s.Endpoint)
	case OTLPGRPCProvider:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpointURL(s.Endpoint)}
		if h, err := parseHeaders(s.Headers); err != nil {
			return nil, err
		} else if h != nil {
			opts = append(opts, otlptracegrpc.WithHeaders(h))
		}
		return otlptracegrpc.New(ctx, opts...)
	case OTLPHTTPProvider:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(s.Endpoint)}
		if h, err := parseHeaders(s.Headers); err != nil {
			return nil, err
		} else if h != nil {
			opts = append(opts, otlptracehttp.WithHeaders(h))
		}
		return otlptracehttp.New(ctx, opts...)
	}
	return nil, fmt.Errorf("apm: unknown trace provider %q", provider)
}

func parseHeaders(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	kv := strings.SplitN(raw, "=", 2)
	if len(kv) != 2 {
		return nil, fmt.Errorf("apm: invalid headers %q, expected key=value", raw)
	}
	return map[string]string{kv[0]: kv[1]}, nil
}

// NewTraceProvider installs a global tracer provider exporting through
// provider. EmptyProvider, or an unknown one, yields a no-op provider.
func NewTraceProvider(log logger.LoggerInterface, provider Provider, s Settings) (TraceProvider, error) {
	if provider == EmptyProvider || provider == "" {
		return NewEmptyTraceProvider(), nil
	}

	exp, err := newExporter(provider, s)
	if err != nil {
		log.Warn(context.Background(), "trace exporter unavailable, tracing disabled",
			"provider", string(provider), "error", err)
		return NewEmptyTraceProvider(), err
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(s.ServiceName),
			attribute.String("otel.provider", string(provider)),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(context.Background(), "tracing enabled", "provider", string(provider))

	return &traceProvider{tp}, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	return o.tp.Shutdown(ctx)
}

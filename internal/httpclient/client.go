// Package httpclient is an OTEL-instrumented HTTP client for JSON APIs.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "instrumented_http_client"
	defaultTimeout      = 30 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// WithName labels spans and metrics, e.g. with the upstream service.
func WithName(name string) Option {
	return func(c *Client) { c.name = name }
}

// WithTimeout bounds each request including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRoundTripper replaces the base transport, e.g. in tests.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// StatusError is returned for responses with a 4xx or 5xx status.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = append(body[:200:200], "..."...)
	}
	return http.StatusText(e.Status) + ": " + string(body)
}

// Client posts JSON and decodes JSON responses. Every call is traced and
// counted by outcome.
type Client struct {
	name     string
	http     *http.Client
	base     http.RoundTripper
	tracer   trace.Tracer
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		name: "default",
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}

	if c.base == nil {
		c.base = &http.Transport{
			DialContext:           (&net.Dialer{KeepAlive: 10 * time.Second}).DialContext,
			MaxConnsPerHost:       8,
			IdleConnTimeout:       2 * time.Minute,
			ExpectContinueTimeout: 100 * time.Millisecond,
		}
	}
	c.http.Transport = otelhttp.NewTransport(c.base,
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
	)

	meter := otel.Meter(instrumentationName,
		metric.WithInstrumentationAttributes(attribute.String("client", c.name)))
	var err error
	if c.requests, err = meter.Int64Counter(
		"http_client_requests_total",
		metric.WithDescription("HTTP requests by outcome"),
	); err != nil {
		return nil, err
	}
	if c.latency, err = meter.Float64Histogram(
		"http_client_request_duration_ms",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	c.tracer = otel.Tracer(instrumentationName)

	return c, nil
}

func (c *Client) Name() string { return c.name }

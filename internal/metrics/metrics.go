// Package metrics installs the global OTEL MeterProvider and the optional
// Prometheus scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/SimpleFi-finance/defi-analytics/internal/logger"
)

// Exporter selects where metrics go.
type Exporter string

const (
	Prometheus Exporter = "prometheus"
	OTLP       Exporter = "otlp"
)

// Settings configure Setup.
type Settings struct {
	ServiceName string
	Exporter    Exporter

	// Endpoint and Headers apply to OTLP. Headers is "k=v,k2=v2".
	Endpoint string
	Headers  string
	Insecure bool

	// PrometheusPort serves /metrics when Exporter is Prometheus.
	PrometheusPort int
}

// Provider is the installed meter provider.
type Provider struct {
	mp  *sdkmetric.MeterProvider
	srv *http.Server
}

// Setup builds a MeterProvider for s, installs it globally and, for the
// Prometheus exporter, starts serving /metrics.
func Setup(ctx context.Context, s Settings, log logger.LoggerInterface) (*Provider, error) {
	reader, err := newReader(ctx, s)
	if err != nil {
		return nil, err
	}

	opts := []sdkmetric.Option{sdkmetric.WithReader(reader)}
	if s.ServiceName != "" {
		opts = append(opts, sdkmetric.WithResource(
			resource.NewSchemaless(semconv.ServiceNameKey.String(s.ServiceName))))
	}
	p := &Provider{mp: sdkmetric.NewMeterProvider(opts...)}
	otel.SetMeterProvider(p.mp)

	if s.Exporter == Prometheus && s.PrometheusPort > 0 {
		if err := p.serve(s.PrometheusPort, log); err != nil {
			p.mp.Shutdown(ctx)
			return nil, err
		}
	}
	return p, nil
}

func newReader(ctx context.Context, s Settings) (sdkmetric.Reader, error) {
	switch s.Exporter {
	case Prometheus, "":
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		return exp, nil
	case OTLP:
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpointURL(s.Endpoint)}
		if h := ParseHeaders(s.Headers); len(h) > 0 {
			opts = append(opts, otlpmetricgrpc.WithHeaders(h))
		}
		if s.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	}
	return nil, fmt.Errorf("unknown metrics exporter %q", s.Exporter)
}

func (p *Provider) serve(port int, log logger.LoggerInterface) error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	p.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := p.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(context.Background(), "metrics server stopped", "error", err)
		}
	}()
	log.Info(context.Background(), "serving metrics", "addr", ln.Addr().String(), "path", "/metrics")
	return nil
}

// Shutdown stops the scrape endpoint and flushes pending exports.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.srv != nil {
		errs = append(errs, p.srv.Shutdown(ctx))
	}
	errs = append(errs, p.mp.Shutdown(ctx))
	return errors.Join(errs...)
}

// ParseHeaders splits "k=v,k2=v2" into a map. Malformed pairs are ignored.
func ParseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	for _, kv := range strings.Split(raw, ",") {
		if k, v, ok := strings.Cut(kv, "="); ok {
			headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return headers
}

// Package metrics configures the OpenTelemetry meter provider. Prometheus is
// the primary exporter; an OTLP push reader can be added alongside it.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// MeterProvider creates meters and can be shut down on exit.
type MeterProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

type options struct {
	serviceName  string
	otlpEndpoint string
	otlpHeaders  map[string]string
	otlpInsecure bool
}

// Option configures the meter provider.
type Option func(*options)

// WithServiceName attaches the service name resource attribute.
func WithServiceName(name string) Option {
	return func(o *options) {
		o.serviceName = name
	}
}

// WithOTLPExporter adds a gRPC OTLP push reader next to the Prometheus pull
// exporter.
func WithOTLPExporter(endpoint string, headers map[string]string, insecure bool) Option {
	return func(o *options) {
		o.otlpEndpoint = endpoint
		o.otlpHeaders = headers
		o.otlpInsecure = insecure
	}
}

// NewMeterProvider builds the meter provider and registers it globally.
func NewMeterProvider(opts ...Option) (MeterProvider, error) {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	providerOpts := []sdkmetric.Option{sdkmetric.WithReader(promExporter)}

	if cfg.otlpEndpoint != "" {
		grpcOpts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpointURL(cfg.otlpEndpoint),
			otlpmetricgrpc.WithHeaders(cfg.otlpHeaders),
		}
		if cfg.otlpInsecure {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
		}

		exp, err := otlpmetricgrpc.New(context.Background(), grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
		}
		providerOpts = append(providerOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	}

	serviceName := cfg.serviceName
	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}
	providerOpts = append(providerOpts, sdkmetric.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName)),
	))

	meterProvider := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(meterProvider)

	return meterProvider, nil
}

// ServeMetrics serves the Prometheus scrape endpoint at /metrics. It blocks
// until the listener fails.
func ServeMetrics(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server.ListenAndServe()
}

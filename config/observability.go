package config

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule/oteladapters"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule/promadapters"
)

// Telemetry holds the providers the rule and the catalog report through:
// OpenTelemetry traces and Prometheus metrics on a private registry.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	Registry       *prometheus.Registry
	Metrics        *promadapters.MetricsCollector
	Resource       *resource.Resource
}

// NewTelemetry creates the providers for serviceName. Finished spans go synchronously to exporters.
func NewTelemetry(ctx context.Context, serviceName, serviceVersion string, exporters ...sdktrace.SpanExporter) (*Telemetry, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	options := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	for _, exporter := range exporters {
		options = append(options, sdktrace.WithSyncer(exporter))
	}

	registry := prometheus.NewRegistry()

	return &Telemetry{
		TracerProvider: sdktrace.NewTracerProvider(options...),
		Registry:       registry,
		Metrics:        promadapters.NewMetricsCollector(registry),
		Resource:       res,
	}, nil
}

// TracingCollector returns a collector creating spans with the tracer called name.
func (t *Telemetry) TracingCollector(name string) *oteladapters.TracingCollector {
	return oteladapters.NewTracingCollector(t.TracerProvider.Tracer(name))
}

// WriteMetrics writes all collected metrics in the Prometheus text format.
func (t *Telemetry) WriteMetrics(w io.Writer) error {
	families, err := t.Registry.Gather()
	if err != nil {
		return err
	}

	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
			return err
		}
	}

	return nil
}

// Shutdown flushes and stops the tracer provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.TracerProvider.Shutdown(ctx)
}

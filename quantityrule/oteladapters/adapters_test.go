package oteladapters_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AntonStoeckl/minquantity-rule/example/salesdoc"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule/catalogengine"
	"github.com/AntonStoeckl/minquantity-rule/quantityrule/oteladapters"
	"github.com/AntonStoeckl/minquantity-rule/testutil/catalogtest"
)

func newMeter() (metric.Meter, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return provider.Meter("test"), reader
}

func newTracer() (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()

	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)), exporter
}

func Test_Handler_WithOpenTelemetry_ShouldEmitSpansAndMetrics(t *testing.T) {
	// arrange
	meter, reader := newMeter()
	provider, exporter := newTracer()
	metrics := oteladapters.NewMetricsCollector(meter)
	tracing := oteladapters.NewTracingCollector(provider.Tracer("test"))

	catalog, db := catalogtest.NewSQLiteCatalog(t, catalogengine.WithMetrics(metrics), catalogengine.WithTracing(tracing))
	catalogtest.GivenArticleWithRawRule(t, db, catalogengine.DialectSQLite, "A100", "2,5")

	handler, err := quantityrule.NewHandler(
		salesdoc.NewEditor(salesdoc.NewDocument(salesdoc.NewLine("A100", 0))),
		catalog,
		quantityrule.Policy{ForceAlways: true},
		quantityrule.WithMetrics(metrics),
		quantityrule.WithTracing(tracing),
	)
	require.NoError(t, err)

	// act
	outcome := handler.ArticleIdentified(context.Background(), quantityrule.ArticleIdentifiedEvent{
		Article:  "A100",
		Metadata: quantityrule.EventMetadata{CorrelationID: "doc-1"},
	})

	// assert
	assert.Equal(t, quantityrule.OutcomeQuantityOverwritten, outcome)

	spans := exporter.GetSpans()
	rule := findSpan(t, spans, "minqty.article_identified")
	lookup := findSpan(t, spans, "minqty.catalog.lookup")
	assert.Equal(t, rule.SpanContext.SpanID(), lookup.Parent.SpanID(), "the lookup runs inside the rule's span")
	assert.Equal(t, codes.Ok, rule.Status.Code)
	assertSpanHasAttribute(t, rule, "minqty.article", "A100")
	assertSpanHasAttribute(t, rule, "minqty.correlation_id", "doc-1")
	assertSpanHasAttribute(t, rule, "minqty.outcome", "quantity_overwritten")

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	counter := findCounterMetric(t, resourceMetrics, "minqty_rule_evaluations_total")
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(1), counter.DataPoints[0].Value)
	outcomeLabel, ok := counter.DataPoints[0].Attributes.Value("outcome")
	require.True(t, ok)
	assert.Equal(t, "quantity_overwritten", outcomeLabel.AsString())

	assert.Len(t, findHistogramMetric(t, resourceMetrics, "minqty_rule_duration_seconds").DataPoints, 1)
	assert.NotEmpty(t, findHistogramMetric(t, resourceMetrics, "minqty_catalog_query_duration_seconds").DataPoints)

	gauge := findGaugeMetric(t, resourceMetrics, "minqty_rule_threshold_applied")
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 2.5, gauge.DataPoints[0].Value)
}

func Test_MetricsCollector_ShouldReuseInstruments(t *testing.T) {
	// arrange
	meter, reader := newMeter()
	collector := oteladapters.NewMetricsCollector(meter)
	labels := map[string]string{"outcome": "no_line"}

	// act
	collector.IncrementCounter("minqty_rule_evaluations_total", labels)
	collector.IncrementCounterContext(context.Background(), "minqty_rule_evaluations_total", labels)
	collector.RecordDuration("minqty_rule_duration_seconds", 150*time.Millisecond, labels)

	// assert
	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	counter := findCounterMetric(t, resourceMetrics, "minqty_rule_evaluations_total")
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(2), counter.DataPoints[0].Value)

	histogram := findHistogramMetric(t, resourceMetrics, "minqty_rule_duration_seconds")
	require.Len(t, histogram.DataPoints, 1)
	assert.InDelta(t, 0.15, histogram.DataPoints[0].Sum, 0.001)
}

func Test_MetricsCollector_ShouldDropMeasurements_WhenInstrumentCreationFails(t *testing.T) {
	meter, _ := newMeter()
	collector := oteladapters.NewMetricsCollector(&failingMeter{Meter: meter})
	ctx := context.Background()

	assert.NotPanics(t, func() {
		collector.RecordDuration("minqty_rule_duration_seconds", time.Millisecond, nil)
		collector.IncrementCounter("minqty_rule_evaluations_total", nil)
		collector.RecordValue("minqty_rule_threshold_applied", 1, nil)
		collector.RecordDurationContext(ctx, "minqty_rule_duration_seconds", time.Millisecond, nil)
		collector.IncrementCounterContext(ctx, "minqty_rule_evaluations_total", nil)
		collector.RecordValueContext(ctx, "minqty_rule_threshold_applied", 1, nil)
	})
}

func Test_TracingCollector_StatusMapping(t *testing.T) {
	testCases := []struct {
		status       string
		expectedCode codes.Code
	}{
		{status: "success", expectedCode: codes.Ok},
		{status: "ok", expectedCode: codes.Ok},
		{status: "error", expectedCode: codes.Error},
		{status: "skipped", expectedCode: codes.Unset},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			// arrange
			provider, exporter := newTracer()
			collector := oteladapters.NewTracingCollector(provider.Tracer("test"))

			// act
			_, span := collector.StartSpan(context.Background(), "minqty.article_identified", nil)
			collector.FinishSpan(span, tc.status, map[string]string{"minqty.outcome": "no_line"})

			// assert
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)
			assertSpanHasAttribute(t, spans[0], "minqty.outcome", "no_line")
		})
	}
}

func Test_TracingCollector_ShouldIgnoreForeignSpanContexts(t *testing.T) {
	provider, exporter := newTracer()
	collector := oteladapters.NewTracingCollector(provider.Tracer("test"))

	assert.NotPanics(t, func() {
		collector.FinishSpan(foreignSpanContext{}, "success", nil)
	})
	assert.Empty(t, exporter.GetSpans())
}

func Test_SlogBridgeLogger_WithHandler_ShouldWriteAllLevels(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	// act
	logger.DebugContext(ctx, "minimum quantity resolved", "threshold", 2.5)
	logger.InfoContext(ctx, "line quantity overwritten", "article", "A100")
	logger.WarnContext(ctx, "minimum quantity lookup failed")
	logger.ErrorContext(ctx, "assigning line quantity failed")

	// assert
	output := buf.String()
	assert.Contains(t, output, `"threshold":2.5`)
	assert.Contains(t, output, `"article":"A100"`)
	assert.Contains(t, output, `"level":"DEBUG"`)
	assert.Contains(t, output, `"level":"INFO"`)
	assert.Contains(t, output, `"level":"WARN"`)
	assert.Contains(t, output, `"level":"ERROR"`)
}

func Test_OTelLogger_ShouldAcceptAnyArguments(t *testing.T) {
	logger := oteladapters.NewOTelLogger(noop.NewLoggerProvider().Logger("test"))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		logger.DebugContext(ctx, "minimum quantity resolved", "threshold", 2.5, "line_index", 3)
		logger.InfoContext(ctx, "line quantity overwritten", "force_always", true, "article")
		logger.WarnContext(ctx, "minimum quantity lookup failed", 42, "not a key")
		logger.ErrorContext(ctx, "assigning line quantity failed", "error", errors.New("locked"))
	})
}

type failingMeter struct {
	metric.Meter
}

func (m *failingMeter) Float64Histogram(string, ...metric.Float64HistogramOption) (metric.Float64Histogram, error) {
	return nil, errors.New("histogram creation failed")
}

func (m *failingMeter) Int64Counter(string, ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return nil, errors.New("counter creation failed")
}

func (m *failingMeter) Float64Gauge(string, ...metric.Float64GaugeOption) (metric.Float64Gauge, error) {
	return nil, errors.New("gauge creation failed")
}

type foreignSpanContext struct{}

func (foreignSpanContext) SetStatus(string)            {}
func (foreignSpanContext) AddAttribute(string, string) {}

func findSpan(t *testing.T, spans tracetest.SpanStubs, name string) tracetest.SpanStub {
	t.Helper()

	for _, span := range spans {
		if span.Name == name {
			return span
		}
	}

	t.Fatalf("span %s not found", name)

	return tracetest.SpanStub{}
}

func assertSpanHasAttribute(t *testing.T, span tracetest.SpanStub, key, expectedValue string) {
	t.Helper()

	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) {
			assert.Equal(t, expectedValue, attr.Value.AsString())
			return
		}
	}

	t.Errorf("attribute %s not found on span %s", key, span.Name)
}

func findHistogramMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) *metricdata.Histogram[float64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok && m.Name == name {
				return &h
			}
		}
	}

	t.Fatalf("histogram metric %s not found", name)

	return nil
}

func findCounterMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) *metricdata.Sum[int64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if c, ok := m.Data.(metricdata.Sum[int64]); ok && m.Name == name {
				return &c
			}
		}
	}

	t.Fatalf("counter metric %s not found", name)

	return nil
}

func findGaugeMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) *metricdata.Gauge[float64] {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if g, ok := m.Data.(metricdata.Gauge[float64]); ok && m.Name == name {
				return &g
			}
		}
	}

	t.Fatalf("gauge metric %s not found", name)

	return nil
}

// Package promadapters provides a Prometheus implementation of quantityrule.MetricsCollector.
package promadapters

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

const (
	metricRuleEvaluations  = "minqty_rule_evaluations_total"
	metricRuleDuration     = "minqty_rule_duration_seconds"
	metricThresholdApplied = "minqty_rule_threshold_applied"
	metricCatalogDuration  = "minqty_catalog_query_duration_seconds"
	metricCatalogErrors    = "minqty_catalog_errors_total"
	metricCatalogRetries   = "minqty_catalog_write_retries_total"
	labelOutcome           = "outcome"
	labelOperation         = "operation"
	labelStatus            = "status"
	labelErrorType         = "error_type"
	labelAttempt           = "attempt_number"
)

var durationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// MetricsCollector records the rule and catalog metrics as Prometheus collectors.
// Metric names it does not know and label sets that do not match are dropped.
type MetricsCollector struct {
	RuleEvaluations  *prometheus.CounterVec
	RuleDuration     *prometheus.HistogramVec
	ThresholdApplied prometheus.Gauge
	CatalogDuration  *prometheus.HistogramVec
	CatalogErrors    *prometheus.CounterVec
	CatalogRetries   *prometheus.CounterVec
}

// NewMetricsCollector creates the collectors and registers them with registerer.
// Registering twice with the same registerer panics; a nil registerer registers nothing.
func NewMetricsCollector(registerer prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(registerer)

	return &MetricsCollector{
		RuleEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: metricRuleEvaluations,
			Help: "Total number of article-identified events handled, by outcome",
		}, []string{labelOutcome}),
		RuleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricRuleDuration,
			Help:    "Duration of the minimum-quantity rule per event, by outcome",
			Buckets: durationBuckets,
		}, []string{labelOutcome}),
		ThresholdApplied: factory.NewGauge(prometheus.GaugeOpts{
			Name: metricThresholdApplied,
			Help: "Minimum quantity most recently written to a sales line",
		}),
		CatalogDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricCatalogDuration,
			Help:    "Duration of article catalog operations",
			Buckets: durationBuckets,
		}, []string{labelOperation, labelStatus}),
		CatalogErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: metricCatalogErrors,
			Help: "Total number of failed article catalog operations",
		}, []string{labelOperation, labelStatus, labelErrorType}),
		CatalogRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: metricCatalogRetries,
			Help: "Total number of catalog writes repeated after a concurrent insert",
		}, []string{labelOperation, labelAttempt}),
	}
}

// RecordDuration observes duration in seconds.
func (m *MetricsCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	var vec *prometheus.HistogramVec

	switch metric {
	case metricRuleDuration:
		vec = m.RuleDuration
	case metricCatalogDuration:
		vec = m.CatalogDuration
	default:
		return
	}

	observer, err := vec.GetMetricWith(labels)
	if err != nil {
		return
	}

	observer.Observe(duration.Seconds())
}

// IncrementCounter adds one to the counter.
func (m *MetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	var vec *prometheus.CounterVec

	switch metric {
	case metricRuleEvaluations:
		vec = m.RuleEvaluations
	case metricCatalogErrors:
		vec = m.CatalogErrors
	case metricCatalogRetries:
		vec = m.CatalogRetries
	default:
		return
	}

	counter, err := vec.GetMetricWith(labels)
	if err != nil {
		return
	}

	counter.Inc()
}

// RecordValue sets the gauge.
func (m *MetricsCollector) RecordValue(metric string, value float64, _ map[string]string) {
	if metric == metricThresholdApplied {
		m.ThresholdApplied.Set(value)
	}
}

var _ quantityrule.MetricsCollector = (*MetricsCollector)(nil)

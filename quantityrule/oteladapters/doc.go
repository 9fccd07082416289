// Package oteladapters provides OpenTelemetry implementations of the quantityrule observability
// interfaces, for hosts that already run an OpenTelemetry pipeline.
//
//	handler, err := quantityrule.NewHandler(editor, catalog, policy,
//		quantityrule.WithContextualLogger(oteladapters.NewSlogBridgeLogger("minqty")),
//		quantityrule.WithMetrics(oteladapters.NewMetricsCollector(otel.Meter("minqty"))),
//		quantityrule.WithTracing(oteladapters.NewTracingCollector(otel.Tracer("minqty"))),
//	)
package oteladapters

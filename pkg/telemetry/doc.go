// Package telemetry exports engine activity as Prometheus metrics and
// OpenTelemetry spans.
//
// Metrics implements reactive.Observer, so installing it with
// reactive.SetObserver records effect runs and flushes. Patch, diff and
// apply metrics are recorded by the Root that owns the Metrics.
//
//	reg := prometheus.NewRegistry()
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	reactive.SetObserver(m)
//	root := reconcile.New(h, container, reconcile.WithMetrics(m))
package telemetry

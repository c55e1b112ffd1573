/*
Package observability turns engine lifecycle hooks into Prometheus metrics and structured logs.

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	hooks := observability.Combine(metrics.Hooks(), observability.LoggingHooks(logger))
*/
package observability

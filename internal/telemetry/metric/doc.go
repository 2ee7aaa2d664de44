// Package metric provides Prometheus metrics for the session daemon.
//
//   - prometheus.go: registry, HTTP handler and the SessionMetrics set
//   - collector.go: scrape-time collector reporting stored session counts
//
// All SessionMetrics methods are safe to call on a nil receiver so the
// service layer can run without metrics wired.
//
// Metrics are exposed at /metrics in Prometheus format.
package metric

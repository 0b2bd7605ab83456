// Package metric provides Prometheus metrics for the NDAify client.
//
// Metrics include:
//
//   - API request counts by operation and outcome, and latency histograms
//   - Cache hit/miss counters
//   - Router navigation and stale-result counters
//
// The interactive shell can expose them at /metrics (shell.metrics_addr).
package metric

// Package metrics provides the centralized Prometheus metrics registry for
// sherpa-sync. All metrics are defined in their respective packages (soap,
// state, health, sync) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by sherpa-sync.
// All metrics are automatically registered via promauto in their respective
// packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/soap):
//   - sherpa_requests_total{operation, status} (Counter): Total requests by operation and HTTP status
//   - sherpa_request_duration_seconds{operation} (Histogram): Request duration by operation
//   - sherpa_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/soap):
//   - sherpa_retries_total{error_class} (Counter): Retry attempts by error class
//   - sherpa_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - sherpa_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Health Metrics (pkg/health):
//   - sherpa_consecutive_failures (Gauge): Consecutive request failures observed
//   - sherpa_health_blocks_total (Counter): Requests blocked due to critical service health
//   - sherpa_health_throttles_total (Counter): Requests throttled due to degraded service health
//
// Bookmark Metrics (pkg/state):
//   - sherpa_bookmark_reads_total{result} (Counter): Bookmark reads by result (hit, miss)
//   - sherpa_bookmark_commits_total{stream} (Counter): Bookmark commits by stream
//   - sherpa_bookmark_errors_total{operation} (Counter): Bookmark store errors by operation
//
// Sync Metrics (pkg/sync):
//   - sherpa_records_emitted_total{stream} (Counter): Records emitted by stream
//   - sherpa_stream_syncs_total{stream, status} (Counter): Stream sync runs by outcome
//   - sherpa_sync_duration_seconds{stream} (Histogram): Stream sync duration
//   - sherpa_child_dispatches_total{stream} (Counter): Child fetches dispatched by parent stream
//   - sherpa_child_suppressed_total{stream} (Counter): Duplicate child fetches suppressed
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(sherpa_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(sherpa_request_duration_seconds_bucket[5m]))
//
//   # Child Dedup Effectiveness
//   rate(sherpa_child_suppressed_total[5m]) /
//   (rate(sherpa_child_dispatches_total[5m]) + rate(sherpa_child_suppressed_total[5m]))
//
//   # Service Health
//   sherpa_consecutive_failures > 3

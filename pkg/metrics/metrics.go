// Package metrics exposes the Prometheus registry used by the client
// packages. Metrics are defined next to the code that records them
// (client, cache, ratelimit, pagination) and registered via promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registerer all client metrics land in.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads back what Registry collected.
var Gatherer = prometheus.DefaultGatherer

// Handler serves every registered metric in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Aggregation Metrics (pkg/pagination):
//   - tmai_aggregator_chunks_total{endpoint, status} (Counter): Windows requested, status success or error
//   - tmai_aggregator_fetch_duration_seconds{endpoint} (Histogram): Full aggregation duration
//   - tmai_aggregator_items{endpoint} (Histogram): Items per aggregated result
//
// Quota Metrics (pkg/ratelimit):
//   - tmai_quota_remaining{namespace} (Gauge): Requests left in the provider window
//   - tmai_quota_blocks_total{namespace} (Counter): Requests blocked at critical quota
//   - tmai_quota_throttles_total{namespace} (Counter): Requests delayed at low quota
//
// Cache Metrics (pkg/cache):
//   - tmai_cache_hits_total{layer="redis"} (Counter)
//   - tmai_cache_misses_total (Counter)
//   - tmai_cache_size_bytes{layer="redis"} (Gauge)
//   - tmai_conditional_requests_total (Counter)
//   - tmai_304_responses_total (Counter)
//   - tmai_cache_purged_keys_total{namespace} (Counter)
//   - tmai_cache_errors_total{operation} (Counter)
//
// Request Metrics (pkg/client):
//   - tmai_requests_total{endpoint, status} (Counter)
//   - tmai_request_duration_seconds{endpoint} (Histogram)
//   - tmai_errors_total{class} (Counter): client, server, rate_limit, network
//
// Retry Metrics (pkg/client):
//   - tmai_retries_total{error_class} (Counter)
//   - tmai_retry_backoff_seconds{error_class} (Histogram)
//   - tmai_retry_exhausted_total{error_class} (Counter)
//
// Search Metrics (pkg/masa):
//   - tmai_search_jobs_total{outcome} (Counter): done, failed, cancelled, timeout
//   - tmai_search_job_polls (Histogram): Status checks per job
//
// Example Prometheus Queries:
//
//	# Failed chunk ratio
//	sum(rate(tmai_aggregator_chunks_total{status="error"}[5m])) /
//	sum(rate(tmai_aggregator_chunks_total[5m]))
//
//	# Quota running low
//	tmai_quota_remaining < 20
//
//	# P95 request latency
//	histogram_quantile(0.95, rate(tmai_request_duration_seconds_bucket[5m]))

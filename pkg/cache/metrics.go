package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmai_cache_hits_total",
			Help: "Total number of provider cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmai_cache_misses_total",
			Help: "Total number of provider cache misses",
		},
	)

	// CacheSize tracks bytes written to the cache by layer
	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tmai_cache_size_bytes",
			Help: "Bytes held in the provider cache",
		},
		[]string{"layer"},
	)

	// ConditionalRequestsSent tracks requests revalidated with If-None-Match or If-Modified-Since
	ConditionalRequestsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmai_conditional_requests_total",
			Help: "Total number of conditional provider requests",
		},
	)

	// NotModifiedResponses tracks 304 Not Modified responses
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tmai_304_responses_total",
			Help: "Total number of 304 Not Modified responses",
		},
	)

	// CachePurges tracks keys removed by Purge per namespace
	CachePurges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmai_cache_purged_keys_total",
			Help: "Total number of cache keys removed by purge",
		},
		[]string{"namespace"},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmai_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "purge"
	)
)

// Package cache provides a Redis-backed response cache for provider GET
// requests with ETag and Last-Modified revalidation.
//
// Entries are keyed per provider namespace, endpoint, sorted query and
// account fingerprint, so clients sharing one Redis share warm results for
// the same account without leaking data across API keys.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Namespace:   "tm",
//		Endpoint:    "trader-grades",
//		QueryParams: url.Values{"symbol": []string{"BTC"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the provider
//	}
//
// # Expiration
//
// Cache-Control max-age wins over Expires. no-store, no-cache and private
// responses are never stored. Responses without either header are kept for
// DefaultTTL.
//
// # Metrics
//
//   - tmai_cache_hits_total{layer="redis"}
//   - tmai_cache_misses_total
//   - tmai_cache_size_bytes{layer="redis"}
//   - tmai_conditional_requests_total
//   - tmai_304_responses_total
//   - tmai_cache_purged_keys_total{namespace}
//   - tmai_cache_errors_total{operation}
package cache

package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix starts every cache key.
const KeyPrefix = "tmai"

// CacheKey represents a unique identifier for a cached provider response.
type CacheKey struct {
	// Namespace separates providers (e.g. "tm", "masa").
	Namespace string

	// Endpoint is the provider endpoint path (e.g. "trader-grades")
	Endpoint string

	// QueryParams are the query parameters (e.g. {"symbol": "BTC"})
	QueryParams url.Values

	// Account is a fingerprint of the API key; empty for shared data.
	Account string
}

// String generates a deterministic cache key string.
// Format: tmai:namespace:endpoint:query1=val1:query2=val2:acct=fingerprint
//
// Example:
//
//	tmai:tm:trader-grades:limit=1000:page=0:symbol=BTC:acct=1a2b3c
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	if k.Namespace != "" {
		parts = append(parts, k.Namespace)
	}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params sorted for determinism; repeated values keep their order.
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(k.QueryParams[key], ",")))
		}
	}

	if k.Account != "" {
		parts = append(parts, "acct="+k.Account)
	}

	return strings.Join(parts, ":")
}

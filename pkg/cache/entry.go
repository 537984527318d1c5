package cache

import (
	"net/http"
	"time"
)

// CacheEntry is one stored provider response. Window responses of the
// aggregator are stored individually, so a re-run over an overlapping range
// only fetches the windows that expired.
type CacheEntry struct {
	Data         []byte      `json:"data"`
	ETag         string      `json:"etag"`
	Expires      time.Time   `json:"expires"`
	LastModified time.Time   `json:"last_modified"`
	StatusCode   int         `json:"status_code"`
	Headers      http.Header `json:"headers"`
	CachedAt     time.Time   `json:"cached_at"`
}

// IsExpired reports whether Expires has passed.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL is the time left until expiry, never negative.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Age is how long ago the entry was stored, in whole seconds.
func (e *CacheEntry) Age() time.Duration {
	if e.CachedAt.IsZero() {
		return 0
	}
	return time.Since(e.CachedAt).Truncate(time.Second)
}

// Storable reports whether the entry is worth writing: a 200 with a body
// and time left to live. no-store responses expire on arrival and fail here.
func (e *CacheEntry) Storable() bool {
	return e.StatusCode == http.StatusOK && len(e.Data) > 0 && e.TTL() > 0
}

package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestCacheEntry_Expiry(t *testing.T) {
	tests := []struct {
		name        string
		expires     time.Time
		wantExpired bool
		wantTTLMin  time.Duration
		wantTTLMax  time.Duration
	}{
		{"fresh window", time.Now().Add(time.Hour), false, 59 * time.Minute, time.Hour},
		{"default ttl", time.Now().Add(DefaultTTL), false, DefaultTTL - time.Second, DefaultTTL},
		{"expired", time.Now().Add(-time.Second), true, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &CacheEntry{Expires: tt.expires}
			if e.IsExpired() != tt.wantExpired {
				t.Errorf("IsExpired() = %v", e.IsExpired())
			}
			if ttl := e.TTL(); ttl < tt.wantTTLMin || ttl > tt.wantTTLMax {
				t.Errorf("TTL() = %v, want %v..%v", ttl, tt.wantTTLMin, tt.wantTTLMax)
			}
		})
	}
}

func TestCacheEntry_Age(t *testing.T) {
	if age := (&CacheEntry{}).Age(); age != 0 {
		t.Errorf("zero CachedAt age = %v", age)
	}
	e := &CacheEntry{CachedAt: time.Now().Add(-90 * time.Second)}
	if age := e.Age(); age < 89*time.Second || age > 91*time.Second {
		t.Errorf("Age() = %v, want ~90s", age)
	}
}

func TestCacheEntry_Storable(t *testing.T) {
	later := time.Now().Add(time.Minute)
	tests := []struct {
		name  string
		entry CacheEntry
		want  bool
	}{
		{"ok window", CacheEntry{StatusCode: http.StatusOK, Data: []byte(`{"data":[]}`), Expires: later}, true},
		{"no-store", CacheEntry{StatusCode: http.StatusOK, Data: []byte(`{}`), Expires: time.Now()}, false},
		{"empty body", CacheEntry{StatusCode: http.StatusOK, Expires: later}, false},
		{"not ok", CacheEntry{StatusCode: http.StatusAccepted, Data: []byte(`{}`), Expires: later}, false},
	}
	for _, tt := range tests {
		if got := tt.entry.Storable(); got != tt.want {
			t.Errorf("%s: Storable() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

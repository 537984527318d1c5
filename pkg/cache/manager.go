package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned for absent and expired keys.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry is returned when a stored value does not decode.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// scanBatch is the COUNT hint for SCAN.
const scanBatch = 100

// Manager stores provider responses in Redis. One Manager can serve any
// number of clients; their namespaces keep the keys apart.
type Manager struct {
	redis *redis.Client
}

// NewManager panics on a nil client since every method needs Redis.
func NewManager(redisClient *redis.Client) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Manager{redis: redisClient}
}

// Get returns the live entry for key, or ErrCacheMiss. Entries that outlived
// their Expires are deleted on read.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	raw, err := m.redis.Get(ctx, key.String()).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	case err != nil:
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("redis").Inc()
	return &entry, nil
}

// Set writes entry with a Redis TTL equal to its remaining lifetime.
// Entries with nothing left to live are dropped silently.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := m.redis.Set(ctx, key.String(), raw, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheSize.WithLabelValues("redis").Add(float64(len(raw)))
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// UpdateTTL moves the expiry of a live entry, as after a 304 that carried a
// fresh Expires header.
func (m *Manager) UpdateTTL(ctx context.Context, key CacheKey, newExpires time.Time) error {
	entry, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	entry.Expires = newExpires
	return m.Set(ctx, key, entry)
}

// Count returns how many entries a namespace holds. An empty namespace
// counts every key of the client.
func (m *Manager) Count(ctx context.Context, namespace string) (int, error) {
	n := 0
	err := m.scan(ctx, namespace, func(string) error {
		n++
		return nil
	})
	return n, err
}

// Purge deletes every entry of a namespace and returns how many went.
// An empty namespace purges every key of the client.
func (m *Manager) Purge(ctx context.Context, namespace string) (int, error) {
	deleted := 0
	err := m.scan(ctx, namespace, func(k string) error {
		if err := m.redis.Del(ctx, k).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		deleted++
		return nil
	})
	if err != nil {
		CacheErrors.WithLabelValues("purge").Inc()
		return deleted, err
	}

	CachePurges.WithLabelValues(namespaceLabel(namespace)).Add(float64(deleted))
	return deleted, nil
}

func (m *Manager) scan(ctx context.Context, namespace string, fn func(key string) error) error {
	pattern := KeyPrefix + ":*"
	if namespace != "" {
		pattern = KeyPrefix + ":" + namespace + ":*"
	}

	iter := m.redis.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		if err := fn(iter.Val()); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}

func namespaceLabel(namespace string) string {
	if namespace == "" {
		return "all"
	}
	return namespace
}

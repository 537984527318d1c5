package cache

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// localRedis uses DB 15 of a Redis on localhost and skips when none runs.
// The integration suites start their own via testcontainers.
func localRedis(t *testing.T) *Manager {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	if err := rdb.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	t.Cleanup(func() {
		rdb.FlushDB(context.Background())
		rdb.Close()
	})
	return NewManager(rdb)
}

func gradesKey(start string) CacheKey {
	return CacheKey{
		Namespace:   "tm",
		Endpoint:    "trader-grades",
		QueryParams: url.Values{"startDate": []string{start}, "limit": []string{"1000"}},
	}
}

func liveEntry(body string) *CacheEntry {
	return &CacheEntry{
		Data:       []byte(body),
		ETag:       `"w"`,
		Expires:    time.Now().Add(5 * time.Minute),
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		CachedAt:   time.Now(),
	}
}

func TestNewManager_NilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewManager(nil) should panic")
		}
	}()
	NewManager(nil)
}

func TestManager_RoundTrip(t *testing.T) {
	m := localRedis(t)
	ctx := context.Background()

	if _, err := m.Get(ctx, gradesKey("2024-01-01")); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("empty cache err = %v", err)
	}

	want := liveEntry(`{"data":[{"DATE":"2024-01-01"}]}`)
	if err := m.Set(ctx, gradesKey("2024-01-01"), want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := m.Get(ctx, gradesKey("2024-01-01"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got.Data) != string(want.Data) || got.ETag != want.ETag || got.StatusCode != http.StatusOK {
		t.Errorf("entry = %+v", got)
	}

	// A different window is a different key.
	if _, err := m.Get(ctx, gradesKey("2024-01-30")); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("other window err = %v", err)
	}

	if err := m.Delete(ctx, gradesKey("2024-01-01")); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(ctx, gradesKey("2024-01-01")); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("after Delete err = %v", err)
	}
}

func TestManager_SetSkipsExpired(t *testing.T) {
	m := localRedis(t)
	ctx := context.Background()

	entry := liveEntry(`{}`)
	entry.Expires = time.Now().Add(-time.Minute)
	if err := m.Set(ctx, gradesKey("2024-01-01"), entry); err != nil {
		t.Fatal(err)
	}
	if n, _ := m.Count(ctx, "tm"); n != 0 {
		t.Errorf("expired entry stored, count = %d", n)
	}
	if err := m.Set(ctx, gradesKey("2024-01-01"), nil); err == nil {
		t.Error("nil entry should fail")
	}
}

func TestManager_UpdateTTL(t *testing.T) {
	m := localRedis(t)
	ctx := context.Background()

	if err := m.Set(ctx, gradesKey("2024-01-01"), liveEntry(`{}`)); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Hour)
	if err := m.UpdateTTL(ctx, gradesKey("2024-01-01"), later); err != nil {
		t.Fatalf("UpdateTTL() error = %v", err)
	}
	got, err := m.Get(ctx, gradesKey("2024-01-01"))
	if err != nil {
		t.Fatal(err)
	}
	if d := got.Expires.Sub(later); d < -time.Second || d > time.Second {
		t.Errorf("Expires = %v, want %v", got.Expires, later)
	}

	if err := m.UpdateTTL(ctx, gradesKey("2099-01-01"), later); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("missing key err = %v", err)
	}
}

func TestManager_CountAndPurge(t *testing.T) {
	m := localRedis(t)
	ctx := context.Background()

	keys := []CacheKey{
		gradesKey("2024-01-01"),
		gradesKey("2024-01-30"),
		{Namespace: "masa", Endpoint: "search/live/twitter/result/x"},
	}
	for _, k := range keys {
		if err := m.Set(ctx, k, liveEntry(`{"data":[]}`)); err != nil {
			t.Fatal(err)
		}
	}

	if n, err := m.Count(ctx, ""); err != nil || n != 3 {
		t.Errorf("Count(all) = %d, %v", n, err)
	}

	deleted, err := m.Purge(ctx, "tm")
	if err != nil || deleted != 2 {
		t.Fatalf("Purge(tm) = %d, %v", deleted, err)
	}
	if n, _ := m.Count(ctx, "tm"); n != 0 {
		t.Errorf("tm entries left = %d", n)
	}
	if _, err := m.Get(ctx, keys[2]); err != nil {
		t.Errorf("masa entry should survive: %v", err)
	}
}

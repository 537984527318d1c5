//go:build integration

package tokenmetrics_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/Sternrassler/tmai-client/internal/testutil"
	"github.com/Sternrassler/tmai-client/pkg/client"
	"github.com/Sternrassler/tmai-client/pkg/ratelimit"
	"github.com/Sternrassler/tmai-client/pkg/tokenmetrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newCachedAPI(t *testing.T, mock *testutil.MockAPI, rdb *redis.Client) (*tokenmetrics.API, *client.Client) {
	t.Helper()

	cfg := client.DefaultConfig(mock.URL(), "tm-integration-key")
	cfg.RateLimit = 0
	cfg.Redis = rdb
	cfg.CacheNamespace = "tm-it"
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return tokenmetrics.New(c, tokenmetrics.WithLogger(zerolog.Nop())), c
}

// cacheableWindows echoes the window like NewDateRangeHandler but lets the
// response be cached for a minute.
func cacheableWindows(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("startDate")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "max-age=60")
	w.Header().Set(testutil.HeaderRemaining, "80")
	w.Header().Set(testutil.HeaderReset, "60")
	fmt.Fprintf(w, `{"success":true,"data":[{"startDate":%q}]}`, start)
}

func TestAggregatedFetch_WindowsServedFromCache(t *testing.T) {
	rdb := testutil.StartRedis(t)
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetHandler("/"+tokenmetrics.EndpointTraderGrades, cacheableWindows)

	api, _ := newCachedAPI(t, mock, rdb)
	q := tokenmetrics.Query{Symbols: []string{"BTC"}, StartDate: "2024-01-01", EndDate: "2024-03-01"}

	first := api.TraderGrades(context.Background(), q)
	if first.Len() != 3 || mock.RequestCount() != 3 {
		t.Fatalf("first fetch items/requests = %d/%d, want 3/3", first.Len(), mock.RequestCount())
	}

	second := api.TraderGrades(context.Background(), q)
	if second.Len() != 3 {
		t.Errorf("second fetch items = %d, want 3", second.Len())
	}
	if mock.RequestCount() != 3 {
		t.Errorf("requests after cached fetch = %d, want 3", mock.RequestCount())
	}
}

func TestAggregatedFetch_QuotaTracked(t *testing.T) {
	rdb := testutil.StartRedis(t)
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetHandler("/"+tokenmetrics.EndpointTradingSignals, cacheableWindows)

	api, _ := newCachedAPI(t, mock, rdb)
	api.TradingSignals(context.Background(), tokenmetrics.Query{StartDate: "2024-01-01", EndDate: "2024-01-10"})

	tracker := ratelimit.NewTracker(rdb, "tm-it", zerolog.Nop())
	state, err := tracker.GetState(context.Background())
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != 80 {
		t.Errorf("remaining = %d, want 80", state.Remaining)
	}
}

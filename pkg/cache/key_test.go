package cache

import (
	"net/url"
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "simple endpoint no params",
			key: CacheKey{
				Endpoint: "/tokens/",
			},
			want: "tmai:tokens",
		},
		{
			name: "namespaced endpoint",
			key: CacheKey{
				Namespace: "tm",
				Endpoint:  "trader-grades",
			},
			want: "tmai:tm:trader-grades",
		},
		{
			name: "endpoint with query params",
			key: CacheKey{
				Namespace: "tm",
				Endpoint:  "price",
				QueryParams: url.Values{
					"symbol": []string{"BTC"},
				},
			},
			want: "tmai:tm:price:symbol=BTC",
		},
		{
			name: "multiple query params (sorted)",
			key: CacheKey{
				Namespace: "tm",
				Endpoint:  "trader-grades",
				QueryParams: url.Values{
					"symbol": []string{"BTC"},
					"limit":  []string{"1000"},
					"page":   []string{"0"},
				},
			},
			want: "tmai:tm:trader-grades:limit=1000:page=0:symbol=BTC",
		},
		{
			name: "repeated query values",
			key: CacheKey{
				Endpoint:    "price",
				QueryParams: url.Values{"token_id": []string{"3375", "3377"}},
			},
			want: "tmai:price:token_id=3375,3377",
		},
		{
			name: "account scoped",
			key: CacheKey{
				Namespace: "masa",
				Endpoint:  "search/live/twitter/result/abc",
				Account:   "1a2b3c",
			},
			want: "tmai:masa:search/live/twitter/result/abc:acct=1a2b3c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.key.String()
			if got != tt.want {
				t.Errorf("CacheKey.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCacheKey_Determinism ensures same input always produces same key
func TestCacheKey_Determinism(t *testing.T) {
	key := CacheKey{
		Namespace: "tm",
		Endpoint:  "trading-signals",
		QueryParams: url.Values{
			"symbol":    []string{"BTC,ETH"},
			"startDate": []string{"2024-01-01"},
			"endDate":   []string{"2024-01-30"},
			"limit":     []string{"1000"},
		},
		Account: "ffee00",
	}

	results := make([]string, 10)
	for i := 0; i < 10; i++ {
		results[i] = key.String()
	}

	first := results[0]
	for i, result := range results {
		if result != first {
			t.Errorf("result[%d] = %v, want %v (not deterministic)", i, result, first)
		}
	}
}

func TestCacheKey_AccountsDoNotCollide(t *testing.T) {
	a := CacheKey{Namespace: "tm", Endpoint: "tokens", Account: "aaaa"}
	b := CacheKey{Namespace: "tm", Endpoint: "tokens", Account: "bbbb"}

	if a.String() == b.String() {
		t.Errorf("keys for different accounts collide: %s", a.String())
	}
}

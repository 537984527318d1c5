// Package testutil provides a configurable fake provider API for tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Quota headers sent by the fake provider.
const (
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// MockResponse defines a canned response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is an httptest server that records every request and answers
// per-path handlers, falling back to an empty data envelope.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requestCount     int
	conditionalCount int
	lastHeader       http.Header
	queries          []url.Values
	bodies           []string
}

// NewMockAPI starts a new fake provider.
func NewMockAPI() *MockAPI {
	m := &MockAPI{handlers: make(map[string]http.HandlerFunc)}

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		m.mu.Lock()
		m.requestCount++
		m.lastHeader = r.Header.Clone()
		m.queries = append(m.queries, r.URL.Query())
		m.bodies = append(m.bodies, string(body))
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			m.conditionalCount++
		}
		handler, ok := m.handlers[strings.TrimSuffix(r.URL.Path, "/")]
		m.mu.Unlock()

		if ok {
			handler(w, r)
			return
		}
		defaultHandler(w, r)
	}))

	return m
}

// URL returns the server root.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts the server down.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears the recorded requests.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.lastHeader = nil
	m.queries = nil
	m.bodies = nil
}

// SetHandler installs a handler for a path such as "/trader-grades".
func (m *MockAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[strings.TrimSuffix(path, "/")] = handler
}

// SetResponse answers path with a fixed response.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}
		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			_, _ = w.Write([]byte(resp.Body))
		}
	})
}

// RequestCount returns the number of requests served.
func (m *MockAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// ConditionalCount returns the number of requests carrying validators.
func (m *MockAPI) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// LastHeader returns the headers of the latest request.
func (m *MockAPI) LastHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// Queries returns the query strings of all requests in arrival order.
func (m *MockAPI) Queries() []url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]url.Values, len(m.queries))
	copy(out, m.queries)
	return out
}

// Bodies returns the request bodies in arrival order.
func (m *MockAPI) Bodies() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.bodies))
	copy(out, m.bodies)
	return out
}

func defaultHandler(w http.ResponseWriter, r *http.Request) {
	setQuotaHeaders(w, "100", "60")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
}

func setQuotaHeaders(w http.ResponseWriter, remaining, reset string) {
	w.Header().Set(HeaderRemaining, remaining)
	w.Header().Set(HeaderReset, reset)
}

// NewDataResponse wraps items in a {"success":true,"data":[...]} envelope
// with validators and a five minute expiry.
func NewDataResponse(items ...any) MockResponse {
	if items == nil {
		items = []any{}
	}
	body, _ := json.Marshal(map[string]any{"success": true, "data": items})
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
		Headers: map[string]string{
			HeaderRemaining: "100",
			HeaderReset:     "60",
			"ETag":          `"test-etag-123"`,
			"Expires":       time.Now().Add(5 * time.Minute).Format(http.TimeFormat),
			"Content-Type":  "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 with a nearly exhausted quota.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message":"Too many requests"}`,
		Headers: map[string]string{
			HeaderRemaining: "0",
			HeaderReset:     "30",
			"Content-Type":  "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message":"Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewConditionalHandler answers 304 when the request carries etag and the
// full body otherwise.
func NewConditionalHandler(etag, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setQuotaHeaders(w, "100", "60")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Expires", time.Now().Add(5*time.Minute).Format(http.TimeFormat))

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}
}

// NewDateRangeHandler answers every request with one row per call that
// echoes the requested window, so callers can check chunking. Windows
// starting at any date in failStarts get a 500.
func NewDateRangeHandler(failStarts ...string) http.HandlerFunc {
	fail := make(map[string]bool, len(failStarts))
	for _, s := range failStarts {
		fail[s] = true
	}
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		start := q.Get("startDate")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		setQuotaHeaders(w, "100", "60")

		if fail[start] {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"window failed"}`))
			return
		}

		body, _ := json.Marshal(map[string]any{
			"success": true,
			"message": "window " + start,
			"data": []any{map[string]any{
				"startDate": start,
				"endDate":   q.Get("endDate"),
				"limit":     q.Get("limit"),
				"page":      q.Get("page"),
			}},
		})
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

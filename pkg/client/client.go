// Package client provides the single-request HTTP executor shared by all
// provider wrappers, with request pacing, shared quota tracking, caching,
// and error classification.
package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/tmai-client/pkg/cache"
	"github.com/Sternrassler/tmai-client/pkg/pagination"
	"github.com/Sternrassler/tmai-client/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tmai_requests_total",
		Help: "Total provider requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tmai_request_duration_seconds",
		Help:    "Provider request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tmai_errors_total",
		Help: "Total provider errors by class",
	}, []string{"class"})
)

var tracer = otel.Tracer("github.com/Sternrassler/tmai-client/pkg/client")

// maxErrorBody bounds how much of an error response is kept in APIError.
const maxErrorBody = 512

// Auth header conventions of the supported providers.
const (
	// HeaderAPIKey is the analytics provider's raw key header.
	HeaderAPIKey = "api_key"

	// HeaderAuthorization carries bearer tokens.
	HeaderAuthorization = "Authorization"

	// BearerPrefix is prepended to the key for bearer auth.
	BearerPrefix = "Bearer "
)

// Client is a provider HTTP client. It implements pagination.Executor.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	config      Config
	account     string
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the provider API root, e.g. "https://api.tokenmetrics.com/v2".
	BaseURL string

	// APIKey authenticates every request.
	APIKey string

	// APIKeyHeader is the header carrying the key (HeaderAPIKey or HeaderAuthorization).
	APIKeyHeader string

	// APIKeyPrefix is prepended to the key value (e.g. BearerPrefix).
	APIKeyPrefix string

	// UserAgent header.
	UserAgent string

	// Redis enables the shared response cache and quota tracking. Optional.
	Redis *redis.Client

	// CacheNamespace separates cache and quota keys per provider.
	CacheNamespace string

	// Pacing
	RateLimit float64 // Requests per second, 0 disables pacing
	Burst     int

	// Timeout per HTTP request.
	Timeout time.Duration

	// Retry. MaxRetries of 0 sends every request exactly once.
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration for the given provider.
func DefaultConfig(baseURL, apiKey string) Config {
	return Config{
		BaseURL:        baseURL,
		APIKey:         apiKey,
		APIKeyHeader:   HeaderAPIKey,
		UserAgent:      "tmai-client/0.1.0",
		CacheNamespace: "tm",
		RateLimit:      5,
		Burst:          1,
		Timeout:        30 * time.Second,
		MaxRetries:     0,
		InitialBackoff: 1 * time.Second,
	}
}

// New creates a new provider client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate_limit must be >= 0 (got %v)", cfg.RateLimit)
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = HeaderAPIKey
	}
	if cfg.CacheNamespace == "" {
		cfg.CacheNamespace = "default"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	logger := log.With().
		Str("component", "tmai-client").
		Str("namespace", cfg.CacheNamespace).
		Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config:  cfg,
		account: fingerprint(cfg.APIKey),
		logger:  logger,
	}

	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}

	if cfg.Redis != nil {
		c.rateLimiter = ratelimit.NewTracker(cfg.Redis, cfg.CacheNamespace, logger)
		c.cache = cache.NewManager(cfg.Redis)
	}

	return c, nil
}

// Do performs an HTTP request with pacing, quota gating, caching, and error
// handling. Client errors (4xx) are returned as responses for the caller to
// inspect; server, rate limit and network errors are returned as errors once
// retries are exhausted.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := strings.TrimPrefix(req.URL.Path, "/")

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Client-side pacing
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	// Step 2: Shared provider quota
	if c.rateLimiter != nil {
		allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Error().Err(err).Msg("Quota check failed")
			return nil, fmt.Errorf("quota check: %w", err)
		}
		if !allowed {
			c.logger.Warn().
				Str("endpoint", endpoint).
				Msg("Request blocked by quota tracker")
			requestsTotal.WithLabelValues(endpoint, "quota_blocked").Inc()
			return nil, ErrQuotaExhausted
		}
	}

	// Step 3: Cache lookup (GET only)
	cacheKey := cache.CacheKey{
		Namespace:   c.config.CacheNamespace,
		Endpoint:    endpoint,
		QueryParams: req.URL.Query(),
		Account:     c.account,
	}
	cacheable := c.cache != nil && req.Method == http.MethodGet && !skipCache(ctx)

	var cachedEntry *cache.CacheEntry
	if cacheable {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
		cachedEntry = entry

		if cachedEntry != nil && cache.ShouldMakeConditionalRequest(cachedEntry) {
			cache.AddConditionalHeaders(req, cachedEntry)
			cache.ConditionalRequestsSent.Inc()
			c.logger.Debug().
				Str("endpoint", endpoint).
				Str("etag", cachedEntry.ETag).
				Msg("Making conditional request")
		} else if cachedEntry != nil {
			c.logger.Debug().Str("endpoint", endpoint).Msg("Serving from cache")
			requestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
			return cache.EntryToResponse(cachedEntry), nil
		}
	}

	// Step 4: Headers
	c.setHeaders(req)

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Msg("Executing provider request")

	// Step 5: Execute with retry
	var resp *http.Response
	var errClass ErrorClass

	policy := retryPolicy{
		maxAttempts:    c.config.MaxRetries + 1,
		initialBackoff: c.config.InitialBackoff,
		logger:         c.logger,
	}

	retryErr := retryWithBackoff(ctx, policy, func() error {
		attemptReq, err := cloneRequest(ctx, req)
		if err != nil {
			errClass = ""
			return err
		}

		var reqErr error
		resp, reqErr = c.httpClient.Do(attemptReq)
		if reqErr != nil {
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			errClass = ErrorClassNetwork
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return &APIError{ErrorClass: errClass, Message: "request failed", Err: reqErr}
		}

		// Step 6: Update quota from headers
		if c.rateLimiter != nil {
			if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update quota from headers")
			}
		}

		if resp.StatusCode == http.StatusNotModified {
			return nil
		}

		if resp.StatusCode >= 400 {
			errClass = classifyStatus(resp.StatusCode)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Provider request error")

			if shouldRetry(errClass) {
				apiErr := &APIError{
					StatusCode: resp.StatusCode,
					ErrorClass: errClass,
					Message:    resp.Status,
					Body:       readSnippet(resp.Body),
				}
				resp.Body.Close()
				return apiErr
			}

			// Client errors are not retried; the caller inspects the status.
			return nil
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	}, func(error) ErrorClass {
		return errClass
	})

	if retryErr != nil {
		return nil, retryErr
	}

	// Step 7: 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		requestsTotal.WithLabelValues(endpoint, "304").Inc()
		cache.NotModifiedResponses.Inc()

		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if newExpires, err := http.ParseTime(expiresStr); err == nil {
				if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
				}
			}
		}

		resp.Body.Close()
		return cache.EntryToResponse(cachedEntry), nil
	}

	// Step 8: Update cache on success
	if cacheable && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.Storable() {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				c.logger.Debug().
					Str("endpoint", endpoint).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// Call performs one request and returns the decoded JSON body. Numbers are
// decoded as json.Number so large identifiers survive intact.
func (c *Client) Call(ctx context.Context, method, endpoint string, params pagination.Params) (any, error) {
	var out any
	if err := c.CallInto(ctx, method, endpoint, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CallInto performs one request and decodes the JSON body into out.
// GET params become the query string; POST params become the JSON body.
func (c *Client) CallInto(ctx context.Context, method, endpoint string, params pagination.Params, out any) error {
	ctx, span := tracer.Start(ctx, "client.call", trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("endpoint", endpoint),
	))
	defer span.End()

	req, err := c.newRequest(ctx, method, endpoint, params)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Message:    resp.Status,
			Body:       readSnippet(resp.Body),
		}
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// Get performs a GET request against a provider endpoint.
func (c *Client) Get(ctx context.Context, endpoint string, params pagination.Params) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, params)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// URL returns the absolute URL of an endpoint.
func (c *Client) URL(endpoint string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, params pagination.Params) (*http.Request, error) {
	target := c.URL(endpoint)

	switch strings.ToUpper(method) {
	case http.MethodGet:
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if len(params) > 0 {
			req.URL.RawQuery = params.Values().Encode()
		}
		return req, nil

	case http.MethodPost:
		if params == nil {
			params = pagination.Params{}
		}
		payload, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	req.Header.Set(c.config.APIKeyHeader, c.config.APIKeyPrefix+c.config.APIKey)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, nil without Redis.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}

type noCacheKey struct{}

// WithoutCache returns a context whose requests bypass the response cache.
// Used for polling endpoints whose answer changes between calls.
func WithoutCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, noCacheKey{}, true)
}

func skipCache(ctx context.Context) bool {
	v, _ := ctx.Value(noCacheKey{}).(bool)
	return v
}

// cloneRequest gives every attempt a fresh body.
func cloneRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	clone := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("reset request body: %w", err)
		}
		clone.Body = body
	}
	return clone, nil
}

func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}

// fingerprint identifies the account in cache keys without storing the key.
func fingerprint(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:6])
}

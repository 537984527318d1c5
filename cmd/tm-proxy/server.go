package main

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/tmai-client/pkg/client"
	"github.com/Sternrassler/tmai-client/pkg/logging"
	"github.com/Sternrassler/tmai-client/pkg/masa"
	"github.com/Sternrassler/tmai-client/pkg/metrics"
	"github.com/Sternrassler/tmai-client/pkg/pagination"
	"github.com/Sternrassler/tmai-client/pkg/tokenmetrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-ID"

const paramMaxDays = "maxDays"

var resourcePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

type sentimentSource interface {
	SentimentForToken(ctx context.Context, token string) (*masa.Sentiment, error)
}

type server struct {
	api       *tokenmetrics.API
	sentiment sentimentSource
	redis     *redis.Client
	tracer    trace.Tracer
	logger    zerolog.Logger
	timeout   time.Duration
	group     singleflight.Group
}

func (s *server) routes(r *gin.Engine) {
	r.Use(requestID(), s.requestLogger())

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/v2/:resource", s.resource)
	r.GET("/sentiment/:token", s.tokenSentiment)
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *server) ready(c *gin.Context) {
	if s.redis == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready", "redis": "disabled"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "redis": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "redis": "ok"})
}

// resource runs an aggregated fetch. The query string is forwarded as the
// base params; maxDays overrides the window width. Identical concurrent
// requests share one fetch.
func (s *server) resource(c *gin.Context) {
	name := c.Param("resource")
	if !resourcePattern.MatchString(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resource: " + name})
		return
	}

	query := c.Request.URL.Query()
	maxDays := s.api.MaxDays()
	if v := query.Get(paramMaxDays); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxDays must be a positive integer"})
			return
		}
		maxDays = n
	}
	query.Del(paramMaxDays)

	params := pagination.Params{}
	for k, vs := range query {
		params[k] = strings.Join(vs, ",")
	}

	ctx, span := s.tracer.Start(c.Request.Context(), "proxy.resource", trace.WithAttributes(
		attribute.String("resource", name),
		attribute.Int("max_days", maxDays),
	))
	defer span.End()

	key := name + "?" + query.Encode() + "&" + paramMaxDays + "=" + strconv.Itoa(maxDays)
	v, _, shared := s.group.Do(key, func() (any, error) {
		// Detach from the first caller so its cancellation does not fail the
		// others waiting on the same key.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.api.Aggregator().Fetch(fetchCtx, http.MethodGet, name, params, maxDays), nil
	})
	span.SetAttributes(attribute.Bool("shared", shared))

	res := v.(*pagination.Result)
	c.Header("X-Result-Items", strconv.Itoa(res.Len()))
	c.JSON(http.StatusOK, res)
}

func (s *server) tokenSentiment(c *gin.Context) {
	if s.sentiment == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sentiment search is not configured"})
		return
	}

	token := strings.ToUpper(strings.TrimSpace(c.Param("token")))
	ctx, span := s.tracer.Start(c.Request.Context(), "proxy.sentiment", trace.WithAttributes(
		attribute.String("token", token),
	))
	defer span.End()

	res, err := s.sentiment.SentimentForToken(ctx, token)
	if err != nil {
		span.RecordError(err)
		c.JSON(sentimentStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func sentimentStatus(err error) int {
	switch {
	case errors.Is(err, masa.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, masa.ErrJobTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, client.ErrQuotaExhausted):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

// requestID reuses an incoming X-Request-ID or assigns a new UUID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(HeaderRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func (s *server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger := logging.WithRequestID(s.logger, c.GetString(HeaderRequestID))
		event := logger.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	}
}

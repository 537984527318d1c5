package pagination

import (
	"context"
	"strings"
	"time"

	"github.com/Sternrassler/tmai-client/pkg/daterange"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Prometheus metrics for aggregated fetches.
var (
	chunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tmai_aggregator_chunks_total",
		Help: "Date windows requested by endpoint and outcome",
	}, []string{"endpoint", "status"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tmai_aggregator_fetch_duration_seconds",
		Help:    "Duration of a complete aggregated fetch by endpoint",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"endpoint"})

	fetchItems = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tmai_aggregator_items",
		Help:    "Items returned by an aggregated fetch by endpoint",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"endpoint"})
)

var tracer = otel.Tracer("github.com/Sternrassler/tmai-client/pkg/pagination")

// Executor performs exactly one provider request and returns the decoded
// JSON body. It must return an error for transport failures and non-success
// HTTP statuses.
type Executor interface {
	Call(ctx context.Context, method, endpoint string, params Params) (any, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, method, endpoint string, params Params) (any, error)

// Call implements Executor.
func (f ExecutorFunc) Call(ctx context.Context, method, endpoint string, params Params) (any, error) {
	return f(ctx, method, endpoint, params)
}

// ChunkProgress describes one finished window attempt.
type ChunkProgress struct {
	Endpoint string
	Index    int // zero-based
	Total    int
	Chunk    daterange.Chunk
	Items    int
	Err      error
}

// ProgressFunc is called once per window after its request completed,
// whether it succeeded or not.
type ProgressFunc func(ChunkProgress)

// Config holds aggregator configuration.
type Config struct {
	// Limits maps resource names to the item cap requested per window.
	Limits map[string]int

	// DefaultLimit applies to resources missing from Limits.
	DefaultLimit int

	// Progress, when set, receives one tick per window.
	Progress ProgressFunc

	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// DefaultConfig returns the provider's documented limits.
func DefaultConfig() Config {
	return Config{
		Limits:       DefaultLimits(),
		DefaultLimit: DefaultLimit,
	}
}

// Aggregator merges date-windowed requests into one Result.
// It holds no per-call state and is safe for concurrent use.
type Aggregator struct {
	exec         Executor
	limits       map[string]int
	defaultLimit int
	progress     ProgressFunc
	logger       zerolog.Logger
}

// NewAggregator creates an aggregator on top of a single-request executor.
func NewAggregator(exec Executor, cfg Config) *Aggregator {
	if cfg.Limits == nil {
		cfg.Limits = DefaultLimits()
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultLimit
	}

	limits := make(map[string]int, len(cfg.Limits))
	for k, v := range cfg.Limits {
		limits[k] = v
	}

	logger := log.With().Str("component", "aggregator").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Aggregator{
		exec:         exec,
		limits:       limits,
		defaultLimit: cfg.DefaultLimit,
		progress:     cfg.Progress,
		logger:       logger,
	}
}

// FetchOption customizes a single Fetch.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	limit    int
	limitSet bool
	progress ProgressFunc
}

// WithLimit overrides the per-resource item cap for one Fetch. The value is
// sent as given, zero and negative included; omit the option to use the
// limits table.
func WithLimit(limit int) FetchOption {
	return func(o *fetchOptions) {
		o.limit = limit
		o.limitSet = true
	}
}

// WithProgress sets a progress callback for one Fetch, in addition to the
// aggregator-wide one.
func WithProgress(fn ProgressFunc) FetchOption {
	return func(o *fetchOptions) {
		o.progress = fn
	}
}

// Limit resolves the item cap for an endpoint.
func (a *Aggregator) Limit(endpoint string) int {
	if limit, ok := a.limits[resourceName(endpoint)]; ok {
		return limit
	}
	return a.defaultLimit
}

// Fetch retrieves everything obtainable for endpoint between the
// startDate/endDate in base, one request per window of at most maxDays days.
//
// Fetch never fails. Windows whose request errors are skipped and left out
// of the Result; when nothing at all was collected the Result is {"data": []}.
// base is not modified.
func (a *Aggregator) Fetch(ctx context.Context, method, endpoint string, base Params, maxDays int, opts ...FetchOption) *Result {
	start := time.Now()

	var o fetchOptions
	for _, opt := range opts {
		opt(&o)
	}

	limit := o.limit
	if !o.limitSet {
		limit = a.Limit(endpoint)
	}

	params := base.Clone()
	delete(params, ParamPage)
	params[ParamLimit] = limit

	chunks := daterange.Split(params.String(ParamStartDate), params.String(ParamEndDate), maxDays)

	ctx, span := tracer.Start(ctx, "pagination.fetch", trace.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Int("chunks", len(chunks)),
		attribute.Int("limit", limit),
	))
	defer span.End()

	a.logger.Debug().
		Str("endpoint", endpoint).
		Int("chunks", len(chunks)).
		Int("limit", limit).
		Msg("Starting aggregated fetch")

	var acc accumulator
	failed := 0

	for i, chunk := range chunks {
		chunkParams := params.Clone()
		if chunk.Start != "" {
			chunkParams[ParamStartDate] = chunk.Start
		}
		if chunk.End != "" {
			chunkParams[ParamEndDate] = chunk.End
		}
		chunkParams[ParamLimit] = limit
		chunkParams[ParamPage] = 0

		items := 0
		raw, err := a.exec.Call(ctx, method, endpoint, chunkParams)
		if err != nil {
			failed++
			chunksTotal.WithLabelValues(endpoint, "error").Inc()
			a.logger.Warn().
				Err(err).
				Str("endpoint", endpoint).
				Str("chunk_start", chunk.Start).
				Str("chunk_end", chunk.End).
				Msg("Chunk fetch failed, skipping")
		} else {
			s := classify(raw)
			items = len(s.items)
			acc.add(s)
			chunksTotal.WithLabelValues(endpoint, "success").Inc()
			a.logger.Debug().
				Str("endpoint", endpoint).
				Str("chunk_start", chunk.Start).
				Str("chunk_end", chunk.End).
				Str("shape", s.kind.String()).
				Int("items", items).
				Msg("Chunk fetched")
		}

		tick := ChunkProgress{
			Endpoint: endpoint,
			Index:    i,
			Total:    len(chunks),
			Chunk:    chunk,
			Items:    items,
			Err:      err,
		}
		if a.progress != nil {
			a.progress(tick)
		}
		if o.progress != nil {
			o.progress(tick)
		}
	}

	result := acc.result()

	fetchDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	fetchItems.WithLabelValues(endpoint).Observe(float64(result.Len()))
	span.SetAttributes(
		attribute.Int("items", result.Len()),
		attribute.Int("failed_chunks", failed),
	)

	a.logger.Info().
		Str("endpoint", endpoint).
		Int("chunks", len(chunks)).
		Int("failed_chunks", failed).
		Int("items", result.Len()).
		Dur("duration", time.Since(start)).
		Msg("Aggregated fetch complete")

	return result
}

// resourceName reduces an endpoint path to the logical resource used as the
// limits key, e.g. "/v2/daily-ohlcv" -> "daily-ohlcv".
func resourceName(endpoint string) string {
	endpoint = strings.Trim(endpoint, "/")
	if i := strings.LastIndex(endpoint, "/"); i >= 0 {
		return endpoint[i+1:]
	}
	return endpoint
}

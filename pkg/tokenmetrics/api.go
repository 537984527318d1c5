// Package tokenmetrics wraps the Token Metrics v2 REST API. Date-ranged
// resources are fetched through the pagination aggregator, one request per
// window of at most 29 days; everything else is a single request.
package tokenmetrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Sternrassler/tmai-client/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.tokenmetrics.com/v2"

// Resource paths.
const (
	EndpointTokens                  = "tokens"
	EndpointTopMarketCapTokens      = "top-market-cap-tokens"
	EndpointTraderGrades            = "trader-grades"
	EndpointInvestorGrades          = "investor-grades"
	EndpointTradingSignals          = "trading-signals"
	EndpointDailyOHLCV              = "daily-ohlcv"
	EndpointHourlyOHLCV             = "hourly-ohlcv"
	EndpointMarketMetrics           = "market-metrics"
	EndpointTraderIndices           = "trader-indices"
	EndpointInvestorIndices         = "investor-indices"
	EndpointPrice                   = "price"
	EndpointSentiments              = "sentiments"
	EndpointQuantmetrics            = "quantmetrics"
	EndpointCorrelation             = "correlation"
	EndpointResistanceSupport       = "resistance-support"
	EndpointScenarioAnalysis        = "scenario-analysis"
	EndpointIndicesPerformance      = "indices-performance"
	EndpointIndexTransactions       = "indices-transaction"
	EndpointSectorIndexTransactions = "sector-index-transaction"
	EndpointIndexHoldings           = "index-holdings"
	EndpointSectorIndexHoldings     = "sector-indices-holdings"
	EndpointCryptoInvestors         = "crypto-investors"
	EndpointAIReports               = "ai-reports"
	EndpointAIAgent                 = "tmai"
)

var (
	// ErrMissingSymbol is returned when a resource needs a symbol or token id.
	ErrMissingSymbol = errors.New("symbol or token id is required")

	// ErrMissingIndexID is returned when an index resource has no index id.
	ErrMissingIndexID = errors.New("index id is required")

	// ErrMissingPair is returned when correlation lacks a base or quote symbol.
	ErrMissingPair = errors.New("base and quote symbols are required")
)

// API is the Token Metrics client. It is safe for concurrent use.
type API struct {
	exec    pagination.Executor
	agg     *pagination.Aggregator
	maxDays int
	logger  zerolog.Logger
	now     func() time.Time
}

// Option configures an API.
type Option func(*options)

type options struct {
	maxDays  int
	agg      pagination.Config
	progress pagination.ProgressFunc
	logger   *zerolog.Logger
}

// WithMaxDays sets the window width for date-ranged resources.
func WithMaxDays(days int) Option {
	return func(o *options) { o.maxDays = days }
}

// WithLimits overrides the per-resource item caps.
func WithLimits(limits map[string]int) Option {
	return func(o *options) { o.agg.Limits = limits }
}

// WithProgress reports every window of every aggregated fetch.
func WithProgress(fn pagination.ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WithLogger replaces the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

// New creates an API on top of a single-request executor, normally a
// *client.Client configured with the api_key header.
func New(exec pagination.Executor, opts ...Option) *API {
	o := options{
		maxDays: pagination.DefaultMaxDays,
		agg:     pagination.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxDays <= 0 {
		o.maxDays = pagination.DefaultMaxDays
	}

	logger := log.With().Str("component", "tokenmetrics").Logger()
	if o.logger != nil {
		logger = *o.logger
	}

	aggLogger := logger.With().Str("subcomponent", "aggregator").Logger()
	o.agg.Logger = &aggLogger
	o.agg.Progress = o.progress

	return &API{
		exec:    exec,
		agg:     pagination.NewAggregator(exec, o.agg),
		maxDays: o.maxDays,
		logger:  logger,
		now:     time.Now,
	}
}

// Aggregator exposes the underlying aggregator for resources not wrapped here.
func (a *API) Aggregator() *pagination.Aggregator {
	return a.agg
}

// MaxDays returns the configured window width.
func (a *API) MaxDays() int {
	return a.maxDays
}

// aggregate fetches a date-ranged resource.
func (a *API) aggregate(ctx context.Context, endpoint string, q Query, opts ...pagination.FetchOption) *pagination.Result {
	return a.agg.Fetch(ctx, http.MethodGet, endpoint, q.Params(), a.maxDays, opts...)
}

// single performs one GET with the resource's limit and page 0.
func (a *API) single(ctx context.Context, endpoint string, params pagination.Params) (any, error) {
	if _, ok := params[pagination.ParamLimit]; !ok {
		params[pagination.ParamLimit] = a.agg.Limit(endpoint)
	}
	if _, ok := params[pagination.ParamPage]; !ok {
		params[pagination.ParamPage] = 0
	}
	return a.exec.Call(ctx, http.MethodGet, endpoint, params)
}

package tokenmetrics

import (
	"context"
	"net/http"

	"github.com/Sternrassler/tmai-client/pkg/pagination"
)

// TraderGrades returns short-term grades, chunked by date.
func (a *API) TraderGrades(ctx context.Context, q Query, opts ...pagination.FetchOption) *pagination.Result {
	return a.aggregate(ctx, EndpointTraderGrades, q, opts...)
}

// InvestorGrades returns long-term grades, chunked by date.
func (a *API) InvestorGrades(ctx context.Context, q Query, opts ...pagination.FetchOption) *pagination.Result {
	return a.aggregate(ctx, EndpointInvestorGrades, q, opts...)
}

// TradingSignals returns long/short signals, chunked by date.
func (a *API) TradingSignals(ctx context.Context, q Query, opts ...pagination.FetchOption) *pagination.Result {
	return a.aggregate(ctx, EndpointTradingSignals, q, opts...)
}

// DailyOHLCV returns daily candles, chunked by date with a limit of 100.
func (a *API) DailyOHLCV(ctx context.Context, q Query, opts ...pagination.FetchOption) *pagination.Result {
	return a.aggregate(ctx, EndpointDailyOHLCV, q, opts...)
}

// HourlyOHLCV returns hourly candles, chunked by date.
func (a *API) HourlyOHLCV(ctx context.Context, q Query, opts ...pagination.FetchOption) *pagination.Result {
	return a.aggregate(ctx, EndpointHourlyOHLCV, q, opts...)
}

// MarketMetrics returns market-wide indicators, chunked by date.
func (a *API) MarketMetrics(ctx context.Context, q Query, opts ...pagination.FetchOption) *pagination.Result {
	return a.aggregate(ctx, EndpointMarketMetrics, q, opts...)
}

// TraderIndices returns trader index allocations, chunked by date.
func (a *API) TraderIndices(ctx context.Context, q Query, opts ...pagination.FetchOption) *pagination.Result {
	return a.aggregate(ctx, EndpointTraderIndices, q, opts...)
}

// InvestorIndices returns investor index allocations.
func (a *API) InvestorIndices(ctx context.Context, q Query, opts ...pagination.FetchOption) *pagination.Result {
	return a.aggregate(ctx, EndpointInvestorIndices, q, opts...)
}

// IndicesPerformance returns historical index returns.
func (a *API) IndicesPerformance(ctx context.Context, q Query, opts ...pagination.FetchOption) *pagination.Result {
	return a.aggregate(ctx, EndpointIndicesPerformance, q, opts...)
}

// Price returns prices for the given tokens.
func (a *API) Price(ctx context.Context, q Query, opts ...pagination.FetchOption) (*pagination.Result, error) {
	if !q.hasToken() {
		return nil, ErrMissingSymbol
	}
	return a.aggregate(ctx, EndpointPrice, q, opts...), nil
}

// Sentiments returns social sentiment grades for the given tokens.
func (a *API) Sentiments(ctx context.Context, q Query, opts ...pagination.FetchOption) (*pagination.Result, error) {
	if !q.hasToken() {
		return nil, ErrMissingSymbol
	}
	return a.aggregate(ctx, EndpointSentiments, q, opts...), nil
}

// Quantmetrics returns risk and return statistics for the given tokens.
func (a *API) Quantmetrics(ctx context.Context, q Query, opts ...pagination.FetchOption) (*pagination.Result, error) {
	if !q.hasToken() {
		return nil, ErrMissingSymbol
	}
	return a.aggregate(ctx, EndpointQuantmetrics, q, opts...), nil
}

// Correlation returns the correlation between two tokens.
func (a *API) Correlation(ctx context.Context, base, quote string, q Query, opts ...pagination.FetchOption) (*pagination.Result, error) {
	if base == "" || quote == "" {
		return nil, ErrMissingPair
	}
	q.Extra = q.Extra.Clone()
	q.Extra["base_symbol"] = base
	q.Extra["quote_symbol"] = quote
	return a.aggregate(ctx, EndpointCorrelation, q, opts...), nil
}

// IndexTransactions returns rebalancing transactions of an index.
func (a *API) IndexTransactions(ctx context.Context, q Query, opts ...pagination.FetchOption) (*pagination.Result, error) {
	if q.IndexID == 0 {
		return nil, ErrMissingIndexID
	}
	return a.aggregate(ctx, EndpointIndexTransactions, q, opts...), nil
}

// SectorIndexTransactions returns rebalancing transactions of a sector index.
func (a *API) SectorIndexTransactions(ctx context.Context, q Query, opts ...pagination.FetchOption) (*pagination.Result, error) {
	if q.IndexID == 0 {
		return nil, ErrMissingIndexID
	}
	return a.aggregate(ctx, EndpointSectorIndexTransactions, q, opts...), nil
}

// Tokens lists supported tokens.
func (a *API) Tokens(ctx context.Context, q Query) (any, error) {
	return a.single(ctx, EndpointTokens, q.Params())
}

// TopMarketCapTokens lists the topK tokens by market cap.
func (a *API) TopMarketCapTokens(ctx context.Context, topK int) (any, error) {
	if topK <= 0 {
		topK = 100
	}
	return a.exec.Call(ctx, http.MethodGet, EndpointTopMarketCapTokens, pagination.Params{
		"top_k":              topK,
		pagination.ParamPage: 0,
	})
}

// ResistanceSupport returns support and resistance levels.
func (a *API) ResistanceSupport(ctx context.Context, q Query) (any, error) {
	if !q.hasToken() {
		return nil, ErrMissingSymbol
	}
	return a.single(ctx, EndpointResistanceSupport, q.Params())
}

// ScenarioAnalysis returns price predictions under market scenarios.
func (a *API) ScenarioAnalysis(ctx context.Context, q Query) (any, error) {
	if !q.hasToken() {
		return nil, ErrMissingSymbol
	}
	return a.single(ctx, EndpointScenarioAnalysis, q.Params())
}

// IndexHoldings returns the current holdings of an index.
func (a *API) IndexHoldings(ctx context.Context, q Query) (any, error) {
	if q.IndexID == 0 {
		return nil, ErrMissingIndexID
	}
	return a.single(ctx, EndpointIndexHoldings, q.Params())
}

// SectorIndexHoldings returns the holdings of a sector index on a date.
func (a *API) SectorIndexHoldings(ctx context.Context, q Query) (any, error) {
	if q.IndexID == 0 {
		return nil, ErrMissingIndexID
	}
	return a.single(ctx, EndpointSectorIndexHoldings, q.Params())
}

// CryptoInvestors lists tracked crypto investors.
func (a *API) CryptoInvestors(ctx context.Context, q Query) (any, error) {
	return a.single(ctx, EndpointCryptoInvestors, q.Params())
}

// AIReports returns generated research reports.
func (a *API) AIReports(ctx context.Context, q Query) (any, error) {
	return a.single(ctx, EndpointAIReports, q.Params())
}

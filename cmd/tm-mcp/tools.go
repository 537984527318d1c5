package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/tmai-client/pkg/daterange"
	"github.com/Sternrassler/tmai-client/pkg/masa"
	"github.com/Sternrassler/tmai-client/pkg/tokenmetrics"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// Tool names.
const (
	toolTokenInfo      = "get_token_info"
	toolPopularTokens  = "list_popular_cryptocurrencies"
	toolTradingSignals = "get_trading_signals"
	toolTraderGrades   = "get_trader_grades"
	toolTokenSentiment = "get_token_sentiment"
)

const defaultGradeDays = 7

var errSentimentDisabled = errors.New("sentiment search is not configured (MASA_API_KEY missing)")

type sentimentSource interface {
	SentimentForToken(ctx context.Context, token string) (*masa.Sentiment, error)
}

type tools struct {
	api       *tokenmetrics.API
	sentiment sentimentSource
	logger    zerolog.Logger
	now       func() time.Time
}

type tokenInfoInput struct {
	Symbol string `json:"symbol" jsonschema:"token symbol to search for, e.g. BTC"`
	Name   string `json:"name,omitempty" jsonschema:"token name to narrow the match, e.g. Bitcoin"`
}

type tokenInfoOutput struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Data    *tokenmetrics.Token `json:"data,omitempty"`
}

type signalsInput struct {
	TokenSymbols []string `json:"token_symbols" jsonschema:"symbols of popular tokens, e.g. BTC and ETH"`
	Days         int      `json:"days,omitempty" jsonschema:"days of history, default 3"`
}

type signalsOutput struct {
	Success bool                         `json:"success"`
	Message string                       `json:"message"`
	Length  int                          `json:"length"`
	Data    []tokenmetrics.TradingSignal `json:"data"`
}

type gradesInput struct {
	Symbol    string `json:"symbol" jsonschema:"token symbol, e.g. BTC"`
	StartDate string `json:"start_date,omitempty" jsonschema:"first day, YYYY-MM-DD"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"last day, YYYY-MM-DD"`
	Days      int    `json:"days,omitempty" jsonschema:"days back from today when no dates are given, default 7"`
}

type sentimentInput struct {
	TokenSymbol string `json:"token_symbol" jsonschema:"symbol of the token, e.g. SOL"`
}

func (t *tools) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        toolTokenInfo,
		Description: "Look up the Token Metrics TOKEN_ID, TOKEN_NAME and TOKEN_SYMBOL of a token by symbol and optional name.",
	}, t.tokenInfo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolPopularTokens,
		Description: "List popular cryptocurrencies and their Token Metrics ids.",
	}, t.popularTokens)

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolTradingSignals,
		Description: "Get recent trading signals (buy, hold, sell), trend and grades for popular tokens by symbol.",
	}, t.tradingSignals)

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolTraderGrades,
		Description: "Get daily Token Metrics trader grades for a token over a date range.",
	}, t.traderGrades)

	mcp.AddTool(server, &mcp.Tool{
		Name:        toolTokenSentiment,
		Description: "Summarize the current sentiment on X/Twitter about a token.",
	}, t.tokenSentiment)
}

func (t *tools) tokenInfo(ctx context.Context, _ *mcp.CallToolRequest, in tokenInfoInput) (*mcp.CallToolResult, tokenInfoOutput, error) {
	if strings.TrimSpace(in.Symbol) == "" {
		return nil, tokenInfoOutput{}, tokenmetrics.ErrMissingSymbol
	}

	token, err := t.api.FindToken(ctx, in.Symbol, in.Name)
	if errors.Is(err, tokenmetrics.ErrTokenNotFound) {
		return nil, tokenInfoOutput{Message: fmt.Sprintf("no token found for symbol %q", in.Symbol)}, nil
	}
	if err != nil {
		return nil, tokenInfoOutput{}, err
	}
	return nil, tokenInfoOutput{Success: true, Message: "token found", Data: token}, nil
}

func (t *tools) popularTokens(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	return textResult(tokenmetrics.FormatPopularTokens()), nil, nil
}

func (t *tools) tradingSignals(ctx context.Context, _ *mcp.CallToolRequest, in signalsInput) (*mcp.CallToolResult, signalsOutput, error) {
	signals, err := t.api.SignalsForSymbols(ctx, in.TokenSymbols, in.Days)
	if err != nil {
		return nil, signalsOutput{}, err
	}

	out := signalsOutput{
		Success: true,
		Message: fmt.Sprintf("%d trading signals", len(signals)),
		Length:  len(signals),
		Data:    signals,
	}
	if out.Data == nil {
		out.Data = []tokenmetrics.TradingSignal{}
	}

	text := tokenmetrics.FormatTradingSignals(signals)
	if text == "" {
		text = "No trading signals found."
	}
	return textResult(text), out, nil
}

func (t *tools) traderGrades(ctx context.Context, _ *mcp.CallToolRequest, in gradesInput) (*mcp.CallToolResult, any, error) {
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	if symbol == "" {
		return nil, nil, tokenmetrics.ErrMissingSymbol
	}

	start, end := in.StartDate, in.EndDate
	if start == "" || end == "" {
		days := in.Days
		if days <= 0 {
			days = defaultGradeDays
		}
		start, end = daterange.RangeEndingAt(t.now(), days)
	}

	q := tokenmetrics.Query{Symbols: []string{symbol}, StartDate: start, EndDate: end}
	if id, ok := tokenmetrics.PopularTokenID(symbol); ok {
		q = tokenmetrics.Query{TokenIDs: []int{id}, StartDate: start, EndDate: end}
	}

	res := t.api.TraderGrades(ctx, q)
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode trader grades: %w", err)
	}
	return textResult(string(b)), nil, nil
}

func (t *tools) tokenSentiment(ctx context.Context, _ *mcp.CallToolRequest, in sentimentInput) (*mcp.CallToolResult, masa.Sentiment, error) {
	if t.sentiment == nil {
		return nil, masa.Sentiment{}, errSentimentDisabled
	}
	res, err := t.sentiment.SentimentForToken(ctx, in.TokenSymbol)
	if err != nil {
		t.logger.Warn().Err(err).Str("token", in.TokenSymbol).Msg("Sentiment lookup failed")
		return nil, masa.Sentiment{}, err
	}
	return textResult(res.Analysis), *res, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

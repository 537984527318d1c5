package tokenmetrics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/tmai-client/pkg/daterange"
)

// ErrUnknownSymbols is returned when none of the requested symbols resolve.
var ErrUnknownSymbols = errors.New("no valid token ids for the provided symbols")

// TradingSignal is one row of the trading-signals resource.
type TradingSignal struct {
	TokenID               int     `json:"TOKEN_ID"`
	TokenName             string  `json:"TOKEN_NAME"`
	TokenSymbol           string  `json:"TOKEN_SYMBOL"`
	Date                  string  `json:"DATE"`
	TradingSignal         int     `json:"TRADING_SIGNAL"`
	TokenTrend            int     `json:"TOKEN_TREND"`
	TradingSignalsReturns float64 `json:"TRADING_SIGNALS_RETURNS"`
	HoldingReturns        float64 `json:"HOLDING_RETURNS"`
	TraderGrade           float64 `json:"TM_TRADER_GRADE"`
	InvestorGrade         float64 `json:"TM_INVESTOR_GRADE"`
	Link                  string  `json:"TM_LINK"`
}

// Day returns the YYYY-MM-DD part of Date.
func (s TradingSignal) Day() string {
	if len(s.Date) >= len(daterange.Layout) {
		return s.Date[:len(daterange.Layout)]
	}
	return s.Date
}

// SignalLabel maps a signal value to Buy, Hold or Sell.
func SignalLabel(signal int) string {
	switch signal {
	case 1:
		return "Buy"
	case 0:
		return "Hold"
	default:
		return "Sell"
	}
}

func trendArrow(trend int) string {
	switch trend {
	case 1:
		return "↑"
	case -1:
		return "↓"
	default:
		return "-"
	}
}

func trendLabel(trend int) string {
	switch trend {
	case 1:
		return "Upward"
	case -1:
		return "Downward"
	default:
		return "Neutral"
	}
}

// SignalsForSymbols fetches trading signals of the last days days for
// popular-token symbols. Unknown symbols are skipped.
func (a *API) SignalsForSymbols(ctx context.Context, symbols []string, days int) ([]TradingSignal, error) {
	if len(symbols) == 0 {
		return nil, ErrMissingSymbol
	}

	ids, unknown := TokenIDs(symbols)
	if len(unknown) > 0 {
		a.logger.Debug().Strs("symbols", unknown).Msg("Skipping symbols without a known token id")
	}
	if len(ids) == 0 {
		return nil, ErrUnknownSymbols
	}

	if days <= 0 {
		days = 3
	}
	start, end := daterange.RangeEndingAt(a.now(), days)

	res := a.TradingSignals(ctx, Query{TokenIDs: ids, StartDate: start, EndDate: end})

	var signals []TradingSignal
	if err := res.Decode(&signals); err != nil {
		return nil, fmt.Errorf("decode trading signals: %w", err)
	}
	return signals, nil
}

// FormatTradingSignals renders up to ten rows as a table followed by a
// summary of the first row. It returns "" for no rows.
func FormatTradingSignals(signals []TradingSignal) string {
	if len(signals) == 0 {
		return ""
	}

	first := signals[0]

	var b strings.Builder
	fmt.Fprintf(&b, "Trading Signals for %s (%s):\n\n", first.TokenName, first.TokenSymbol)
	b.WriteString("Date | Signal | Trend | Trader Grade | Investor Grade | Returns\n")
	b.WriteString("----|--------|-------|--------------|----------------|--------\n")

	rows := signals
	if len(rows) > 10 {
		rows = rows[:10]
	}
	for _, s := range rows {
		fmt.Fprintf(&b, "%s | %s | %s | %.2f | %.2f | %.2f\n",
			s.Day(), SignalLabel(s.TradingSignal), trendArrow(s.TokenTrend),
			s.TraderGrade, s.InvestorGrade, s.TradingSignalsReturns)
	}

	fmt.Fprintf(&b, "\nLatest Analysis (%s):\n", first.Day())
	fmt.Fprintf(&b, "- Current Trading Signal: %s\n", SignalLabel(first.TradingSignal))
	fmt.Fprintf(&b, "- Current Trend: %s\n", trendLabel(first.TokenTrend))
	fmt.Fprintf(&b, "- Trader Grade: %.2f/100\n", first.TraderGrade)
	fmt.Fprintf(&b, "- Investor Grade: %.2f/100\n", first.InvestorGrade)

	return b.String()
}

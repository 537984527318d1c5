package tokenmetrics

import (
	"github.com/Sternrassler/tmai-client/pkg/pagination"
)

// Query holds the filters shared by most resources. Zero values are omitted
// from the request.
type Query struct {
	TokenIDs  []int
	Symbols   []string
	TokenName string
	Category  string
	Exchange  string

	// StartDate and EndDate are YYYY-MM-DD.
	StartDate string
	EndDate   string

	// Date selects a single day for holdings snapshots.
	Date string

	IndexID int

	// Minimum thresholds in USD.
	MarketCap float64
	Volume    float64
	FDV       float64

	// Signal filters trading signals: 1 bullish, -1 bearish, 0 none.
	Signal *int

	// Extra carries resource-specific parameters verbatim.
	Extra pagination.Params
}

// Params converts the query to request parameters.
func (q Query) Params() pagination.Params {
	p := q.Extra.Clone()

	if len(q.TokenIDs) > 0 {
		p["token_id"] = q.TokenIDs
	}
	if len(q.Symbols) > 0 {
		p["symbol"] = q.Symbols
	}
	setString(p, "token_name", q.TokenName)
	setString(p, "category", q.Category)
	setString(p, "exchange", q.Exchange)
	setString(p, pagination.ParamStartDate, q.StartDate)
	setString(p, pagination.ParamEndDate, q.EndDate)
	setString(p, "date", q.Date)

	if q.IndexID != 0 {
		p["index_id"] = q.IndexID
	}
	if q.MarketCap > 0 {
		p["marketcap"] = q.MarketCap
	}
	if q.Volume > 0 {
		p["volume"] = q.Volume
	}
	if q.FDV > 0 {
		p["fdv"] = q.FDV
	}
	if q.Signal != nil {
		p["signal"] = *q.Signal
	}

	return p
}

// hasToken reports whether the query names at least one token.
func (q Query) hasToken() bool {
	return len(q.Symbols) > 0 || len(q.TokenIDs) > 0 ||
		q.Extra.String("symbol") != "" || q.Extra.String("token_id") != ""
}

func setString(p pagination.Params, key, value string) {
	if value != "" {
		p[key] = value
	}
}

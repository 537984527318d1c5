package tokenmetrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrTokenNotFound is returned by FindToken when no listing matches.
var ErrTokenNotFound = errors.New("token not found")

// Token is one entry of the tokens listing.
type Token struct {
	ID     int    `json:"TOKEN_ID"`
	Name   string `json:"TOKEN_NAME"`
	Symbol string `json:"TOKEN_SYMBOL"`
}

// PopularTokens lists well-known tokens with their ids, in display order.
var PopularTokens = []Token{
	{ID: 3375, Name: "Bitcoin", Symbol: "BTC"},
	{ID: 3377, Name: "Ethereum", Symbol: "ETH"},
	{ID: 3432, Name: "Solana", Symbol: "SOL"},
	{ID: 3408, Name: "Binance Coin", Symbol: "BNB"},
	{ID: 3449, Name: "XRP", Symbol: "XRP"},
	{ID: 3410, Name: "Cardano", Symbol: "ADA"},
	{ID: 3426, Name: "Avalanche", Symbol: "AVAX"},
	{ID: 3418, Name: "Dogecoin", Symbol: "DOGE"},
	{ID: 3446, Name: "Toncoin", Symbol: "TON"},
	{ID: 13249, Name: "Shiba Inu", Symbol: "SHIB"},
}

// PopularTokenID returns the id of a popular token by symbol.
func PopularTokenID(symbol string) (int, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, t := range PopularTokens {
		if t.Symbol == symbol {
			return t.ID, true
		}
	}
	return 0, false
}

// TokenIDs resolves symbols through PopularTokens. Unknown symbols are
// returned separately, in input order.
func TokenIDs(symbols []string) (ids []int, unknown []string) {
	for _, s := range symbols {
		if id, ok := PopularTokenID(s); ok {
			ids = append(ids, id)
		} else {
			unknown = append(unknown, s)
		}
	}
	return ids, unknown
}

// FormatPopularTokens renders PopularTokens as a plain-text list.
func FormatPopularTokens() string {
	var b strings.Builder
	b.WriteString("Popular Cryptocurrencies:\n\n")
	for _, t := range PopularTokens {
		fmt.Fprintf(&b, "- %s (%s): ID = %d\n", t.Name, t.Symbol, t.ID)
	}
	return b.String()
}

// FindToken looks a token up by exact symbol and name (case-insensitive).
// An empty name matches the first listing with the symbol.
func (a *API) FindToken(ctx context.Context, symbol, name string) (*Token, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrMissingSymbol
	}

	raw, err := a.Tokens(ctx, Query{Symbols: []string{symbol}})
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	var listing struct {
		Data []Token `json:"data"`
	}
	if err := remarshal(raw, &listing); err != nil {
		return nil, fmt.Errorf("decode tokens: %w", err)
	}

	name = strings.TrimSpace(name)
	for _, t := range listing.Data {
		if strings.EqualFold(t.Symbol, symbol) && (name == "" || strings.EqualFold(t.Name, name)) {
			found := t
			return &found, nil
		}
	}

	return nil, fmt.Errorf("%w: symbol %s and name %s", ErrTokenNotFound, symbol, name)
}

// remarshal converts a generic decoded JSON value into out.
func remarshal(raw any, out any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

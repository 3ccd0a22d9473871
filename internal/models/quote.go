package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SettlementCurrency is the local unit every quote is denominated against.
const SettlementCurrency = "SDG"

// CurrencyQuote is one scraped row. Degraded marks a row whose price cell
// failed numeric parsing and was defaulted to zero at ingestion; degraded
// rows still show up in snapshots and trends.
type CurrencyQuote struct {
	Currency string          `json:"currency"`
	Buying   decimal.Decimal `json:"buying"`
	Selling  decimal.Decimal `json:"selling"`
	Other    string          `json:"other,omitempty"`
	Degraded bool            `json:"degraded,omitempty"`
}

// Snapshot is the full quote set captured for one calendar date.
// It is immutable once written; re-ingesting a date replaces it wholesale.
type Snapshot struct {
	Date   Date            `json:"date"`
	Quotes []CurrencyQuote `json:"quotes"`
}

// Lookup finds a quote by currency name, case-insensitively.
func (s Snapshot) Lookup(currency string) (CurrencyQuote, bool) {
	currency = strings.TrimSpace(currency)
	for _, q := range s.Quotes {
		if strings.EqualFold(q.Currency, currency) {
			return q, true
		}
	}
	return CurrencyQuote{}, false
}

// RateKind selects which quoted price a lookup or conversion uses.
type RateKind string

const (
	RateBuying  RateKind = "buying"
	RateSelling RateKind = "selling"
)

// ParseRateKind is lenient about the common spellings; empty defaults to
// buying, anything else is rejected.
func ParseRateKind(s string) (RateKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "buy", "buying", "buying price":
		return RateBuying, nil
	case "sell", "selling", "selling price":
		return RateSelling, nil
	}
	return "", BizError("bad_request", "rate kind must be buying or selling")
}

// TrendPoint is one (date, buying price) observation.
type TrendPoint struct {
	Date   Date            `json:"date"`
	Buying decimal.Decimal `json:"buying"`
}

// CurrencyTrend is one currency's observations, ascending by date.
type CurrencyTrend struct {
	Currency string       `json:"currency"`
	Points   []TrendPoint `json:"points"`
}

// TrendSeries is the merged cross-snapshot view, one entry per currency in
// order of first appearance. Rebuilt from the store on demand.
type TrendSeries []CurrencyTrend

// Lookup finds a currency's trend, case-insensitively.
func (ts TrendSeries) Lookup(currency string) (CurrencyTrend, bool) {
	currency = strings.TrimSpace(currency)
	for _, ct := range ts {
		if strings.EqualFold(ct.Currency, currency) {
			return ct, true
		}
	}
	return CurrencyTrend{}, false
}

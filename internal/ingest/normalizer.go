// Package ingest turns raw scraped row-sets into canonical snapshots.
// All cell-level duck typing lives here; downstream code only ever sees
// typed quotes.
package ingest

import (
	"strings"

	"github.com/shopspring/decimal"

	"service-exchange/internal/models"
)

// Columns are assigned positionally; source column labels are not trusted.
const (
	colCurrency = 0
	colBuying   = 1
	colSelling  = 2
	colOther    = 3

	minColumns = 3
)

// Normalize builds the Snapshot for date from a raw row-set.
//
// The first row is dropped as a header when neither price cell parses as a
// number. A price cell that fails to parse (or is negative) degrades to
// zero instead of failing: upstream scrape and translation quality is not
// reliable enough for a hard failure. Duplicate currency names keep the
// last value at the first position.
func Normalize(date models.Date, rows [][]string) (models.Snapshot, error) {
	for _, row := range rows {
		if len(row) < minColumns {
			return models.Snapshot{}, models.BizError(models.CodeSchema,
				"row-set has rows with fewer than 3 columns")
		}
	}

	if len(rows) > 0 && isHeaderRow(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return models.Snapshot{}, models.BizError(models.CodeEmptyData,
			"row-set has no data rows")
	}

	snap := models.Snapshot{Date: date}
	position := make(map[string]int, len(rows))

	for _, row := range rows {
		q := models.CurrencyQuote{Currency: strings.TrimSpace(row[colCurrency])}

		var degraded bool
		q.Buying, degraded = parsePrice(row[colBuying])
		q.Degraded = degraded
		q.Selling, degraded = parsePrice(row[colSelling])
		q.Degraded = q.Degraded || degraded

		if len(row) > colOther {
			q.Other = strings.TrimSpace(row[colOther])
		}

		if i, seen := position[q.Currency]; seen {
			snap.Quotes[i] = q
			continue
		}
		position[q.Currency] = len(snap.Quotes)
		snap.Quotes = append(snap.Quotes, q)
	}

	return snap, nil
}

// isHeaderRow reports whether row looks like a label row: both price
// columns non-numeric.
func isHeaderRow(row []string) bool {
	_, buyDegraded := parsePrice(row[colBuying])
	_, sellDegraded := parsePrice(row[colSelling])
	return buyDegraded && sellDegraded
}

// parsePrice parses a price cell permissively and reports whether the row
// had to be degraded to zero.
func parsePrice(cell string) (decimal.Decimal, bool) {
	s := cleanNumeric(cell)
	if s == "" {
		return decimal.Zero, true
	}

	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, true
	}
	return d, false
}

// cleanNumeric strips thousands separators and layout noise without
// assuming a locale.
func cleanNumeric(s string) string {
	replacer := strings.NewReplacer(",", "", " ", "", " ", "", "٬", "")
	return replacer.Replace(strings.TrimSpace(s))
}

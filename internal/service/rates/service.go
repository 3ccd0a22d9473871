// Package rates answers point-in-time and historical questions about the
// snapshot store: current/by-date resolution, neighboring dates,
// currency lookup, conversion and the cross-snapshot trend.
package rates

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"service-exchange/internal/models"
)

const trendReaders = 4

type Storage interface {
	ListDates(ctx context.Context) ([]models.Date, error)
	Read(ctx context.Context, date models.Date) (models.Snapshot, error)
	ReadRaw(ctx context.Context, date models.Date) ([]byte, error)
}

type Service struct {
	st Storage
}

func New(st Storage) *Service { return &Service{st: st} }

// Dates returns the snapshot index, ascending. The index is re-read on
// every call; nothing is cached across requests.
func (s *Service) Dates(ctx context.Context) ([]models.Date, error) {
	dates, err := s.st.ListDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}
	return dates, nil
}

// ResolveSnapshot returns the snapshot for requested when it parses and
// exists, and the latest snapshot otherwise. An unparseable or unknown
// requested date is the same as no date at all.
func (s *Service) ResolveSnapshot(ctx context.Context, requested string) (models.Snapshot, error) {
	dates, err := s.Dates(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}
	if len(dates) == 0 {
		return models.Snapshot{}, models.BizError(models.CodeNoData, "no exchange rate data")
	}

	target := dates[len(dates)-1]
	if requested != "" {
		if d, err := models.ParseDate(requested); err == nil && containsDate(dates, d) {
			target = d
		}
	}

	snap, err := s.st.Read(ctx, target)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read snapshot %s: %w", target, err)
	}
	return snap, nil
}

// Neighbors returns the greatest stored date before date and the least
// stored date after it. Navigation is driven purely by index order;
// scraping gaps are expected and do not matter.
func (s *Service) Neighbors(ctx context.Context, date models.Date) (prev, next *models.Date, err error) {
	dates, err := s.Dates(ctx)
	if err != nil {
		return nil, nil, err
	}

	for i := range dates {
		d := dates[i]
		if d.Before(date) {
			prev = &dates[i]
			continue
		}
		if d.After(date) {
			next = &dates[i]
			break
		}
	}
	return prev, next, nil
}

// LookupRate returns the requested price for currency, matched
// case-insensitively.
func LookupRate(snap models.Snapshot, currency string, kind models.RateKind) (decimal.Decimal, error) {
	q, ok := snap.Lookup(currency)
	if !ok {
		return decimal.Decimal{}, models.BizError(models.CodeCurrencyNotFound,
			fmt.Sprintf("currency %q not found in snapshot %s", currency, snap.Date))
	}

	if kind == models.RateSelling {
		return q.Selling, nil
	}
	return q.Buying, nil
}

// Convert computes amount in the settlement currency against the selected
// rate. Decimal arithmetic, no rounding.
func Convert(snap models.Snapshot, amount decimal.Decimal, currency string, kind models.RateKind) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Decimal{}, models.BizError(models.CodeInvalidAmount,
			"amount must be a non-negative number")
	}

	rate, err := LookupRate(snap, currency, kind)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(rate), nil
}

// BuildTrend folds every stored snapshot, ascending by date, into one
// series per currency. Currencies keep the display name of their first
// occurrence and are keyed case-insensitively; a currency absent on some
// date simply has no point there. Degraded rows contribute their zero.
func (s *Service) BuildTrend(ctx context.Context) (models.TrendSeries, error) {
	dates, err := s.Dates(ctx)
	if err != nil {
		return nil, err
	}

	snaps := make([]models.Snapshot, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(trendReaders)
	for i, d := range dates {
		i, d := i, d
		g.Go(func() error {
			snap, err := s.st.Read(gctx, d)
			if err != nil {
				return fmt.Errorf("read snapshot %s: %w", d, err)
			}
			snaps[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var series models.TrendSeries
	index := make(map[string]int)
	for _, snap := range snaps {
		for _, q := range snap.Quotes {
			key := foldKey(q.Currency)
			i, seen := index[key]
			if !seen {
				i = len(series)
				index[key] = i
				series = append(series, models.CurrencyTrend{Currency: q.Currency})
			}
			series[i].Points = append(series[i].Points, models.TrendPoint{
				Date:   snap.Date,
				Buying: q.Buying,
			})
		}
	}
	return series, nil
}

// LatestRaw returns the newest persisted record verbatim together with
// its canonical file name, for the download surface.
func (s *Service) LatestRaw(ctx context.Context) ([]byte, string, error) {
	dates, err := s.Dates(ctx)
	if err != nil {
		return nil, "", err
	}
	if len(dates) == 0 {
		return nil, "", models.BizError(models.CodeNoData, "no exchange rate data")
	}

	latest := dates[len(dates)-1]
	raw, err := s.st.ReadRaw(ctx, latest)
	if err != nil {
		return nil, "", fmt.Errorf("read raw snapshot %s: %w", latest, err)
	}
	return raw, "exchange_rates_" + latest.String() + ".csv", nil
}

func containsDate(dates []models.Date, d models.Date) bool {
	for _, existing := range dates {
		if existing.Equal(d) {
			return true
		}
	}
	return false
}

// foldKey is the case-insensitive merge key; the stored display name is
// preserved separately.
func foldKey(currency string) string {
	return strings.ToLower(strings.TrimSpace(currency))
}

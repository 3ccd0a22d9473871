package rates_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-exchange/internal/models"
	"service-exchange/internal/repository/csvstore"
	"service-exchange/internal/service/rates"
)

func day(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func quote(currency, buying, selling string) models.CurrencyQuote {
	return models.CurrencyQuote{
		Currency: currency,
		Buying:   decimal.RequireFromString(buying),
		Selling:  decimal.RequireFromString(selling),
	}
}

// seededService writes the given snapshots into a fresh CSV store and
// returns a service reading from it.
func seededService(t *testing.T, snaps ...models.Snapshot) *rates.Service {
	t.Helper()
	store, err := csvstore.New(t.TempDir())
	require.NoError(t, err)
	for _, snap := range snaps {
		require.NoError(t, store.Write(context.Background(), snap))
	}
	return rates.New(store)
}

func threeDayService(t *testing.T) *rates.Service {
	t.Helper()
	return seededService(t,
		models.Snapshot{Date: day(t, "2024-01-01"), Quotes: []models.CurrencyQuote{
			quote("USD", "600", "610"),
		}},
		models.Snapshot{Date: day(t, "2024-01-05"), Quotes: []models.CurrencyQuote{
			quote("USD", "605", "615"),
		}},
		models.Snapshot{Date: day(t, "2024-01-09"), Quotes: []models.CurrencyQuote{
			quote("USD", "610", "620"),
			quote("EUR", "650", "660"),
		}},
	)
}

func TestService_ResolveSnapshot_DefaultsToLatest(t *testing.T) {
	svc := threeDayService(t)

	snap, err := svc.ResolveSnapshot(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "2024-01-09", snap.Date.String())
	assert.Len(t, snap.Quotes, 2)
}

func TestService_ResolveSnapshot_ExactDate(t *testing.T) {
	svc := threeDayService(t)

	snap, err := svc.ResolveSnapshot(context.Background(), "2024-01-05")

	require.NoError(t, err)
	assert.Equal(t, "2024-01-05", snap.Date.String())
}

func TestService_ResolveSnapshot_UnknownDateFallsBackToLatest(t *testing.T) {
	svc := threeDayService(t)

	// A date with no snapshot and an unparseable one behave the same.
	for _, requested := range []string{"2024-01-03", "yesterday", "01/05/2024"} {
		snap, err := svc.ResolveSnapshot(context.Background(), requested)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-09", snap.Date.String())
	}
}

func TestService_ResolveSnapshot_EmptyStore(t *testing.T) {
	svc := seededService(t)

	_, err := svc.ResolveSnapshot(context.Background(), "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNoData))
}

func TestService_Neighbors(t *testing.T) {
	svc := threeDayService(t)

	prev, next, err := svc.Neighbors(context.Background(), day(t, "2024-01-05"))
	require.NoError(t, err)
	require.NotNil(t, prev)
	require.NotNil(t, next)
	assert.Equal(t, "2024-01-01", prev.String())
	assert.Equal(t, "2024-01-09", next.String())
}

func TestService_Neighbors_AtExtremes(t *testing.T) {
	svc := threeDayService(t)

	prev, next, err := svc.Neighbors(context.Background(), day(t, "2024-01-01"))
	require.NoError(t, err)
	assert.Nil(t, prev)
	require.NotNil(t, next)
	assert.Equal(t, "2024-01-05", next.String())

	prev, next, err = svc.Neighbors(context.Background(), day(t, "2024-01-09"))
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "2024-01-05", prev.String())
	assert.Nil(t, next)
}

func TestLookupRate_CaseInsensitive(t *testing.T) {
	snap := models.Snapshot{Date: models.Date{}, Quotes: []models.CurrencyQuote{
		quote("USD", "600", "610"),
	}}

	rate, err := rates.LookupRate(snap, "usd", models.RateBuying)
	require.NoError(t, err)
	assert.Equal(t, "600", rate.String())

	rate, err = rates.LookupRate(snap, "Usd", models.RateSelling)
	require.NoError(t, err)
	assert.Equal(t, "610", rate.String())
}

func TestLookupRate_UnknownCurrency(t *testing.T) {
	snap := models.Snapshot{Quotes: []models.CurrencyQuote{
		quote("USD", "600", "610"),
	}}

	_, err := rates.LookupRate(snap, "XYZ", models.RateBuying)

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrCurrencyNotFound))
}

func TestConvert_ExactDecimalProduct(t *testing.T) {
	snap := models.Snapshot{Quotes: []models.CurrencyQuote{
		quote("USD", "600.25", "610"),
	}}

	amount := decimal.RequireFromString("3.5")
	result, err := rates.Convert(snap, amount, "USD", models.RateBuying)

	require.NoError(t, err)
	rate, err := rates.LookupRate(snap, "USD", models.RateBuying)
	require.NoError(t, err)
	assert.True(t, result.Equal(amount.Mul(rate)))
	assert.Equal(t, "2100.875", result.String())
}

func TestConvert_NegativeAmount(t *testing.T) {
	snap := models.Snapshot{Quotes: []models.CurrencyQuote{
		quote("USD", "600", "610"),
	}}

	_, err := rates.Convert(snap, decimal.NewFromInt(-5), "USD", models.RateBuying)

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidAmount))
}

func TestConvert_UnknownCurrency(t *testing.T) {
	snap := models.Snapshot{Quotes: []models.CurrencyQuote{
		quote("USD", "600", "610"),
	}}

	_, err := rates.Convert(snap, decimal.NewFromInt(5), "XYZ", models.RateBuying)

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrCurrencyNotFound))
}

func TestService_BuildTrend(t *testing.T) {
	svc := seededService(t,
		models.Snapshot{Date: day(t, "2024-01-01"), Quotes: []models.CurrencyQuote{
			quote("USD", "600", "610"),
		}},
		models.Snapshot{Date: day(t, "2024-01-02"), Quotes: []models.CurrencyQuote{
			quote("USD", "610", "620"),
			quote("EUR", "650", "660"),
		}},
	)

	series, err := svc.BuildTrend(context.Background())
	require.NoError(t, err)
	require.Len(t, series, 2)

	usd, ok := series.Lookup("USD")
	require.True(t, ok)
	require.Len(t, usd.Points, 2)
	assert.Equal(t, "2024-01-01", usd.Points[0].Date.String())
	assert.Equal(t, "600", usd.Points[0].Buying.String())
	assert.Equal(t, "2024-01-02", usd.Points[1].Date.String())
	assert.Equal(t, "610", usd.Points[1].Buying.String())

	// No point is invented for EUR on the day it was absent.
	eur, ok := series.Lookup("EUR")
	require.True(t, ok)
	require.Len(t, eur.Points, 1)
	assert.Equal(t, "2024-01-02", eur.Points[0].Date.String())
	assert.Equal(t, "650", eur.Points[0].Buying.String())
}

func TestService_BuildTrend_MergesCaseInsensitively(t *testing.T) {
	svc := seededService(t,
		models.Snapshot{Date: day(t, "2024-01-01"), Quotes: []models.CurrencyQuote{
			quote("US Dollar", "600", "610"),
		}},
		models.Snapshot{Date: day(t, "2024-01-02"), Quotes: []models.CurrencyQuote{
			quote("us dollar", "610", "620"),
		}},
	)

	series, err := svc.BuildTrend(context.Background())
	require.NoError(t, err)
	require.Len(t, series, 1)
	// Display name comes from the first occurrence.
	assert.Equal(t, "US Dollar", series[0].Currency)
	assert.Len(t, series[0].Points, 2)
}

func TestService_BuildTrend_EmptyStore(t *testing.T) {
	svc := seededService(t)

	series, err := svc.BuildTrend(context.Background())

	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestService_LatestRaw(t *testing.T) {
	svc := threeDayService(t)

	raw, filename, err := svc.LatestRaw(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "exchange_rates_2024-01-09.csv", filename)
	assert.Contains(t, string(raw), "USD")
	assert.Contains(t, string(raw), "EUR")
}

func TestService_LatestRaw_EmptyStore(t *testing.T) {
	svc := seededService(t)

	_, _, err := svc.LatestRaw(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNoData))
}

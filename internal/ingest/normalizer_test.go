package ingest_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-exchange/internal/ingest"
	"service-exchange/internal/models"
)

func day(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestNormalize_HeaderRemovedAndRowsTyped(t *testing.T) {
	rows := [][]string{
		{"Currency", "Buying Price", "Selling Price", "Other"},
		{"USD", "600", "610", "stable"},
		{"EUR", "650.5", "660", ""},
	}

	snap, err := ingest.Normalize(day(t, "2024-01-01"), rows)

	require.NoError(t, err)
	require.Len(t, snap.Quotes, 2)
	assert.Equal(t, "USD", snap.Quotes[0].Currency)
	assert.Equal(t, "600", snap.Quotes[0].Buying.String())
	assert.Equal(t, "610", snap.Quotes[0].Selling.String())
	assert.Equal(t, "stable", snap.Quotes[0].Other)
	assert.False(t, snap.Quotes[0].Degraded)
	assert.Equal(t, "650.5", snap.Quotes[1].Buying.String())
}

func TestNormalize_NoHeaderRow(t *testing.T) {
	rows := [][]string{
		{"USD", "600", "610"},
	}

	snap, err := ingest.Normalize(day(t, "2024-01-01"), rows)

	require.NoError(t, err)
	require.Len(t, snap.Quotes, 1)
	assert.Equal(t, "USD", snap.Quotes[0].Currency)
}

func TestNormalize_TooFewColumns(t *testing.T) {
	rows := [][]string{
		{"Currency", "Buying Price", "Selling Price"},
		{"USD", "600"},
	}

	_, err := ingest.Normalize(day(t, "2024-01-01"), rows)

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrSchema))
}

func TestNormalize_OnlyHeader(t *testing.T) {
	rows := [][]string{
		{"Currency", "Buying Price", "Selling Price"},
	}

	_, err := ingest.Normalize(day(t, "2024-01-01"), rows)

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmptyData))
}

func TestNormalize_EmptyRowSet(t *testing.T) {
	_, err := ingest.Normalize(day(t, "2024-01-01"), nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmptyData))
}

func TestNormalize_UnparseableCellDegradesToZero(t *testing.T) {
	rows := [][]string{
		{"USD", "not a number", "610"},
		{"EUR", "650", "n/a"},
		{"GBP", "-5", "760"},
	}

	snap, err := ingest.Normalize(day(t, "2024-01-01"), rows)

	require.NoError(t, err)
	require.Len(t, snap.Quotes, 3)

	assert.True(t, snap.Quotes[0].Degraded)
	assert.True(t, snap.Quotes[0].Buying.IsZero())
	assert.Equal(t, "610", snap.Quotes[0].Selling.String())

	assert.True(t, snap.Quotes[1].Degraded)
	assert.Equal(t, "650", snap.Quotes[1].Buying.String())
	assert.True(t, snap.Quotes[1].Selling.IsZero())

	// Negative prices are treated the same as unparseable ones.
	assert.True(t, snap.Quotes[2].Degraded)
	assert.True(t, snap.Quotes[2].Buying.IsZero())
}

func TestNormalize_ThousandsSeparatorsStripped(t *testing.T) {
	rows := [][]string{
		{"USD", "2,435.50", "2 500", ""},
	}

	snap, err := ingest.Normalize(day(t, "2024-01-01"), rows)

	require.NoError(t, err)
	require.Len(t, snap.Quotes, 1)
	assert.False(t, snap.Quotes[0].Degraded)
	assert.Equal(t, "2435.5", snap.Quotes[0].Buying.String())
	assert.Equal(t, "2500", snap.Quotes[0].Selling.String())
}

func TestNormalize_DuplicateCurrencyLastWins(t *testing.T) {
	rows := [][]string{
		{"USD", "600", "610"},
		{"EUR", "650", "660"},
		{"USD", "605", "615"},
	}

	snap, err := ingest.Normalize(day(t, "2024-01-01"), rows)

	require.NoError(t, err)
	require.Len(t, snap.Quotes, 2)
	// Value of the last occurrence at the position of the first.
	assert.Equal(t, "USD", snap.Quotes[0].Currency)
	assert.Equal(t, "605", snap.Quotes[0].Buying.String())
	assert.Equal(t, "EUR", snap.Quotes[1].Currency)
}

func TestNormalize_QuoteCountMatchesDataRows(t *testing.T) {
	rows := [][]string{
		{"Currency", "Buying Price", "Selling Price"},
		{"USD", "600", "610"},
		{"EUR", "broken", "also broken"},
		{"GBP", "750", "760"},
	}

	snap, err := ingest.Normalize(day(t, "2024-01-01"), rows)

	require.NoError(t, err)
	assert.Len(t, snap.Quotes, 3)
}

package postgresql

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"service-exchange/internal/models"
)

var csvHeader = []string{"Currency", "Buying Price", "Selling Price", "Other"}

// SnapshotStorage keeps one row per (date, position). It is the
// database-backed alternative to the CSV store; the overwrite-wholesale
// and ordering semantics are the same.
type SnapshotStorage struct {
	pgpool *pgxpool.Pool
}

func NewSnapshotStorage(pgpool *pgxpool.Pool) *SnapshotStorage {
	return &SnapshotStorage{pgpool: pgpool}
}

// Write replaces the stored snapshot for snap's date in one transaction.
func (s *SnapshotStorage) Write(ctx context.Context, snap models.Snapshot) error {
	if snap.Date.IsZero() {
		return fmt.Errorf("snapshot date is empty")
	}
	asOf := snap.Date.Time

	tx, err := s.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
delete from snapshot_quote where snapshot_date = $1::date;
`, asOf); err != nil {
		return fmt.Errorf("clear snapshot %s: %w", snap.Date, err)
	}

	for i, q := range snap.Quotes {
		_, err := tx.Exec(ctx, `
insert into snapshot_quote (snapshot_date, position, currency, buying, selling, other)
values ($1::date, $2, $3, $4::numeric, $5::numeric, $6);
`, asOf, i, q.Currency, q.Buying.String(), q.Selling.String(), q.Other)
		if err != nil {
			return fmt.Errorf("insert %s@%s: %w", q.Currency, snap.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListDates returns the distinct snapshot dates, ascending.
func (s *SnapshotStorage) ListDates(ctx context.Context) ([]models.Date, error) {
	rows, err := s.pgpool.Query(ctx, `
select distinct snapshot_date
from snapshot_quote
order by snapshot_date asc;
`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot dates: %w", err)
	}
	defer rows.Close()

	var dates []models.Date
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		dates = append(dates, models.DateOf(t.UTC()))
	}
	return dates, rows.Err()
}

// Read loads the snapshot for the exact date.
func (s *SnapshotStorage) Read(ctx context.Context, date models.Date) (models.Snapshot, error) {
	rows, err := s.pgpool.Query(ctx, `
select currency, buying::text, selling::text, other
from snapshot_quote
where snapshot_date = $1::date
order by position asc;
`, date.Time)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("query snapshot %s: %w", date, err)
	}
	defer rows.Close()

	snap := models.Snapshot{Date: date}
	for rows.Next() {
		var q models.CurrencyQuote
		var buying, selling string
		if err := rows.Scan(&q.Currency, &buying, &selling, &q.Other); err != nil {
			return models.Snapshot{}, fmt.Errorf("scan: %w", err)
		}
		if q.Buying, err = decimal.NewFromString(buying); err != nil {
			return models.Snapshot{}, fmt.Errorf("bad buying price %q: %w", buying, err)
		}
		if q.Selling, err = decimal.NewFromString(selling); err != nil {
			return models.Snapshot{}, fmt.Errorf("bad selling price %q: %w", selling, err)
		}
		snap.Quotes = append(snap.Quotes, q)
	}
	if err := rows.Err(); err != nil {
		return models.Snapshot{}, err
	}

	if len(snap.Quotes) == 0 {
		return models.Snapshot{}, models.BizError(models.CodeNotFound,
			fmt.Sprintf("no snapshot for %s", date))
	}
	return snap, nil
}

// ReadRaw renders the stored snapshot in the same CSV record format the
// file store persists, for the download surface.
func (s *SnapshotStorage) ReadRaw(ctx context.Context, date models.Date) ([]byte, error) {
	snap, err := s.Read(ctx, date)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, q := range snap.Quotes {
		if err := w.Write([]string{q.Currency, q.Buying.String(), q.Selling.String(), q.Other}); err != nil {
			return nil, fmt.Errorf("write record %q: %w", q.Currency, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

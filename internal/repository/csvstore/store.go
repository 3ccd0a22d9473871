// Package csvstore persists snapshots as one CSV file per calendar date.
// File names embed the ISO date, so lexicographic name order is date
// order and no separate index is needed.
package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"service-exchange/internal/models"
)

const (
	filePrefix = "exchange_rates_"
	fileSuffix = ".csv"
)

var csvHeader = []string{"Currency", "Buying Price", "Selling Price", "Other"}

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Write persists snap, replacing any existing record for the same date.
// The file is written to a temp name and renamed, so a failed ingestion
// cycle never leaves a partial overwrite behind.
func (s *Store) Write(ctx context.Context, snap models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.Date.IsZero() {
		return fmt.Errorf("snapshot date is empty")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, q := range snap.Quotes {
		record := []string{q.Currency, q.Buying.String(), q.Selling.String(), q.Other}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write record %q: %w", q.Currency, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(snap.Date)); err != nil {
		return fmt.Errorf("rename snapshot %s: %w", snap.Date, err)
	}
	return nil
}

// ListDates returns the dates with stored snapshots, ascending. Files
// that do not match the naming scheme are ignored.
func (s *Store) ListDates(ctx context.Context) ([]models.Date, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir %s: %w", s.dir, err)
	}

	var dates []models.Date
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		raw := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		d, err := models.ParseDate(raw)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// Read loads the snapshot for the exact date.
func (s *Store) Read(ctx context.Context, date models.Date) (models.Snapshot, error) {
	raw, err := s.ReadRaw(ctx, date)
	if err != nil {
		return models.Snapshot{}, err
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("parse snapshot %s: %w", date, err)
	}
	if len(records) > 0 {
		records = records[1:] // header
	}

	snap := models.Snapshot{Date: date}
	for _, rec := range records {
		if len(rec) < 3 {
			return models.Snapshot{}, fmt.Errorf("snapshot %s: record has %d fields", date, len(rec))
		}
		q := models.CurrencyQuote{Currency: rec[0]}
		if q.Buying, err = decimal.NewFromString(rec[1]); err != nil {
			return models.Snapshot{}, fmt.Errorf("snapshot %s: bad buying price %q: %w", date, rec[1], err)
		}
		if q.Selling, err = decimal.NewFromString(rec[2]); err != nil {
			return models.Snapshot{}, fmt.Errorf("snapshot %s: bad selling price %q: %w", date, rec[2], err)
		}
		if len(rec) > 3 {
			q.Other = rec[3]
		}
		snap.Quotes = append(snap.Quotes, q)
	}
	return snap, nil
}

// ReadRaw returns the persisted record bytes unmodified, for the
// download surface.
func (s *Store) ReadRaw(ctx context.Context, date models.Date) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.path(date))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.BizError(models.CodeNotFound,
				fmt.Sprintf("no snapshot for %s", date))
		}
		return nil, fmt.Errorf("read snapshot %s: %w", date, err)
	}
	return raw, nil
}

// Filename returns the persisted record name for date.
func (s *Store) Filename(date models.Date) string {
	return filePrefix + date.String() + fileSuffix
}

func (s *Store) path(date models.Date) string {
	return filepath.Join(s.dir, s.Filename(date))
}

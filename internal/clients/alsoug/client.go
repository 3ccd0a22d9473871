// Package alsoug scrapes the daily exchange-rate table from the alsoug
// currency page and feeds it through the normalizer into the snapshot
// store.
package alsoug

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"service-exchange/internal/ingest"
	"service-exchange/internal/models"
)

const (
	maxBodyBytes = 4 << 20

	// The page refuses obvious bot requests.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"
)

type SnapshotStore interface {
	Write(ctx context.Context, snap models.Snapshot) error
}

type Client struct {
	BaseURL    string
	httpClient *http.Client
	translator Translator
}

func New(sourceURL string, translator Translator) *Client {
	if translator == nil {
		translator = NoopTranslator()
	}
	return &Client{
		BaseURL: sourceURL,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		translator: translator,
	}
}

// FetchTable downloads the source page and extracts the first table as a
// raw row-set, translating every cell on the way out.
func (c *Client) FetchTable(ctx context.Context) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("alsoug http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no exchange rate table found")
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})

	return c.translateRows(ctx, rows)
}

// FetchAndStore runs one ingestion cycle: fetch, normalize, write. Any
// failure aborts the cycle before the store is touched, so a bad scrape
// never corrupts an existing snapshot; the day is simply a gap.
func (c *Client) FetchAndStore(ctx context.Context, store SnapshotStore, date models.Date) (models.Snapshot, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := c.FetchTable(reqCtx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("fetch table: %w", err)
	}

	snap, err := ingest.Normalize(date, rows)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("normalize: %w", err)
	}

	if err := store.Write(reqCtx, snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

func (c *Client) translateRows(ctx context.Context, rows [][]string) ([][]string, error) {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			translated, err := c.translator.Translate(ctx, cell)
			if err != nil {
				return nil, fmt.Errorf("translate cell %q: %w", cell, err)
			}
			out[i][j] = translated
		}
	}
	return out, nil
}

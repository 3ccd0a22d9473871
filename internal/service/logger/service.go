package logger

import (
	"context"
	"fmt"
	"log"
	"strings"
)

type DBRequestLogger struct {
	storage LoggerStorage
}

func New(storage LoggerStorage) *DBRequestLogger {
	return &DBRequestLogger{storage: storage}
}

func (l *DBRequestLogger) LogRequest(ctx context.Context, endpoint string, status *int, dateAsOf *string) error {
	p := cleanPath(endpoint)

	err := l.storage.Insert(ctx, p, status, dateAsOf)
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// StdRequestLogger writes request records to the process log. Used when
// no database is configured.
type StdRequestLogger struct{}

func NewStd() *StdRequestLogger { return &StdRequestLogger{} }

func (*StdRequestLogger) LogRequest(_ context.Context, endpoint string, status *int, dateAsOf *string) error {
	st := 0
	if status != nil {
		st = *status
	}
	asOf := ""
	if dateAsOf != nil {
		asOf = *dateAsOf
	}
	log.Printf("request path=%s status=%d as_of=%s", cleanPath(endpoint), st, asOf)
	return nil
}

func cleanPath(endpoint string) string {
	p := strings.TrimSpace(endpoint)
	p = strings.Trim(p, "/")
	if p == "" {
		p = "unknown"
	}
	return p
}

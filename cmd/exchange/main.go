package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	rateshttp "service-exchange/internal/api/http/rates"
	"service-exchange/internal/clients/alsoug"
	"service-exchange/internal/models"
	"service-exchange/internal/repository/csvstore"
	"service-exchange/internal/repository/migrations"
	"service-exchange/internal/repository/postgresql"
	"service-exchange/internal/service/logger"
	ratessvc "service-exchange/internal/service/rates"
)

// snapshotStore is the full store surface: ingestion writes, queries read.
type snapshotStore interface {
	Write(ctx context.Context, snap models.Snapshot) error
	ListDates(ctx context.Context) ([]models.Date, error)
	Read(ctx context.Context, date models.Date) (models.Snapshot, error)
	ReadRaw(ctx context.Context, date models.Date) ([]byte, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	// env
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Location)
	if err != nil {
		return fmt.Errorf("load location %s: %w", cfg.Location, err)
	}

	// storage: Postgres when configured, per-date CSV files otherwise
	var store snapshotStore
	var reqLogger logger.RequestLogger

	if cfg.DatabaseURL != "" {
		dbCtx, cancelDB := context.WithTimeout(ctx, 5*time.Second)
		defer cancelDB()

		pool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to db: %w", err)
		}
		defer pool.Close()

		migrator := migrations.New(pool)
		if err := migrator.Setup(dbCtx); err != nil {
			return fmt.Errorf("ensure tables: %w", err)
		}

		store = postgresql.NewSnapshotStorage(pool)
		reqLogger = logger.New(postgresql.NewRequestLogStorage(pool))
	} else {
		fsStore, err := csvstore.New(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open csv store: %w", err)
		}
		store = fsStore
		reqLogger = logger.NewStd()
	}

	// scraper client
	client := alsoug.New(cfg.SourceURL, alsoug.NoopTranslator())

	// bootstrap ingestion: fetch once before serving if the store is empty
	dates, err := store.ListDates(ctx)
	if err != nil {
		return fmt.Errorf("list dates: %w", err)
	}
	if len(dates) == 0 {
		log.Println("no snapshots found, running initial scrape")
		if snap, err := client.FetchAndStore(ctx, store, models.DateOf(time.Now().In(loc))); err != nil {
			log.Printf("initial scrape failed: %v", err)
		} else {
			log.Printf("rates saved: date=%s quotes=%d", snap.Date, len(snap.Quotes))
		}
	}

	// cron
	scheduler := cron.New(
		cron.WithLocation(loc),
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)),
	)

	// rates HTTP handler
	ratesService := ratessvc.New(store)
	ratesHandler := rateshttp.New(ratesService, reqLogger)

	mux := http.NewServeMux()
	ratesHandler.Register(mux)

	g, gctx := errgroup.WithContext(ctx)

	_, err = scheduler.AddFunc(cfg.CronSpec, func() {
		date := models.DateOf(time.Now().In(loc))
		if snap, err := client.FetchAndStore(gctx, store, date); err != nil {
			log.Printf("scheduled scrape failed: %v", err)
		} else {
			log.Printf("rates saved: date=%s quotes=%d", snap.Date, len(snap.Quotes))
		}
	})
	if err != nil {
		return fmt.Errorf("add cron func: %w", err)
	}

	g.Go(func() error {
		return runCron(gctx, scheduler)
	})

	g.Go(func() error {
		return serveHTTP(gctx, ":"+cfg.HTTPPort, mux)
	})

	log.Println("Running. Stop with Ctrl+C / SIGTERM.")
	return g.Wait()
}

func runCron(ctx context.Context, c *cron.Cron) error {
	c.Start()
	defer func() {
		stopCtx := c.Stop()
		<-stopCtx.Done()
	}()

	<-ctx.Done()
	return nil
}

func serveHTTP(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Printf("HTTP listening on %s", addr)
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

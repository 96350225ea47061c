// Command ingest loads the rebalance calendar into PostgreSQL and the
// daily bar and overnight rate series into ClickHouse, applying the
// embedded migrations first. Serving the data from the databases lets
// backtest and report run without the source CSV files.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/calendar"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/marketdata"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/observability"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage"
	chstore "github.com/alexanderhaire/index-rebalancing-strategy/internal/storage/clickhouse"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage/migrations"
	pgstore "github.com/alexanderhaire/index-rebalancing-strategy/internal/storage/postgres"
)

func main() {
	calendarPath := flag.String("calendar", "", "Event calendar CSV")
	barsPath := flag.String("bars", "", "Daily bars CSV")
	ratesPath := flag.String("rates", "", "Overnight rates CSV")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required with --calendar)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (required with --bars or --rates)")
	skipDuplicates := flag.Bool("skip-duplicates", false, "Skip rows already present instead of failing")

	flag.Parse()

	logger := log.New(os.Stderr, "[ingest] ", log.LstdFlags)

	if *calendarPath == "" && *barsPath == "" && *ratesPath == "" {
		logger.Fatal("nothing to ingest: set --calendar, --bars, or --rates")
	}
	if *calendarPath != "" && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required with --calendar")
	}
	if (*barsPath != "" || *ratesPath != "") && *clickhouseDSN == "" {
		logger.Fatal("--clickhouse-dsn is required with --bars or --rates")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	if *calendarPath != "" {
		if err := ingestCalendar(ctx, logger, *calendarPath, *postgresDSN, *skipDuplicates); err != nil {
			logger.Fatalf("ingest calendar: %v", err)
		}
	}

	if *barsPath != "" || *ratesPath != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("apply clickhouse migrations: %v", err)
		}
		defer conn.Close()

		if *barsPath != "" {
			if err := ingestBars(ctx, logger, *barsPath, conn); err != nil {
				logger.Fatalf("ingest bars: %v", err)
			}
		}
		if *ratesPath != "" {
			if err := ingestRates(ctx, logger, *ratesPath, conn); err != nil {
				logger.Fatalf("ingest rates: %v", err)
			}
		}
	}
}

func ingestCalendar(ctx context.Context, logger *log.Logger, path, dsn string, skipDuplicates bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := calendar.Load(f)
	if err != nil {
		return err
	}
	for _, rej := range result.Rejected {
		logger.Printf("calendar line %d rejected (%s): %s", rej.Line, rej.Ticker, rej.Reason)
	}
	reasons := make([]string, len(result.Rejected))
	for i, rej := range result.Rejected {
		reasons[i] = rej.Reason
	}
	observability.RecordCalendarLoad(len(result.Events), reasons)

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return err
	}

	store := pgstore.NewEventStore(pool)
	inserted, skipped := 0, 0
	for _, ev := range result.Events {
		err := store.Insert(ctx, ev)
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, storage.ErrDuplicateKey) && skipDuplicates:
			skipped++
		default:
			return err
		}
	}
	logger.Printf("Calendar: %d events inserted, %d duplicates skipped, %d rows rejected",
		inserted, skipped, len(result.Rejected))
	return nil
}

func ingestBars(ctx context.Context, logger *log.Logger, path string, conn *chstore.Conn) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bars, err := marketdata.LoadBarsCSV(f)
	if err != nil {
		return err
	}

	if err := chstore.NewBarStore(conn).InsertBulk(ctx, bars); err != nil {
		return err
	}
	logger.Printf("Bars: %d rows inserted", len(bars))
	return nil
}

func ingestRates(ctx context.Context, logger *log.Logger, path string, conn *chstore.Conn) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rates, err := marketdata.LoadRatesCSV(f)
	if err != nil {
		return err
	}

	if err := chstore.NewRateStore(conn).InsertBulk(ctx, rates); err != nil {
		return err
	}
	logger.Printf("Rates: %d rows inserted", len(rates))
	return nil
}

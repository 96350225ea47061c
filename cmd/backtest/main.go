// Command backtest runs the full event-driven backtest: it loads the
// rebalance calendar and market data, simulates every event under the
// selected strategies, and prints a performance report. Inputs come
// from CSV files or from PostgreSQL/ClickHouse; results can optionally
// be persisted and the canonical export written for cross-validation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/calendar"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/crossval"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/engine"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/marketdata"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/observability"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/reporting"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage"
	chstore "github.com/alexanderhaire/index-rebalancing-strategy/internal/storage/clickhouse"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage/memory"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage/migrations"
	pgstore "github.com/alexanderhaire/index-rebalancing-strategy/internal/storage/postgres"
)

// defaultMomentumOffset mirrors domain.DefaultConfig; the flag needs a
// default distinguishable from an explicit zero.
const defaultMomentumOffset = -1

func main() {
	// Inputs
	calendarPath := flag.String("calendar", "", "Event calendar CSV (required)")
	barsPath := flag.String("bars", "", "Daily bars CSV (required unless --clickhouse-dsn is set)")
	ratesPath := flag.String("rates", "", "Overnight rates CSV (required unless --clickhouse-dsn is set)")

	// Strategy selection
	strategyName := flag.String("strategy", "ALL", "Strategy: MOMENTUM, REVERSION, ALL")

	// Cost model and sizing parameters
	notional := flag.Float64("portfolio-notional", 0, "Portfolio notional USD (0 = default)")
	allocation := flag.Float64("allocation", 0, "Per-event allocation fraction (0 = default)")
	perShareCost := flag.Float64("per-share-cost", 0, "Transaction cost per share USD (0 = default)")
	longSpread := flag.Float64("long-spread", 0, "Financing spread over the rate for longs (0 = default)")
	shortSpread := flag.Float64("short-spread", 0, "Borrow spread over the rate for shorts (0 = default)")
	participation := flag.Float64("participation", 0, "Liquidity cap fraction of trailing volume (0 = default)")
	volumeWindow := flag.Int("volume-window", 0, "Trailing volume window in trading days (0 = default)")
	dayCount := flag.Int("day-count", 0, "Financing day count: 360 or 365 (0 = default)")
	reversionHold := flag.Int("reversion-hold", 0, "Reversion hold in trading days (0 = default)")
	momentumOffset := flag.Int("momentum-exit-offset", defaultMomentumOffset, "Momentum exit offset in trading days from the effective date")
	benchmark := flag.String("benchmark", "", "Benchmark ticker (empty = default)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	persist := flag.Bool("persist", false, "Persist events and results to PostgreSQL")

	// Output
	exportEvents := flag.String("export-events", "", "Write canonical event rows to this CSV")
	exportMarks := flag.String("export-marks", "", "Write canonical mark rows to this CSV")
	outputJSON := flag.Bool("json", false, "Output report as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *calendarPath == "" {
		logger.Fatal("--calendar is required")
	}
	strategies, err := parseStrategies(*strategyName)
	if err != nil {
		logger.Fatal(err)
	}

	cfg := domain.DefaultConfig()
	overrideFloat(&cfg.PortfolioNotionalUSD, *notional)
	overrideFloat(&cfg.AllocationFraction, *allocation)
	overrideFloat(&cfg.PerShareCostUSD, *perShareCost)
	overrideFloat(&cfg.LongSpread, *longSpread)
	overrideFloat(&cfg.ShortSpread, *shortSpread)
	overrideFloat(&cfg.ParticipationFraction, *participation)
	overrideInt(&cfg.VolumeWindowDays, *volumeWindow)
	overrideInt(&cfg.DayCountConvention, *dayCount)
	overrideInt(&cfg.ReversionHoldDays, *reversionHold)
	cfg.MomentumExitOffsetDays = *momentumOffset
	if *benchmark != "" {
		cfg.BenchmarkTicker = *benchmark
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
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

	// Load the calendar
	events, rejectedRows, err := loadCalendar(*calendarPath)
	if err != nil {
		logger.Fatalf("load calendar: %v", err)
	}
	for _, rej := range rejectedRows {
		logger.Printf("calendar line %d rejected (%s): %s", rej.Line, rej.Ticker, rej.Reason)
	}
	reasons := make([]string, len(rejectedRows))
	for i, rej := range rejectedRows {
		reasons[i] = rej.Reason
	}
	observability.RecordCalendarLoad(len(events), reasons)
	logger.Printf("Loaded %d events (%d rows rejected)", len(events), len(rejectedRows))

	// Load market data from files or from ClickHouse
	ds, err := loadDataset(ctx, *barsPath, *ratesPath, *clickhouseDSN)
	if err != nil {
		logger.Fatalf("load market data: %v", err)
	}
	logger.Printf("Loaded series for %d tickers", len(ds.Tickers()))

	eng, err := engine.New(cfg, ds)
	if err != nil {
		logger.Fatalf("create engine: %v", err)
	}

	started := time.Now()
	runReport := eng.Run(events, strategies...)
	observability.RecordRunDuration(time.Since(started).Seconds())
	for _, rej := range runReport.Rejected {
		observability.RecordRejectedEvent()
		logger.Printf("event %s (%s) rejected: %v", rej.EventID, rej.Ticker, rej.Err)
	}
	for _, res := range runReport.Results {
		observability.RecordSimulation(string(res.Strategy), string(res.SkipReason), 0)
	}
	logger.Printf("Simulated %d results (%d events rejected)", len(runReport.Results), len(runReport.Rejected))

	// Stage into stores so the report generator has one source to read.
	var eventStore storage.EventStore = memory.NewEventStore()
	var resultStore storage.ResultStore = memory.NewResultStore()
	if *persist {
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required with --persist")
		}
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("apply postgres migrations: %v", err)
		}
		eventStore = pgstore.NewEventStore(pool)
		resultStore = pgstore.NewResultStore(pool)
	}
	for _, ev := range events {
		if err := eventStore.Insert(ctx, ev); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			logger.Fatalf("store event %s: %v", ev.EventID, err)
		}
	}
	for _, res := range runReport.Results {
		if err := resultStore.Insert(ctx, res); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			logger.Fatalf("store result %s: %v", res.ResultID, err)
		}
	}

	// Canonical export for the cross-validation harness
	if *exportEvents != "" || *exportMarks != "" {
		if *exportEvents == "" || *exportMarks == "" {
			logger.Fatal("--export-events and --export-marks must be set together")
		}
		if err := writeExport(events, runReport.Results, ds, *exportEvents, *exportMarks); err != nil {
			logger.Fatalf("write canonical export: %v", err)
		}
		logger.Printf("Canonical export written to %s and %s", *exportEvents, *exportMarks)
	}

	report, err := reporting.NewGenerator(eventStore, resultStore, cfg.PortfolioNotionalUSD).
		Generate(ctx)
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Print(reporting.RenderMarkdown(report))
	}
}

func parseStrategies(name string) ([]domain.Strategy, error) {
	switch strings.ToUpper(name) {
	case "MOMENTUM":
		return []domain.Strategy{domain.StrategyMomentum}, nil
	case "REVERSION":
		return []domain.Strategy{domain.StrategyReversion}, nil
	case "ALL":
		return []domain.Strategy{domain.StrategyMomentum, domain.StrategyReversion}, nil
	}
	return nil, fmt.Errorf("invalid strategy %q: must be MOMENTUM, REVERSION, or ALL", name)
}

func overrideFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func overrideInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func loadCalendar(path string) ([]*domain.Event, []calendar.RejectedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	result, err := calendar.Load(f)
	if err != nil {
		return nil, nil, err
	}
	return result.Events, result.Rejected, nil
}

// loadDataset materializes bars and rates from CSV files when given,
// otherwise from ClickHouse.
func loadDataset(ctx context.Context, barsPath, ratesPath, clickhouseDSN string) (*marketdata.Dataset, error) {
	var (
		bars  []*domain.PriceBar
		rates []*domain.RatePoint
	)

	switch {
	case barsPath != "" && ratesPath != "":
		var err error
		bars, err = loadBarsFile(barsPath)
		if err != nil {
			return nil, err
		}
		rates, err = loadRatesFile(ratesPath)
		if err != nil {
			return nil, err
		}
	case clickhouseDSN != "":
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()

		barStore := chstore.NewBarStore(conn)
		tickers, err := barStore.Tickers(ctx)
		if err != nil {
			return nil, err
		}
		for _, ticker := range tickers {
			tb, err := barStore.GetByTicker(ctx, ticker)
			if err != nil {
				return nil, err
			}
			bars = append(bars, tb...)
		}
		rates, err = chstore.NewRateStore(conn).GetAll(ctx)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("either --bars and --rates or --clickhouse-dsn must be set")
	}

	return marketdata.NewDataset(bars, rates)
}

func loadBarsFile(path string) ([]*domain.PriceBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return marketdata.LoadBarsCSV(f)
}

func loadRatesFile(path string) ([]*domain.RatePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return marketdata.LoadRatesCSV(f)
}

func writeExport(events []*domain.Event, results []*domain.SimulationResult, ds *marketdata.Dataset, eventsPath, marksPath string) error {
	exp, err := crossval.Build(events, results, ds)
	if err != nil {
		return err
	}

	eventsFile, err := os.Create(eventsPath)
	if err != nil {
		return err
	}
	defer eventsFile.Close()

	marksFile, err := os.Create(marksPath)
	if err != nil {
		return err
	}
	defer marksFile.Close()

	return exp.WriteTo(eventsFile, marksFile)
}

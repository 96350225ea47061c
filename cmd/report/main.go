// Command report renders a performance report from stored backtest
// results. Events and results are read from PostgreSQL; the output is
// Markdown, CSV, or JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/reporting"
	pgstore "github.com/alexanderhaire/index-rebalancing-strategy/internal/storage/postgres"
)

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")
	notional := flag.Float64("portfolio-notional", 0, "Portfolio notional USD for return statistics (0 = default)")
	format := flag.String("format", "markdown", "Output format: markdown, csv, json")
	outputPath := flag.String("output", "", "Output file (default stdout)")

	flag.Parse()

	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	*format = strings.ToLower(*format)
	if *format != "markdown" && *format != "csv" && *format != "json" {
		logger.Fatalf("invalid format %q: must be markdown, csv, or json", *format)
	}

	base := *notional
	if base == 0 {
		base = domain.DefaultConfig().PortfolioNotionalUSD
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

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	gen := reporting.NewGenerator(pgstore.NewEventStore(pool), pgstore.NewResultStore(pool), base)
	report, err := gen.Generate(ctx)
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}

	var rendered string
	switch *format {
	case "markdown":
		rendered = reporting.RenderMarkdown(report)
	case "csv":
		rows := append([]reporting.SegmentRow{report.Combined}, report.Strategies...)
		rows = append(rows, report.Indexes...)
		rendered = reporting.RenderCSV(rows)
	case "json":
		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			logger.Fatalf("marshal report: %v", err)
		}
		rendered = string(output) + "\n"
	}

	if *outputPath == "" {
		fmt.Print(rendered)
		return
	}
	if err := os.WriteFile(*outputPath, []byte(rendered), 0o644); err != nil {
		logger.Fatalf("write report: %v", err)
	}
	logger.Printf("Report written to %s", *outputPath)
}

// Package main provides an HTTP server over stored backtest output:
// events and simulation results from PostgreSQL, rendered reports, and
// Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/observability"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/reporting"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage/migrations"
	pgstore "github.com/alexanderhaire/index-rebalancing-strategy/internal/storage/postgres"
)

// Server serves stored backtest results over HTTP.
type Server struct {
	events   storage.EventStore
	results  storage.ResultStore
	notional float64
	logger   *log.Logger

	mu         sync.Mutex
	started    time.Time
	reportRuns int
	lastReport time.Time
}

func main() {
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL DSN (required)")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	notional := flag.Float64("portfolio-notional", 0, "portfolio notional USD for report statistics (0 = default)")
	flag.Parse()

	logger := log.New(os.Stderr, "[server] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	if *notional <= 0 {
		*notional = domain.DefaultConfig().PortfolioNotionalUSD
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	srv := &Server{
		events:   pgstore.NewEventStore(pool),
		results:  pgstore.NewResultStore(pool),
		notional: *notional,
		logger:   logger,
		started:  time.Now(),
	}

	httpServer := &http.Server{
		Addr:    *addr,
		Handler: srv.routes(),
	}

	go func() {
		logger.Printf("Listening on %s", *addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-sigCh
	logger.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Shutdown error: %v", err)
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/results", s.handleResults)
	mux.HandleFunc("/api/report", s.handleReport)

	return mux
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status        string    `json:"status"`
	Uptime        string    `json:"uptime"`
	ReportRuns    int       `json:"report_runs"`
	LastReportRun time.Time `json:"last_report_run,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:        "running",
		Uptime:        time.Since(s.started).String(),
		ReportRuns:    s.reportRuns,
		LastReportRun: s.lastReport,
	}
	s.mu.Unlock()

	writeJSON(w, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.events.GetAll(r.Context())
	if err != nil {
		s.serverError(w, "list events", err)
		return
	}
	writeJSON(w, events)
}

// handleResults returns stored simulation results, optionally filtered
// by the strategy query parameter (MOMENTUM or REVERSION).
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	var (
		results []*domain.SimulationResult
		err     error
	)
	if raw := r.URL.Query().Get("strategy"); raw != "" {
		strategy := domain.Strategy(strings.ToUpper(raw))
		if strategy != domain.StrategyMomentum && strategy != domain.StrategyReversion {
			http.Error(w, fmt.Sprintf("unknown strategy %q", raw), http.StatusBadRequest)
			return
		}
		results, err = s.results.GetByStrategy(r.Context(), strategy)
	} else {
		results, err = s.results.GetAll(r.Context())
	}
	if err != nil {
		s.serverError(w, "list results", err)
		return
	}
	writeJSON(w, results)
}

// handleReport generates a fresh report from stored results. The format
// query parameter selects markdown (default), json, or csv.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	gen := reporting.NewGenerator(s.events, s.results, s.notional)
	report, err := gen.Generate(r.Context())
	if err != nil {
		s.serverError(w, "generate report", err)
		return
	}

	s.mu.Lock()
	s.reportRuns++
	s.lastReport = time.Now()
	s.mu.Unlock()

	switch r.URL.Query().Get("format") {
	case "", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		fmt.Fprint(w, reporting.RenderMarkdown(report))
	case "json":
		writeJSON(w, report)
	case "csv":
		rows := make([]reporting.SegmentRow, 0, 1+len(report.Strategies)+len(report.Indexes))
		rows = append(rows, report.Combined)
		rows = append(rows, report.Strategies...)
		rows = append(rows, report.Indexes...)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		fmt.Fprint(w, reporting.RenderCSV(rows))
	default:
		http.Error(w, fmt.Sprintf("unknown format %q", r.URL.Query().Get("format")), http.StatusBadRequest)
	}
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Printf("Failed to %s: %v", op, err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

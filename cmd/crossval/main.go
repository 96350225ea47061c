// Command crossval runs the dual-implementation consistency check: it
// simulates every event with the primary engine, replays the canonical
// export through the independently written shadow engine, and compares
// the two daily PnL streams under the configured tolerance. The
// comparison report is always printed; the exit code is nonzero when
// the engines diverge.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/calendar"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/crossval"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/engine"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/marketdata"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/observability"
)

func main() {
	calendarPath := flag.String("calendar", "", "Event calendar CSV (required)")
	barsPath := flag.String("bars", "", "Daily bars CSV (required)")
	ratesPath := flag.String("rates", "", "Overnight rates CSV (required)")
	tolerance := flag.Float64("tolerance", 0, "Divergence tolerance in USD (0 = default)")
	exportEvents := flag.String("export-events", "", "Also write canonical event rows to this CSV")
	exportMarks := flag.String("export-marks", "", "Also write canonical mark rows to this CSV")
	outputJSON := flag.Bool("json", false, "Output comparison report as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[crossval] ", log.LstdFlags)

	if *calendarPath == "" || *barsPath == "" || *ratesPath == "" {
		logger.Fatal("--calendar, --bars, and --rates are required")
	}

	cfg := domain.DefaultConfig()
	if *tolerance != 0 {
		cfg.DivergenceTolerance = *tolerance
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	events, err := loadCalendar(*calendarPath)
	if err != nil {
		logger.Fatalf("load calendar: %v", err)
	}
	ds, err := loadDataset(*barsPath, *ratesPath)
	if err != nil {
		logger.Fatalf("load market data: %v", err)
	}

	eng, err := engine.New(cfg, ds)
	if err != nil {
		logger.Fatalf("create engine: %v", err)
	}
	runReport := eng.Run(events, domain.StrategyMomentum, domain.StrategyReversion)
	for _, rej := range runReport.Rejected {
		logger.Printf("event %s (%s) rejected: %v", rej.EventID, rej.Ticker, rej.Err)
	}

	exp, err := crossval.Build(events, runReport.Results, ds)
	if err != nil {
		logger.Fatalf("build canonical export: %v", err)
	}
	if *exportEvents != "" && *exportMarks != "" {
		if err := writeExport(exp, *exportEvents, *exportMarks); err != nil {
			logger.Fatalf("write canonical export: %v", err)
		}
	}

	shadow, err := crossval.Replay(exp, cfg)
	if err != nil {
		logger.Fatalf("shadow replay: %v", err)
	}

	report := crossval.Compare(runReport.Results, shadow, cfg.DivergenceTolerance)
	observability.RecordCrossval(report.Compared, len(report.Divergences), report.MaxAbsDiff, report.Agreed)

	if *outputJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
	} else {
		printReport(report)
	}

	if !report.Agreed {
		os.Exit(1)
	}
}

func printReport(r *crossval.Report) {
	fmt.Println()
	fmt.Println("=== Cross-Validation Report ===")
	fmt.Printf("Trades compared:      %d\n", r.Trades)
	fmt.Printf("Element comparisons:  %d\n", r.Compared)
	fmt.Printf("Tolerance:            %g\n", r.Tolerance)
	fmt.Printf("Max abs difference:   %g\n", r.MaxAbsDiff)
	fmt.Printf("Mean difference:      %g\n", r.MeanDiff)
	fmt.Printf("Std of differences:   %g\n", r.StdDiff)
	if r.Agreed {
		fmt.Println("Result:               AGREED")
		return
	}
	fmt.Printf("Result:               DIVERGED (%d beyond tolerance)\n", len(r.Divergences))
	fmt.Printf("First divergence:     %v\n", *r.First)
}

func loadCalendar(path string) ([]*domain.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result, err := calendar.Load(f)
	if err != nil {
		return nil, err
	}
	return result.Events, nil
}

func loadDataset(barsPath, ratesPath string) (*marketdata.Dataset, error) {
	barsFile, err := os.Open(barsPath)
	if err != nil {
		return nil, err
	}
	defer barsFile.Close()
	bars, err := marketdata.LoadBarsCSV(barsFile)
	if err != nil {
		return nil, err
	}

	ratesFile, err := os.Open(ratesPath)
	if err != nil {
		return nil, err
	}
	defer ratesFile.Close()
	rates, err := marketdata.LoadRatesCSV(ratesFile)
	if err != nil {
		return nil, err
	}

	return marketdata.NewDataset(bars, rates)
}

func writeExport(exp *crossval.Export, eventsPath, marksPath string) error {
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

package crossval

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/engine"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/idhash"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/marketdata"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fixture builds a 40-day two-ticker dataset with enough motion that
// both strategies produce multi-night positions with nonzero PnL.
func fixture(t *testing.T) (*marketdata.Dataset, []*domain.Event) {
	t.Helper()

	start := date(2024, time.March, 1)
	var bars []*domain.PriceBar
	for i := 0; i < 40; i++ {
		d := start.AddDate(0, 0, i)
		price := 100 + 0.7*float64(i)
		bars = append(bars, &domain.PriceBar{
			Ticker: "XYZ", Date: d,
			Open: price, Close: price + 0.3, High: price + 0.5, Low: price - 0.5,
			Volume: 250_000,
		})
		bench := 470 + 0.2*float64(i)
		bars = append(bars, &domain.PriceBar{
			Ticker: "SPY", Date: d,
			Open: bench, Close: bench + 0.1, High: bench + 0.3, Low: bench - 0.3,
			Volume: 80_000_000,
		})
	}
	var rates []*domain.RatePoint
	for i := 0; i < 40; i++ {
		rates = append(rates, &domain.RatePoint{Date: start.AddDate(0, 0, i), Rate: 0.0525})
	}

	ds, err := marketdata.NewDataset(bars, rates)
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}

	announced := date(2024, time.March, 25)
	effective := date(2024, time.March, 31)
	events := []*domain.Event{{
		EventID:          idhash.ComputeEventID("XYZ", announced, effective, "S&P 500"),
		Ticker:           "XYZ",
		AnnouncementDate: announced,
		EffectiveDate:    effective,
		IndexName:        "S&P 500",
		Score:            0.8,
	}}
	return ds, events
}

func runPrimary(t *testing.T, ds *marketdata.Dataset, events []*domain.Event) (domain.Config, []*domain.SimulationResult) {
	t.Helper()

	cfg := domain.DefaultConfig()
	eng, err := engine.New(cfg, ds)
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	report := eng.Run(events, domain.StrategyMomentum, domain.StrategyReversion)
	if len(report.Rejected) != 0 {
		t.Fatalf("unexpected rejected events: %v", report.Rejected)
	}
	closed := 0
	for _, r := range report.Results {
		if !r.Skipped() {
			closed++
		}
	}
	if closed == 0 {
		t.Fatal("fixture produced no closed trades")
	}
	return cfg, report.Results
}

func TestShadowReplay_AgreesWithPrimary(t *testing.T) {
	ds, events := fixture(t)
	cfg, results := runPrimary(t, ds, events)

	exp, err := Build(events, results, ds)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	shadow, err := Replay(exp, cfg)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	rep := Compare(results, shadow, cfg.DivergenceTolerance)
	if !rep.Agreed {
		t.Fatalf("engines diverged: first %v of %d", rep.First, len(rep.Divergences))
	}
	if rep.Trades == 0 || rep.Compared == 0 {
		t.Fatalf("empty comparison: trades=%d compared=%d", rep.Trades, rep.Compared)
	}
	if rep.First != nil {
		t.Errorf("First should be nil on agreement, got %v", rep.First)
	}
}

func TestExport_RoundTripAndIdempotence(t *testing.T) {
	ds, events := fixture(t)
	_, results := runPrimary(t, ds, events)

	exp, err := Build(events, results, ds)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var events1, marks1 bytes.Buffer
	if err := exp.WriteTo(&events1, &marks1); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}

	// Rebuilding and rewriting must reproduce the bytes exactly.
	exp2, err := Build(events, results, ds)
	if err != nil {
		t.Fatalf("second Build failed: %v", err)
	}
	var events2, marks2 bytes.Buffer
	if err := exp2.WriteTo(&events2, &marks2); err != nil {
		t.Fatalf("second WriteTo failed: %v", err)
	}
	if !bytes.Equal(events1.Bytes(), events2.Bytes()) || !bytes.Equal(marks1.Bytes(), marks2.Bytes()) {
		t.Fatal("repeated export is not byte-identical")
	}

	parsed, err := Read(bytes.NewReader(events1.Bytes()), bytes.NewReader(marks1.Bytes()))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(parsed.Events) != len(exp.Events) || len(parsed.Marks) != len(exp.Marks) {
		t.Fatalf("round trip lost rows: %d/%d events, %d/%d marks",
			len(parsed.Events), len(exp.Events), len(parsed.Marks), len(exp.Marks))
	}
	for i, want := range exp.Events {
		got := parsed.Events[i]
		if got.EventID != want.EventID || got.Strategy != want.Strategy ||
			got.Side != want.Side || got.NightsHeld != want.NightsHeld {
			t.Fatalf("event row %d mismatch: got %+v want %+v", i, got, want)
		}
		if got.EntryPrice != want.EntryPrice || got.ExitPrice != want.ExitPrice ||
			got.Shares != want.Shares || got.FinancingCost != want.FinancingCost {
			t.Fatalf("event row %d numeric drift: got %+v want %+v", i, got, want)
		}
		if !got.EntryDate.Equal(want.EntryDate) || !got.ExitDate.Equal(want.ExitDate) {
			t.Fatalf("event row %d date drift: got %+v want %+v", i, got, want)
		}
	}
	for i, want := range exp.Marks {
		got := parsed.Marks[i]
		if got.EventID != want.EventID || got.Strategy != want.Strategy ||
			!got.Date.Equal(want.Date) ||
			got.Close != want.Close || got.OvernightRate != want.OvernightRate {
			t.Fatalf("mark row %d mismatch: got %+v want %+v", i, got, want)
		}
	}
}

func TestCompare_DetectsPerturbedDailyAmount(t *testing.T) {
	ds, events := fixture(t)
	cfg, results := runPrimary(t, ds, events)

	exp, err := Build(events, results, ds)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	shadow, err := Replay(exp, cfg)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	// Nudge one mid-stream close mark in the shadow's input path by
	// perturbing its replayed amount directly.
	var victim TradeKey
	for key, s := range shadow {
		if len(s.Daily) >= 3 {
			victim = key
			break
		}
	}
	if victim.EventID == "" {
		t.Fatal("no multi-day stream to perturb")
	}
	perturbed := shadow[victim]
	perturbed.Daily[1].Amount += 0.5
	perturbed.NetPnL += 0.5

	rep := Compare(results, shadow, cfg.DivergenceTolerance)
	if rep.Agreed {
		t.Fatal("perturbation not detected")
	}
	if rep.First == nil {
		t.Fatal("First missing on divergence")
	}
	if rep.First.EventID != victim.EventID || rep.First.Strategy != victim.Strategy {
		t.Errorf("First points at %s/%s, want %s/%s",
			rep.First.EventID, rep.First.Strategy, victim.EventID, victim.Strategy)
	}
	if rep.First.Field != "daily" {
		t.Errorf("First.Field: got %q, want daily", rep.First.Field)
	}
	if math.Abs(math.Abs(rep.First.Delta)-0.5) > 1e-12 {
		t.Errorf("First.Delta: got %v, want magnitude 0.5", rep.First.Delta)
	}
	if rep.MaxAbsDiff < 0.5-1e-12 {
		t.Errorf("MaxAbsDiff: got %v, want >= 0.5", rep.MaxAbsDiff)
	}
}

func TestCompare_DetectsShapeMismatch(t *testing.T) {
	ds, events := fixture(t)
	cfg, results := runPrimary(t, ds, events)

	exp, err := Build(events, results, ds)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	shadow, err := Replay(exp, cfg)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	// Drop one trade from the shadow output entirely.
	for key := range shadow {
		delete(shadow, key)
		break
	}

	rep := Compare(results, shadow, cfg.DivergenceTolerance)
	if rep.Agreed {
		t.Fatal("missing shadow trade not detected")
	}
	found := false
	for _, d := range rep.Divergences {
		if d.Field == "shape" {
			found = true
		}
	}
	if !found {
		t.Fatal("no shape divergence reported")
	}
}

func TestReplay_RejectsMarkCountMismatch(t *testing.T) {
	ds, events := fixture(t)
	cfg, results := runPrimary(t, ds, events)

	exp, err := Build(events, results, ds)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(exp.Marks) == 0 {
		t.Fatal("fixture produced no marks")
	}
	exp.Marks = exp.Marks[:len(exp.Marks)-1]

	if _, err := Replay(exp, cfg); err == nil {
		t.Fatal("Replay accepted truncated marks")
	}
}

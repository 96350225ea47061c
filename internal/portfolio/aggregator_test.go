package portfolio

import (
	"math/rand"
	"testing"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func result(id string, strategy domain.Strategy, daily ...domain.DailyPnL) *domain.SimulationResult {
	var net float64
	for _, d := range daily {
		net += d.Amount
	}
	return &domain.SimulationResult{
		ResultID: id,
		EventID:  "evt-" + id,
		Ticker:   "ABC",
		Strategy: strategy,
		Status:   domain.StatusClosed,
		NetPnL:   net,
		Daily:    daily,
	}
}

func TestAggregate_OverlappingWindows(t *testing.T) {
	jan3, jan4, jan5 := date(2024, time.January, 3), date(2024, time.January, 4), date(2024, time.January, 5)

	results := []*domain.SimulationResult{
		result("a", domain.StrategyMomentum,
			domain.DailyPnL{Date: jan3, Amount: 100},
			domain.DailyPnL{Date: jan4, Amount: -30},
		),
		result("b", domain.StrategyReversion,
			domain.DailyPnL{Date: jan4, Amount: 50},
			domain.DailyPnL{Date: jan5, Amount: 25},
		),
	}

	curve := Aggregate(results)

	if len(curve) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(curve))
	}
	want := []struct {
		date  time.Time
		daily float64
		cum   float64
	}{
		{jan3, 100, 100},
		{jan4, 20, 120},
		{jan5, 25, 145},
	}
	for i, w := range want {
		if !curve[i].Date.Equal(w.date) {
			t.Errorf("Point %d date: got %s", i, domain.FormatDate(curve[i].Date))
		}
		if curve[i].DailyPnL != w.daily {
			t.Errorf("Point %d daily: got %v, want %v", i, curve[i].DailyPnL, w.daily)
		}
		if curve[i].Cumulative != w.cum {
			t.Errorf("Point %d cumulative: got %v, want %v", i, curve[i].Cumulative, w.cum)
		}
	}

	if curve.TotalPnL() != 145 {
		t.Errorf("TotalPnL: got %v, want 145", curve.TotalPnL())
	}
}

func TestAggregate_OrderIndependence(t *testing.T) {
	// Permuting input order yields an identical curve, exactly.
	rng := rand.New(rand.NewSource(7))
	base := make([]*domain.SimulationResult, 0, 50)
	start := date(2024, time.January, 1)
	for i := 0; i < 50; i++ {
		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		d1 := start.AddDate(0, 0, i%17)
		d2 := d1.AddDate(0, 0, 1)
		base = append(base, result(id, domain.StrategyMomentum,
			domain.DailyPnL{Date: d1, Amount: rng.NormFloat64() * 1000},
			domain.DailyPnL{Date: d2, Amount: rng.NormFloat64() * 1000},
		))
	}

	reference := Aggregate(base)

	for trial := 0; trial < 10; trial++ {
		shuffled := make([]*domain.SimulationResult, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		curve := Aggregate(shuffled)
		if len(curve) != len(reference) {
			t.Fatalf("Trial %d: length %d != %d", trial, len(curve), len(reference))
		}
		for i := range curve {
			if curve[i] != reference[i] {
				t.Fatalf("Trial %d point %d: %+v != %+v", trial, i, curve[i], reference[i])
			}
		}
	}
}

func TestAggregate_SkippedContributeNothing(t *testing.T) {
	jan3 := date(2024, time.January, 3)

	results := []*domain.SimulationResult{
		result("a", domain.StrategyMomentum, domain.DailyPnL{Date: jan3, Amount: 100}),
		{
			ResultID:   "skipped",
			EventID:    "evt-skipped",
			Strategy:   domain.StrategyReversion,
			Status:     domain.StatusSkipped,
			SkipReason: domain.SkipMissingEntryBar,
		},
	}

	curve := Aggregate(results)
	if len(curve) != 1 || curve[0].DailyPnL != 100 {
		t.Errorf("Skipped result leaked into the curve: %+v", curve)
	}
}

func TestAggregate_Empty(t *testing.T) {
	curve := Aggregate(nil)
	if len(curve) != 0 {
		t.Errorf("Expected empty curve, got %d points", len(curve))
	}
	if curve.TotalPnL() != 0 {
		t.Errorf("Empty TotalPnL: got %v", curve.TotalPnL())
	}
}

func TestCurve_DailyReturns(t *testing.T) {
	curve := Curve{
		{Date: date(2024, time.January, 3), DailyPnL: 50_000, Cumulative: 50_000},
		{Date: date(2024, time.January, 4), DailyPnL: -25_000, Cumulative: 25_000},
	}

	returns := curve.DailyReturns(5_000_000)
	if returns[0] != 0.01 || returns[1] != -0.005 {
		t.Errorf("DailyReturns: got %v", returns)
	}
}

package liquidity

import (
	"testing"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/marketdata"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func barsWithVolume(ticker string, start time.Time, volumes []float64) []*domain.PriceBar {
	bars := make([]*domain.PriceBar, len(volumes))
	for i, v := range volumes {
		bars[i] = &domain.PriceBar{
			Ticker: ticker,
			Date:   start.AddDate(0, 0, i),
			Open:   100,
			Close:  100,
			High:   101,
			Low:    99,
			Volume: v,
		}
	}
	return bars
}

func TestCapShares_WorkedExample(t *testing.T) {
	// 20-day average volume 50,000 with 5% participation -> 2,500 shares.
	cfg := domain.DefaultConfig()
	cfg.ParticipationFraction = 0.05

	volumes := make([]float64, 20)
	for i := range volumes {
		volumes[i] = 50_000
	}
	start := date(2024, time.January, 1)
	ds, err := marketdata.NewDataset(barsWithVolume("ABC", start, volumes), nil)
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}

	entry := start.AddDate(0, 0, 20)
	cap, ok := CapShares(ds, "ABC", entry, cfg)
	if !ok {
		t.Fatal("Expected a defined cap")
	}
	if cap != 2500 {
		t.Errorf("CapShares: got %v, want 2500", cap)
	}
}

func TestCapShares_WindowEndsBeforeEntry(t *testing.T) {
	// 21 bars; the entry-day bar carries a huge volume that must be
	// excluded because the window ends strictly before entry.
	cfg := domain.DefaultConfig()
	cfg.ParticipationFraction = 0.01

	volumes := make([]float64, 21)
	for i := range volumes {
		volumes[i] = 10_000
	}
	volumes[20] = 1_000_000 // entry day

	start := date(2024, time.January, 1)
	ds, err := marketdata.NewDataset(barsWithVolume("ABC", start, volumes), nil)
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}

	entry := start.AddDate(0, 0, 20)
	cap, ok := CapShares(ds, "ABC", entry, cfg)
	if !ok {
		t.Fatal("Expected a defined cap")
	}
	if cap != 100 {
		t.Errorf("CapShares: got %v, want 100 (entry-day volume excluded)", cap)
	}
}

func TestCapShares_InsufficientHistory(t *testing.T) {
	cfg := domain.DefaultConfig() // 20-day window

	start := date(2024, time.January, 1)
	ds, err := marketdata.NewDataset(barsWithVolume("IPO", start, []float64{1, 2, 3, 4, 5}), nil)
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}

	if _, ok := CapShares(ds, "IPO", start.AddDate(0, 0, 5), cfg); ok {
		t.Error("Expected undefined cap for a recent IPO with short history")
	}
}

func TestCapShares_MonotonicInParticipation(t *testing.T) {
	// Doubling the cap fraction never decreases the cap.
	cfg := domain.DefaultConfig()

	volumes := make([]float64, 20)
	for i := range volumes {
		volumes[i] = 30_000
	}
	start := date(2024, time.January, 1)
	ds, err := marketdata.NewDataset(barsWithVolume("ABC", start, volumes), nil)
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}
	entry := start.AddDate(0, 0, 20)

	small, _ := CapShares(ds, "ABC", entry, cfg)
	cfg.ParticipationFraction *= 2
	large, _ := CapShares(ds, "ABC", entry, cfg)

	if large < small {
		t.Errorf("Cap decreased when participation doubled: %v -> %v", small, large)
	}
}

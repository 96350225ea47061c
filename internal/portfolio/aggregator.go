// Package portfolio combines per-event PnL streams into a single
// chronological equity curve. Strategies are combined as an equal-weight
// union: every event's daily contribution is summed into its calendar
// date at full weight, across all included strategies.
package portfolio

import (
	"sort"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
)

// EquityPoint is one day of the combined curve.
type EquityPoint struct {
	Date       time.Time
	DailyPnL   float64 // sum of every active event's contribution
	Cumulative float64 // running total in date order
}

// Curve is the chronological equity curve.
type Curve []EquityPoint

// Aggregate builds the equity curve from simulation results. Skipped
// results contribute nothing. The output is invariant to the input
// order: contributions are grouped by date and summed in a fixed
// (result_id, then stream) order before the chronological scan.
func Aggregate(results []*domain.SimulationResult) Curve {
	// Sum per date in a deterministic result order so float addition
	// order cannot depend on caller iteration order.
	ordered := make([]*domain.SimulationResult, len(results))
	copy(ordered, results)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ResultID < ordered[j].ResultID
	})

	byDate := make(map[time.Time]float64)
	for _, r := range ordered {
		if r.Skipped() {
			continue
		}
		for _, d := range r.Daily {
			byDate[d.Date] += d.Amount
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})

	curve := make(Curve, 0, len(dates))
	var cumulative float64
	for _, d := range dates {
		cumulative += byDate[d]
		curve = append(curve, EquityPoint{
			Date:       d,
			DailyPnL:   byDate[d],
			Cumulative: cumulative,
		})
	}

	return curve
}

// TotalPnL returns the final cumulative PnL of the curve.
func (c Curve) TotalPnL() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].Cumulative
}

// DailyReturns expresses each day's PnL as a fraction of the portfolio
// notional, for downstream performance metrics.
func (c Curve) DailyReturns(notionalUSD float64) []float64 {
	returns := make([]float64, len(c))
	for i, p := range c {
		returns[i] = p.DailyPnL / notionalUSD
	}
	return returns
}

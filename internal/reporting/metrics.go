// Package reporting turns stored simulation results into performance
// reports: annualized risk/return statistics per strategy and per
// index, trade tallies, and the skip breakdown. Rendering targets are
// Markdown for humans and CSV for downstream tooling.
package reporting

import (
	"math"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/portfolio"
)

// TradingDaysPerYear is the annualization base for daily statistics.
const TradingDaysPerYear = 252

// PerfStats are annualized performance statistics over one equity curve.
// Ratios are zero when their denominator is zero, never NaN or Inf.
type PerfStats struct {
	Days                 int
	TotalPnL             float64
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	Sharpe               float64
	Sortino              float64
	MaxDrawdown          float64 // fraction of portfolio notional, <= 0
	Calmar               float64
}

// ComputePerfStats derives annualized statistics from an equity curve.
// Daily returns are PnL over the fixed portfolio notional; the curve is
// not compounded.
func ComputePerfStats(curve portfolio.Curve, notionalUSD float64) PerfStats {
	stats := PerfStats{Days: len(curve)}
	if len(curve) == 0 || notionalUSD <= 0 {
		return stats
	}

	stats.TotalPnL = curve.TotalPnL()
	returns := curve.DailyReturns(notionalUSD)

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	stats.AnnualizedReturn = mean * TradingDaysPerYear

	if len(returns) > 1 {
		variance := 0.0
		for _, r := range returns {
			variance += (r - mean) * (r - mean)
		}
		variance /= float64(len(returns) - 1) // sample variance
		stats.AnnualizedVolatility = math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear)
	}
	if stats.AnnualizedVolatility > 0 {
		stats.Sharpe = stats.AnnualizedReturn / stats.AnnualizedVolatility
	}

	// Sortino penalizes downside deviation only.
	downside := 0.0
	for _, r := range returns {
		if r < 0 {
			downside += r * r
		}
	}
	downside = math.Sqrt(downside/float64(len(returns))) * math.Sqrt(TradingDaysPerYear)
	if downside > 0 {
		stats.Sortino = stats.AnnualizedReturn / downside
	}

	// Max drawdown over the cumulative return path.
	peak := math.Inf(-1)
	for _, p := range curve {
		cum := p.Cumulative / notionalUSD
		if cum > peak {
			peak = cum
		}
		if dd := cum - peak; dd < stats.MaxDrawdown {
			stats.MaxDrawdown = dd
		}
	}
	if stats.MaxDrawdown < 0 {
		stats.Calmar = stats.AnnualizedReturn / math.Abs(stats.MaxDrawdown)
	}

	return stats
}

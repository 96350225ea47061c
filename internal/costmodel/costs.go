// Package costmodel computes transaction and overnight financing costs.
// All functions are pure; every cost reduces PnL and is never netted
// against any other position's carry.
package costmodel

import (
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
)

// TransactionCost returns the cost of trading the given share quantity
// on one leg: shares x per-share rate. Linear, no minimum, no cap.
func TransactionCost(shares float64, cfg domain.Config) float64 {
	return shares * cfg.PerShareCostUSD
}

// Spread returns the annual financing spread for a side.
// Longs pay the benchmark plus LongSpread; shorts pay the benchmark plus
// ShortSpread.
func Spread(side domain.Side, cfg domain.Config) float64 {
	if side == domain.SideShort {
		return cfg.ShortSpread
	}
	return cfg.LongSpread
}

// NightlyFinancingCost returns the carry for holding a position of the
// given entry notional across one night at the given annual overnight
// rate: notional x (rate + spread) / dayCount.
//
// Each position's carry is computed independently; simultaneous long and
// short positions on the same ticker never offset.
func NightlyFinancingCost(notional float64, side domain.Side, overnightRate float64, cfg domain.Config) float64 {
	annual := overnightRate + Spread(side, cfg)
	return notional * annual / float64(cfg.DayCountConvention)
}

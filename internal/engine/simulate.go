package engine

import (
	"math"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/costmodel"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/idhash"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/liquidity"
)

// simulate carries a resolved trade through sizing, cost accrual, and
// the daily PnL decomposition. The lifecycle is
// Pending -> Sized -> Entered -> Held -> Exited -> Closed; any missing
// observation along the way terminates at Skipped instead.
func (e *Engine) simulate(ev *domain.Event, strategy domain.Strategy, res resolution) *domain.SimulationResult {
	entryBar, _ := e.ds.BarAt(ev.Ticker, res.entryIdx)
	exitBar, _ := e.ds.BarAt(ev.Ticker, res.exitIdx)

	// Sizing: the smaller of the liquidity cap and the per-event
	// notional allocation, truncated to whole shares.
	capShares, ok := liquidity.CapShares(e.ds, ev.Ticker, entryBar.Date, e.cfg)
	if !ok {
		return skipped(ev, strategy, domain.SkipShortVolumeWindow)
	}
	notionalShares := e.cfg.PerEventNotionalUSD() / res.entryPrice
	shares := math.Floor(math.Min(capShares, notionalShares))
	if shares <= 0 {
		return skipped(ev, strategy, domain.SkipZeroSize)
	}

	position := domain.Position{
		Ticker:     ev.Ticker,
		Side:       res.side,
		EntryDate:  entryBar.Date,
		EntryPrice: res.entryPrice,
		Shares:     shares,
		ExitDate:   exitBar.Date,
		ExitPrice:  res.exitPrice,
	}

	sign := float64(res.side)
	notional := position.Notional()
	entryCost := costmodel.TransactionCost(shares, e.cfg)
	exitCost := costmodel.TransactionCost(shares, e.cfg)
	nights := res.exitIdx - res.entryIdx

	// Financing accrues once per overnight hold, on the entry notional,
	// at the rate observed on the night's starting date. A missing rate
	// leaves the night's carry undefined and skips the event.
	nightly := make([]float64, nights)
	for n := 0; n < nights; n++ {
		bar, _ := e.ds.BarAt(ev.Ticker, res.entryIdx+n)
		rate, ok := e.ds.RateOn(bar.Date)
		if !ok {
			return skipped(ev, strategy, domain.SkipMissingRate)
		}
		nightly[n] = costmodel.NightlyFinancingCost(notional, res.side, rate, e.cfg)
	}

	// Daily decomposition. Marks flow entry price -> closes -> exit
	// price, so the stream telescopes exactly to the gross move; costs
	// land on the day they are incurred.
	daily := make([]domain.DailyPnL, 0, nights+1)
	var financingCost float64

	if nights == 0 {
		daily = append(daily, domain.DailyPnL{
			Date:   entryBar.Date,
			Amount: (res.exitPrice-res.entryPrice)*shares*sign - entryCost - exitCost,
		})
	} else {
		prevClose := entryBar.Close
		daily = append(daily, domain.DailyPnL{
			Date:   entryBar.Date,
			Amount: (entryBar.Close-res.entryPrice)*shares*sign - entryCost,
		})
		for n := 1; n < nights; n++ {
			bar, _ := e.ds.BarAt(ev.Ticker, res.entryIdx+n)
			daily = append(daily, domain.DailyPnL{
				Date:   bar.Date,
				Amount: (bar.Close-prevClose)*shares*sign - nightly[n-1],
			})
			financingCost += nightly[n-1]
			prevClose = bar.Close
		}
		daily = append(daily, domain.DailyPnL{
			Date:   exitBar.Date,
			Amount: (res.exitPrice-prevClose)*shares*sign - exitCost - nightly[nights-1],
		})
		financingCost += nightly[nights-1]
	}

	// NetPnL is the sum of the daily stream in date order, so the
	// record and its decomposition can never disagree.
	var netPnL float64
	for _, d := range daily {
		netPnL += d.Amount
	}

	return &domain.SimulationResult{
		ResultID:      idhash.ComputeResultID(ev.EventID, strategy),
		EventID:       ev.EventID,
		Ticker:        ev.Ticker,
		Strategy:      strategy,
		Status:        domain.StatusClosed,
		Position:      position,
		EntryCost:     entryCost,
		ExitCost:      exitCost,
		FinancingCost: financingCost,
		NightsHeld:    nights,
		GrossPnL:      (res.exitPrice - res.entryPrice) * shares * sign,
		NetPnL:        netPnL,
		Daily:         daily,
	}
}

// skipped builds the terminal Skipped result for an event.
func skipped(ev *domain.Event, strategy domain.Strategy, reason domain.SkipReason) *domain.SimulationResult {
	return &domain.SimulationResult{
		ResultID:   idhash.ComputeResultID(ev.EventID, strategy),
		EventID:    ev.EventID,
		Ticker:     ev.Ticker,
		Strategy:   strategy,
		Status:     domain.StatusSkipped,
		SkipReason: reason,
	}
}

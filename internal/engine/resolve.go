package engine

import (
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
)

// resolution is a fully resolved trade: dates, prices, and side, before
// sizing and costs. Indices refer to the ticker's bar series.
type resolution struct {
	side       domain.Side
	entryIdx   int
	exitIdx    int
	entryPrice float64
	exitPrice  float64
}

// resolveMomentum resolves the post-announcement momentum trade:
// entry at the first available open strictly after the announcement,
// exit at the close offset MomentumExitOffsetDays trading days from the
// effective date (default -1, the close immediately preceding it).
// Side comes from the upstream score; the engine never derives it.
func (e *Engine) resolveMomentum(ev *domain.Event) (resolution, domain.SkipReason) {
	entryBar, entryIdx, ok := e.ds.FirstBarAfter(ev.Ticker, ev.AnnouncementDate)
	if !ok {
		return resolution{}, domain.SkipMissingEntryBar
	}
	if entryBar.Open <= 0 {
		return resolution{}, domain.SkipMissingEntryBar
	}

	// Anchor on the first trading day on or after the effective date, so
	// a negative offset still means "N trading days before inclusion"
	// when the effective date itself is not a trading day for the ticker.
	anchor, ok := e.ds.CeilingIndex(ev.Ticker, ev.EffectiveDate)
	if !ok {
		return resolution{}, domain.SkipMissingExitBar
	}
	exitIdx := anchor + e.cfg.MomentumExitOffsetDays
	exitBar, ok := e.ds.BarAt(ev.Ticker, exitIdx)
	if !ok || exitIdx < entryIdx {
		return resolution{}, domain.SkipMissingExitBar
	}

	side := domain.SideLong
	if ev.Score < 0 {
		side = domain.SideShort
	}

	return resolution{
		side:       side,
		entryIdx:   entryIdx,
		exitIdx:    exitIdx,
		entryPrice: entryBar.Open,
		exitPrice:  exitBar.Close,
	}, domain.SkipNone
}

// resolveReversion resolves the event-day mean-reversion trade: entry at
// the open on the effective date, side opposite the day's realized
// excess return over the benchmark, exit at the close ReversionHoldDays
// trading days later.
func (e *Engine) resolveReversion(ev *domain.Event) (resolution, domain.SkipReason) {
	entryIdx, ok := e.ds.IndexOn(ev.Ticker, ev.EffectiveDate)
	if !ok {
		return resolution{}, domain.SkipMissingEntryBar
	}
	entryBar, _ := e.ds.BarAt(ev.Ticker, entryIdx)
	if entryBar.Open <= 0 {
		return resolution{}, domain.SkipMissingEntryBar
	}

	benchBar, ok := e.ds.BarOn(e.cfg.BenchmarkTicker, ev.EffectiveDate)
	if !ok || benchBar.Open <= 0 {
		return resolution{}, domain.SkipMissingBenchmark
	}

	// Bet against the event-day excess move: outperform the benchmark ->
	// short, underperform -> long. An exactly flat excess return breaks
	// the tie as long.
	stockRet := (entryBar.Close - entryBar.Open) / entryBar.Open
	benchRet := (benchBar.Close - benchBar.Open) / benchBar.Open
	side := domain.SideLong
	if stockRet > benchRet {
		side = domain.SideShort
	}

	exitIdx := entryIdx + e.cfg.ReversionHoldDays
	exitBar, ok := e.ds.BarAt(ev.Ticker, exitIdx)
	if !ok {
		return resolution{}, domain.SkipMissingExitBar
	}

	return resolution{
		side:       side,
		entryIdx:   entryIdx,
		exitIdx:    exitIdx,
		entryPrice: entryBar.Open,
		exitPrice:  exitBar.Close,
	}, domain.SkipNone
}

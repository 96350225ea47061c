// Package engine implements the strategy simulation engine: for each
// index-addition event it resolves entry/exit dates and prices, sizes
// the position under the liquidity cap, applies the cost model, and
// emits a per-event PnL record with a day-by-day contribution stream.
//
// The engine performs no I/O. All series are materialized into a
// marketdata.Dataset before a run starts, so output is identical
// whether events are processed sequentially or concurrently.
package engine

import (
	"fmt"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/marketdata"
)

// Engine simulates events against a materialized dataset under a fixed
// configuration. Safe for concurrent use; it holds no mutable state.
type Engine struct {
	cfg domain.Config
	ds  *marketdata.Dataset
}

// New creates an engine. Configuration errors are fatal here, before
// any event is processed.
func New(cfg domain.Config, ds *marketdata.Dataset) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ds == nil {
		return nil, fmt.Errorf("%w: nil dataset", domain.ErrConfiguration)
	}
	return &Engine{cfg: cfg, ds: ds}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() domain.Config {
	return e.cfg
}

// Simulate runs one event under one strategy. A malformed event returns
// an error (the caller surfaces it as a rejected row); missing data
// produces a Skipped result with a reason code, never an error.
func (e *Engine) Simulate(ev *domain.Event, strategy domain.Strategy) (*domain.SimulationResult, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	var res resolution
	var skip domain.SkipReason
	switch strategy {
	case domain.StrategyMomentum:
		res, skip = e.resolveMomentum(ev)
	case domain.StrategyReversion:
		res, skip = e.resolveReversion(ev)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", domain.ErrConfiguration, strategy)
	}
	if skip != domain.SkipNone {
		return skipped(ev, strategy, skip), nil
	}

	return e.simulate(ev, strategy, res), nil
}

// RejectedEvent is an event whose simulation was refused because the
// event itself is malformed.
type RejectedEvent struct {
	EventID string
	Ticker  string
	Err     error
}

// RunReport is the outcome of simulating a batch of events.
type RunReport struct {
	Results  []*domain.SimulationResult
	Rejected []RejectedEvent
}

// SkipCounts tallies skipped results by reason.
func (r *RunReport) SkipCounts() map[domain.SkipReason]int {
	counts := make(map[domain.SkipReason]int)
	for _, res := range r.Results {
		if res.Skipped() {
			counts[res.SkipReason]++
		}
	}
	return counts
}

// Run simulates every event under every given strategy. Malformed
// events are collected as rejected rows; the run continues for the
// rest. Every accepted event yields exactly one result per strategy,
// Skipped results included.
func (e *Engine) Run(events []*domain.Event, strategies ...domain.Strategy) *RunReport {
	report := &RunReport{}

	for _, ev := range events {
		for _, strat := range strategies {
			result, err := e.Simulate(ev, strat)
			if err != nil {
				report.Rejected = append(report.Rejected, RejectedEvent{
					EventID: ev.EventID,
					Ticker:  ev.Ticker,
					Err:     err,
				})
				break // both strategies would reject the same event
			}
			report.Results = append(report.Results, result)
		}
	}

	return report
}

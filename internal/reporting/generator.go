package reporting

import (
	"context"
	"sort"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/portfolio"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/storage"
)

// Generator produces reports from stored events and results.
type Generator struct {
	eventStore  storage.EventStore
	resultStore storage.ResultStore
	notionalUSD float64
	now         func() time.Time // injectable clock for deterministic output
}

// NewGenerator creates a report generator. notionalUSD is the portfolio
// notional used as the return base for performance statistics.
func NewGenerator(events storage.EventStore, results storage.ResultStore, notionalUSD float64) *Generator {
	return &Generator{
		eventStore:  events,
		resultStore: results,
		notionalUSD: notionalUSD,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the full report from storage.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	results, err := g.resultStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	events, err := g.eventStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	indexByEvent := make(map[string]string, len(events))
	for _, ev := range events {
		indexByEvent[ev.EventID] = ev.IndexName
	}

	report := &Report{
		GeneratedAt:          g.now(),
		PortfolioNotionalUSD: g.notionalUSD,
		Combined:             g.segment("ALL", "ALL", results),
	}

	byStrategy := make(map[domain.Strategy][]*domain.SimulationResult)
	for _, r := range results {
		byStrategy[r.Strategy] = append(byStrategy[r.Strategy], r)
	}
	for strat, rs := range byStrategy {
		report.Strategies = append(report.Strategies, g.segment("ALL", string(strat), rs))
	}
	sort.Slice(report.Strategies, func(i, j int) bool {
		return report.Strategies[i].Strategy < report.Strategies[j].Strategy
	})

	type indexKey struct {
		index    string
		strategy domain.Strategy
	}
	byIndex := make(map[indexKey][]*domain.SimulationResult)
	for _, r := range results {
		idx, ok := indexByEvent[r.EventID]
		if !ok {
			idx = "UNKNOWN"
		}
		k := indexKey{index: idx, strategy: r.Strategy}
		byIndex[k] = append(byIndex[k], r)
	}
	for k, rs := range byIndex {
		report.Indexes = append(report.Indexes, g.segment(k.index, string(k.strategy), rs))
	}
	sort.Slice(report.Indexes, func(i, j int) bool {
		if report.Indexes[i].Segment != report.Indexes[j].Segment {
			return report.Indexes[i].Segment < report.Indexes[j].Segment
		}
		return report.Indexes[i].Strategy < report.Indexes[j].Strategy
	})

	report.Skips = skipRows(results)

	return report, nil
}

// segment aggregates one slice of results into a report row.
func (g *Generator) segment(segment, strategy string, results []*domain.SimulationResult) SegmentRow {
	row := SegmentRow{Segment: segment, Strategy: strategy}

	for _, r := range results {
		if r.Skipped() {
			row.Skipped++
			continue
		}
		row.Trades++
		row.NightsHeld += r.NightsHeld
		row.GrossPnL += r.GrossPnL
		row.NetPnL += r.NetPnL
		row.TotalCosts += r.EntryCost + r.ExitCost + r.FinancingCost
		if r.NetPnL > 0 {
			row.Wins++
		} else {
			row.Losses++
		}
	}
	if row.Trades > 0 {
		row.WinRate = float64(row.Wins) / float64(row.Trades)
		row.AvgNetPnL = row.NetPnL / float64(row.Trades)
	}

	row.Perf = ComputePerfStats(portfolio.Aggregate(results), g.notionalUSD)
	return row
}

// skipRows tallies skipped results by (strategy, reason), sorted.
func skipRows(results []*domain.SimulationResult) []SkipRow {
	type key struct {
		strategy domain.Strategy
		reason   domain.SkipReason
	}
	counts := make(map[key]int)
	for _, r := range results {
		if r.Skipped() {
			counts[key{strategy: r.Strategy, reason: r.SkipReason}]++
		}
	}

	rows := make([]SkipRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, SkipRow{Strategy: k.strategy, Reason: k.reason, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Strategy != rows[j].Strategy {
			return rows[i].Strategy < rows[j].Strategy
		}
		return rows[i].Reason < rows[j].Reason
	})
	return rows
}

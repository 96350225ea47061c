package reporting

import (
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
)

// Report is the full backtest report.
type Report struct {
	GeneratedAt          time.Time
	PortfolioNotionalUSD float64

	// Trade rows, sorted by (segment kind, segment, strategy).
	Combined   SegmentRow
	Strategies []SegmentRow // one per strategy
	Indexes    []SegmentRow // one per (index, strategy)

	// Skip breakdown, sorted by (strategy, reason).
	Skips []SkipRow
}

// SegmentRow aggregates one slice of the result set: everything, one
// strategy, or one index under one strategy.
type SegmentRow struct {
	Segment  string // "ALL" or the index name
	Strategy string // "ALL" or the strategy name

	Trades     int
	Skipped    int
	Wins       int
	Losses     int
	WinRate    float64
	GrossPnL   float64
	TotalCosts float64 // transaction plus financing
	NetPnL     float64
	AvgNetPnL  float64
	NightsHeld int
	Perf       PerfStats
}

// SkipRow is one (strategy, reason) tally.
type SkipRow struct {
	Strategy domain.Strategy
	Reason   domain.SkipReason
	Count    int
}

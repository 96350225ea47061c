package domain

import "time"

// Strategy identifies one of the two event-driven strategies.
type Strategy string

// Strategy constants.
const (
	StrategyMomentum  Strategy = "MOMENTUM"
	StrategyReversion Strategy = "REVERSION"
)

// Status is the lifecycle state of an event's simulation.
// Closed and Skipped are the only terminal states.
type Status string

// Status constants, in lifecycle order.
const (
	StatusPending Status = "PENDING"
	StatusSized   Status = "SIZED"
	StatusEntered Status = "ENTERED"
	StatusHeld    Status = "HELD"
	StatusExited  Status = "EXITED"
	StatusClosed  Status = "CLOSED"
	StatusSkipped Status = "SKIPPED"
)

// SkipReason enumerates why an event reached Skipped.
// Every skip carries exactly one reason; events never vanish silently.
type SkipReason string

// Skip reason codes.
const (
	SkipNone              SkipReason = ""
	SkipMissingEntryBar   SkipReason = "MISSING_ENTRY_BAR"
	SkipMissingExitBar    SkipReason = "MISSING_EXIT_BAR"
	SkipMissingBenchmark  SkipReason = "MISSING_BENCHMARK_BAR"
	SkipShortVolumeWindow SkipReason = "INSUFFICIENT_VOLUME_HISTORY"
	SkipMissingRate       SkipReason = "MISSING_RATE"
	SkipZeroSize          SkipReason = "ZERO_SIZE"
)

// DailyPnL is one day's PnL contribution from a single event.
type DailyPnL struct {
	Date   time.Time
	Amount float64 // USD, costs already subtracted
}

// SimulationResult is the outcome of simulating one event under one
// strategy. Immutable after creation. The Daily stream telescopes
// exactly to NetPnL.
type SimulationResult struct {
	ResultID string // deterministic hash of (event_id, strategy)
	EventID  string
	Ticker   string
	Strategy Strategy

	Status     Status
	SkipReason SkipReason

	// Populated only when Status == Closed.
	Position      Position
	EntryCost     float64 // transaction cost on entry leg
	ExitCost      float64 // transaction cost on exit leg
	FinancingCost float64 // sum of overnight carry
	NightsHeld    int
	GrossPnL      float64 // price move only
	NetPnL        float64 // gross minus all costs
	Daily         []DailyPnL
}

// Skipped reports whether the simulation terminated without a position.
func (r *SimulationResult) Skipped() bool {
	return r.Status == StatusSkipped
}

package domain

import "fmt"

// Day-count conventions for financing accrual.
const (
	DayCount360 = 360
	DayCount365 = 365
)

// Config holds every simulation constant. It is threaded explicitly
// through all components; two runs with different configs cannot
// interfere. Treat values as immutable after Validate.
type Config struct {
	// PortfolioNotionalUSD is the fixed gross capital of the portfolio.
	PortfolioNotionalUSD float64

	// AllocationFraction of the portfolio notional each event may deploy.
	// Events hold independent allocations and never compete for capital.
	AllocationFraction float64

	// PerShareCostUSD is the linear transaction cost rate.
	// No minimum, no cap.
	PerShareCostUSD float64

	// LongSpread and ShortSpread are annual financing spreads over the
	// benchmark overnight rate, as decimals.
	LongSpread  float64
	ShortSpread float64

	// ParticipationFraction of trailing average volume a position may
	// represent.
	ParticipationFraction float64

	// VolumeWindowDays is the trailing window for the liquidity cap,
	// ending strictly before the entry date.
	VolumeWindowDays int

	// DayCountConvention divides annual rates into nightly rates.
	// Must be DayCount360 or DayCount365.
	DayCountConvention int

	// ReversionHoldDays is the reversion exit offset in trading days
	// after the effective date.
	ReversionHoldDays int

	// MomentumExitOffsetDays is the momentum exit offset in trading days
	// relative to the effective date. The default -1 exits at the close
	// immediately preceding the effective date.
	MomentumExitOffsetDays int

	// DivergenceTolerance is the maximum absolute per-element difference
	// the cross-validation harness accepts between the two engines.
	DivergenceTolerance float64

	// BenchmarkTicker is the broad-market series used for reversion
	// side determination.
	BenchmarkTicker string
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		PortfolioNotionalUSD:   5_000_000,
		AllocationFraction:     0.10,
		PerShareCostUSD:        0.01,
		LongSpread:             0.015,
		ShortSpread:            0.010,
		ParticipationFraction:  0.01,
		VolumeWindowDays:       20,
		DayCountConvention:     DayCount360,
		ReversionHoldDays:      1,
		MomentumExitOffsetDays: -1,
		DivergenceTolerance:    1e-9,
		BenchmarkTicker:        "SPY",
	}
}

// PerEventNotionalUSD is the independent capital allocation of a single
// event: PortfolioNotionalUSD x AllocationFraction.
func (c Config) PerEventNotionalUSD() float64 {
	return c.PortfolioNotionalUSD * c.AllocationFraction
}

// Validate rejects unresolvable constants before any event is processed.
func (c Config) Validate() error {
	if c.PortfolioNotionalUSD <= 0 {
		return fmt.Errorf("%w: portfolio notional must be positive, got %v", ErrConfiguration, c.PortfolioNotionalUSD)
	}
	if c.AllocationFraction <= 0 || c.AllocationFraction > 1 {
		return fmt.Errorf("%w: allocation fraction must be in (0, 1], got %v", ErrConfiguration, c.AllocationFraction)
	}
	if c.PerShareCostUSD < 0 {
		return fmt.Errorf("%w: per-share cost must be non-negative, got %v", ErrConfiguration, c.PerShareCostUSD)
	}
	if c.LongSpread < 0 || c.ShortSpread < 0 {
		return fmt.Errorf("%w: financing spreads must be non-negative", ErrConfiguration)
	}
	if c.ParticipationFraction <= 0 || c.ParticipationFraction > 1 {
		return fmt.Errorf("%w: participation fraction must be in (0, 1], got %v", ErrConfiguration, c.ParticipationFraction)
	}
	if c.VolumeWindowDays <= 0 {
		return fmt.Errorf("%w: volume window must be positive, got %d", ErrConfiguration, c.VolumeWindowDays)
	}
	if c.DayCountConvention != DayCount360 && c.DayCountConvention != DayCount365 {
		return fmt.Errorf("%w: unknown day-count convention %d (want %d or %d)",
			ErrConfiguration, c.DayCountConvention, DayCount360, DayCount365)
	}
	if c.ReversionHoldDays <= 0 {
		return fmt.Errorf("%w: reversion hold must be positive, got %d", ErrConfiguration, c.ReversionHoldDays)
	}
	if c.DivergenceTolerance < 0 {
		return fmt.Errorf("%w: divergence tolerance must be non-negative, got %v", ErrConfiguration, c.DivergenceTolerance)
	}
	if c.BenchmarkTicker == "" {
		return fmt.Errorf("%w: benchmark ticker must be set", ErrConfiguration)
	}
	return nil
}

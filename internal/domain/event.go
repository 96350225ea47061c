package domain

import (
	"fmt"
	"time"
)

// Event represents a single index-addition occurrence.
// Immutable once loaded; one simulation per event per strategy.
type Event struct {
	EventID          string    // PRIMARY KEY, deterministic hash
	Ticker           string    // exchange ticker, e.g. "ABC"
	AnnouncementDate time.Time // date the addition was announced
	EffectiveDate    time.Time // date the addition takes effect (trade date)
	IndexName        string    // informational, e.g. "S&P 500"
	Score            float64   // upstream momentum signal; sign selects side
	CreatedAt        time.Time // record creation timestamp
}

// Validate checks event invariants.
// AnnouncementDate must be strictly before EffectiveDate.
func (e *Event) Validate() error {
	if e.Ticker == "" {
		return fmt.Errorf("%w: empty ticker", ErrInvariantViolation)
	}
	if e.AnnouncementDate.IsZero() || e.EffectiveDate.IsZero() {
		return fmt.Errorf("%w: ticker %s has unset dates", ErrInvariantViolation, e.Ticker)
	}
	if !e.AnnouncementDate.Before(e.EffectiveDate) {
		return fmt.Errorf("%w: ticker %s announced %s not before effective %s",
			ErrInvariantViolation, e.Ticker,
			FormatDate(e.AnnouncementDate), FormatDate(e.EffectiveDate))
	}
	return nil
}

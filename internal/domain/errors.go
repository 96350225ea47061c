package domain

import "errors"

// Domain errors.
var (
	// ErrInvariantViolation marks a malformed event or other input that
	// breaks a model invariant. The offending row is rejected; the run
	// continues for other rows.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrMissingData marks a required price, volume, or rate observation
	// that is absent for a date the simulation needs. The affected event
	// transitions to Skipped; never coerced to zero.
	ErrMissingData = errors.New("missing data")

	// ErrConfiguration marks an unresolvable configuration constant.
	// Fatal at startup, before any event is processed.
	ErrConfiguration = errors.New("configuration error")
)

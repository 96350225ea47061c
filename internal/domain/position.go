package domain

import "time"

// Side is the direction of a position.
type Side int

// Side constants. The numeric value is the PnL sign multiplier.
const (
	SideLong  Side = 1
	SideShort Side = -1
)

// String returns the wire representation of a side.
func (s Side) String() string {
	if s == SideShort {
		return "SHORT"
	}
	return "LONG"
}

// ParseSide parses the wire representation of a side.
func ParseSide(s string) (Side, bool) {
	switch s {
	case "LONG":
		return SideLong, true
	case "SHORT":
		return SideShort, true
	}
	return 0, false
}

// Position is a resolved trade owned exclusively by one event's
// simulation. Shares is bounded by the liquidity cap at entry and by the
// per-event notional allocation.
type Position struct {
	Ticker     string
	Side       Side
	EntryDate  time.Time
	EntryPrice float64
	Shares     float64 // whole-share quantity, stored as float for arithmetic
	ExitDate   time.Time
	ExitPrice  float64
}

// Notional returns the entry notional of the position.
// Financing accrues on this value for every night held.
func (p *Position) Notional() float64 {
	return p.EntryPrice * p.Shares
}

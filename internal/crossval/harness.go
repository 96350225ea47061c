package crossval

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
)

// Divergence is one element-wise disagreement between the two engines.
type Divergence struct {
	EventID  string
	Strategy domain.Strategy
	Date     time.Time
	Field    string // "daily", "net", "gross", or "shape"
	Primary  float64
	Shadow   float64
	Delta    float64
}

func (d Divergence) String() string {
	return fmt.Sprintf("%s/%s %s %s: primary=%.12g shadow=%.12g delta=%.3g",
		d.EventID, d.Strategy, domain.FormatDate(d.Date), d.Field, d.Primary, d.Shadow, d.Delta)
}

// Report summarizes a primary-versus-shadow comparison. It is always
// produced, agreement or not; Agreed distinguishes the two outcomes.
type Report struct {
	Tolerance float64
	Trades    int
	Compared  int // element-wise comparisons performed

	MaxAbsDiff float64
	MeanDiff   float64
	StdDiff    float64

	First       *Divergence // earliest divergence beyond tolerance, nil when Agreed
	Divergences []Divergence
	Agreed      bool
}

// Compare runs the element-wise and cumulative comparison of the
// primary engine's closed results against the shadow engine's replay.
// Daily amounts are compared date by date; stream totals are compared
// against the recorded GrossPnL and NetPnL so the decomposition cannot
// drift from the headline numbers on either side.
func Compare(primary []*domain.SimulationResult, shadow map[TradeKey]*ShadowPnL, tolerance float64) *Report {
	rep := &Report{Tolerance: tolerance}

	var diffs []float64
	record := func(key TradeKey, date time.Time, field string, a, b float64) {
		delta := a - b
		diffs = append(diffs, delta)
		if math.Abs(delta) > tolerance {
			rep.Divergences = append(rep.Divergences, Divergence{
				EventID:  key.EventID,
				Strategy: key.Strategy,
				Date:     date,
				Field:    field,
				Primary:  a,
				Shadow:   b,
				Delta:    delta,
			})
		}
	}

	ordered := make([]*domain.SimulationResult, 0, len(primary))
	for _, r := range primary {
		if !r.Skipped() {
			ordered = append(ordered, r)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].EventID != ordered[j].EventID {
			return ordered[i].EventID < ordered[j].EventID
		}
		return ordered[i].Strategy < ordered[j].Strategy
	})

	seen := make(map[TradeKey]bool, len(ordered))
	for _, r := range ordered {
		key := TradeKey{EventID: r.EventID, Strategy: r.Strategy}
		seen[key] = true
		rep.Trades++

		b, ok := shadow[key]
		if !ok {
			rep.Divergences = append(rep.Divergences, Divergence{
				EventID: r.EventID, Strategy: r.Strategy, Field: "shape",
				Primary: float64(len(r.Daily)),
			})
			continue
		}
		if len(b.Daily) != len(r.Daily) {
			rep.Divergences = append(rep.Divergences, Divergence{
				EventID: r.EventID, Strategy: r.Strategy, Field: "shape",
				Primary: float64(len(r.Daily)), Shadow: float64(len(b.Daily)),
			})
			continue
		}

		for i, day := range r.Daily {
			if !day.Date.Equal(b.Daily[i].Date) {
				rep.Divergences = append(rep.Divergences, Divergence{
					EventID: r.EventID, Strategy: r.Strategy, Date: day.Date, Field: "shape",
				})
				continue
			}
			record(key, day.Date, "daily", day.Amount, b.Daily[i].Amount)
		}
		record(key, r.Position.ExitDate, "gross", r.GrossPnL, b.GrossPnL)
		record(key, r.Position.ExitDate, "net", r.NetPnL, b.NetPnL)
	}

	// Trades only the shadow produced are shape divergences too.
	extras := make([]TradeKey, 0)
	for key := range shadow {
		if !seen[key] {
			extras = append(extras, key)
		}
	}
	sort.Slice(extras, func(i, j int) bool {
		if extras[i].EventID != extras[j].EventID {
			return extras[i].EventID < extras[j].EventID
		}
		return extras[i].Strategy < extras[j].Strategy
	})
	for _, key := range extras {
		rep.Divergences = append(rep.Divergences, Divergence{
			EventID: key.EventID, Strategy: key.Strategy, Field: "shape",
			Shadow: float64(len(shadow[key].Daily)),
		})
	}

	rep.Compared = len(diffs)
	if len(diffs) > 0 {
		var sum float64
		for _, d := range diffs {
			sum += d
			if abs := math.Abs(d); abs > rep.MaxAbsDiff {
				rep.MaxAbsDiff = abs
			}
		}
		rep.MeanDiff = sum / float64(len(diffs))
		var sq float64
		for _, d := range diffs {
			sq += (d - rep.MeanDiff) * (d - rep.MeanDiff)
		}
		rep.StdDiff = math.Sqrt(sq / float64(len(diffs)))
	}

	rep.Agreed = len(rep.Divergences) == 0
	if !rep.Agreed {
		first := rep.Divergences[0]
		for _, d := range rep.Divergences[1:] {
			if d.Date.Before(first.Date) {
				first = d
			}
		}
		rep.First = &first
	}

	return rep
}

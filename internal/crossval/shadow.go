package crossval

import (
	"fmt"
	"sort"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
)

// TradeKey identifies one PnL stream in either engine's output.
type TradeKey struct {
	EventID  string
	Strategy domain.Strategy
}

// ShadowPnL is one trade's daily stream as recomputed by the shadow
// engine, together with independently recomputed totals.
type ShadowPnL struct {
	Daily    []domain.DailyPnL
	GrossPnL float64
	NetPnL   float64
}

// Replay is the shadow engine: a second, independently written
// arithmetic path from canonical rows to daily PnL. It deliberately
// shares no code with the primary engine. Transaction costs and
// financing are recomputed from the configuration and the marks, never
// read from the exported cost columns; those columns are extra
// operands for the harness, not inputs here.
func Replay(exp *Export, cfg domain.Config) (map[TradeKey]*ShadowPnL, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	marks := make(map[TradeKey][]MarkRow, len(exp.Events))
	for _, m := range exp.Marks {
		k := TradeKey{EventID: m.EventID, Strategy: m.Strategy}
		marks[k] = append(marks[k], m)
	}
	for _, ms := range marks {
		sort.Slice(ms, func(i, j int) bool { return ms[i].Date.Before(ms[j].Date) })
	}

	out := make(map[TradeKey]*ShadowPnL, len(exp.Events))
	for _, ev := range exp.Events {
		k := TradeKey{EventID: ev.EventID, Strategy: ev.Strategy}
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("shadow replay: duplicate trade %s/%s", ev.EventID, ev.Strategy)
		}
		stream, err := replayTrade(ev, marks[k], cfg)
		if err != nil {
			return nil, err
		}
		out[k] = stream
	}

	return out, nil
}

func replayTrade(ev EventRow, marks []MarkRow, cfg domain.Config) (*ShadowPnL, error) {
	if len(marks) != ev.NightsHeld {
		return nil, fmt.Errorf("shadow replay %s/%s: %d marks for %d nights",
			ev.EventID, ev.Strategy, len(marks), ev.NightsHeld)
	}
	if len(marks) > 0 && !marks[0].Date.Equal(ev.EntryDate) {
		return nil, fmt.Errorf("shadow replay %s/%s: first mark %s is not the entry date %s",
			ev.EventID, ev.Strategy, domain.FormatDate(marks[0].Date), domain.FormatDate(ev.EntryDate))
	}

	sign := float64(ev.Side)
	legCost := ev.Shares * cfg.PerShareCostUSD
	notional := ev.Shares * ev.EntryPrice

	spread := cfg.LongSpread
	if ev.Side == domain.SideShort {
		spread = cfg.ShortSpread
	}
	dayCount := float64(cfg.DayCountConvention)

	carry := func(rate float64) float64 {
		return notional * (rate + spread) / dayCount
	}

	// The stream walks mark to mark: the position is valued at each
	// day's close and finally at the exit print. Every night's carry
	// lands on the morning it is paid.
	var daily []domain.DailyPnL
	add := func(date time.Time, amount float64) {
		daily = append(daily, domain.DailyPnL{Date: date, Amount: amount})
	}

	if ev.NightsHeld == 0 {
		add(ev.ExitDate, (ev.ExitPrice-ev.EntryPrice)*ev.Shares*sign-2*legCost)
	} else {
		prev := ev.EntryPrice
		for n, m := range marks {
			move := (m.Close - prev) * ev.Shares * sign
			if n == 0 {
				add(m.Date, move-legCost)
			} else {
				add(m.Date, move-carry(marks[n-1].OvernightRate))
			}
			prev = m.Close
		}
		last := marks[len(marks)-1]
		add(ev.ExitDate, (ev.ExitPrice-prev)*ev.Shares*sign-legCost-carry(last.OvernightRate))
	}

	stream := &ShadowPnL{
		Daily:    daily,
		GrossPnL: (ev.ExitPrice - ev.EntryPrice) * ev.Shares * sign,
	}
	for _, d := range daily {
		stream.NetPnL += d.Amount
	}
	return stream, nil
}

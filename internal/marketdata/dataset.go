// Package marketdata materializes daily bar and rate series into an
// immutable Dataset snapshot before a simulation run starts. The engine
// performs no I/O; every lookup answers from this snapshot, and a gap in
// a series is reported as absent, never coerced to zero.
package marketdata

import (
	"fmt"
	"sort"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
)

// Dataset is a read-only snapshot of all series a run needs.
type Dataset struct {
	bars    map[string][]*domain.PriceBar // per ticker, sorted by date
	barIdx  map[string]map[time.Time]int  // per ticker, date -> series index
	rates   map[time.Time]float64
	tickers []string
}

// NewDataset builds a snapshot from bar and rate series. Duplicate
// (ticker, date) bars or duplicate rate dates are rejected.
func NewDataset(bars []*domain.PriceBar, rates []*domain.RatePoint) (*Dataset, error) {
	ds := &Dataset{
		bars:   make(map[string][]*domain.PriceBar),
		barIdx: make(map[string]map[time.Time]int),
		rates:  make(map[time.Time]float64),
	}

	for _, b := range bars {
		if b.Ticker == "" || b.Date.IsZero() {
			return nil, fmt.Errorf("bar with empty ticker or date")
		}
		cp := *b
		ds.bars[b.Ticker] = append(ds.bars[b.Ticker], &cp)
	}

	for ticker, series := range ds.bars {
		sort.Slice(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})

		idx := make(map[time.Time]int, len(series))
		for i, b := range series {
			if _, dup := idx[b.Date]; dup {
				return nil, fmt.Errorf("duplicate bar for %s on %s", ticker, domain.FormatDate(b.Date))
			}
			idx[b.Date] = i
		}
		ds.barIdx[ticker] = idx
		ds.tickers = append(ds.tickers, ticker)
	}
	sort.Strings(ds.tickers)

	for _, p := range rates {
		if _, dup := ds.rates[p.Date]; dup {
			return nil, fmt.Errorf("duplicate rate for %s", domain.FormatDate(p.Date))
		}
		ds.rates[p.Date] = p.Rate
	}

	return ds, nil
}

// Tickers returns the tickers present in the snapshot, sorted ASC.
func (d *Dataset) Tickers() []string {
	return d.tickers
}

// HasTicker reports whether any bars exist for the ticker.
func (d *Dataset) HasTicker(ticker string) bool {
	return len(d.bars[ticker]) > 0
}

// BarOn returns the bar for ticker on exactly the given date.
func (d *Dataset) BarOn(ticker string, date time.Time) (*domain.PriceBar, bool) {
	idx, ok := d.barIdx[ticker]
	if !ok {
		return nil, false
	}
	i, ok := idx[date]
	if !ok {
		return nil, false
	}
	return d.bars[ticker][i], true
}

// FirstBarAfter returns the first bar for ticker dated strictly after
// the given date, with its series index.
func (d *Dataset) FirstBarAfter(ticker string, date time.Time) (*domain.PriceBar, int, bool) {
	series := d.bars[ticker]
	i := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(date)
	})
	if i == len(series) {
		return nil, 0, false
	}
	return series[i], i, true
}

// CeilingIndex returns the index of the first bar for ticker dated on or
// after the given date.
func (d *Dataset) CeilingIndex(ticker string, date time.Time) (int, bool) {
	series := d.bars[ticker]
	i := sort.Search(len(series), func(i int) bool {
		return !series[i].Date.Before(date)
	})
	if i == len(series) {
		return 0, false
	}
	return i, true
}

// BarAt returns the bar at a series index for ticker.
func (d *Dataset) BarAt(ticker string, i int) (*domain.PriceBar, bool) {
	series := d.bars[ticker]
	if i < 0 || i >= len(series) {
		return nil, false
	}
	return series[i], true
}

// IndexOn returns the series index of the bar for ticker on exactly the
// given date.
func (d *Dataset) IndexOn(ticker string, date time.Time) (int, bool) {
	idx, ok := d.barIdx[ticker]
	if !ok {
		return 0, false
	}
	i, ok := idx[date]
	return i, ok
}

// TrailingVolumes returns the window of daily volumes for ticker ending
// strictly before the given date. Returns false when fewer than window
// observations exist; the caller must treat the cap as undefined rather
// than uncapped.
func (d *Dataset) TrailingVolumes(ticker string, date time.Time, window int) ([]float64, bool) {
	series := d.bars[ticker]
	end := sort.Search(len(series), func(i int) bool {
		return !series[i].Date.Before(date)
	})
	if end < window {
		return nil, false
	}

	volumes := make([]float64, window)
	for i := 0; i < window; i++ {
		volumes[i] = series[end-window+i].Volume
	}
	return volumes, true
}

// RateOn returns the overnight financing rate for the given date.
// A missing observation is reported, never zeroed.
func (d *Dataset) RateOn(date time.Time) (float64, bool) {
	r, ok := d.rates[date]
	return r, ok
}

package domain

import "time"

// DateLayout is the wire format for calendar dates in all tabular inputs
// and outputs.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a UTC-midnight time.Time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// PriceBar is one trading day of OHLCV data for a ticker.
// Series are ordered by date with no duplicate dates per ticker.
// A missing trading day is a gap, not a zero bar.
type PriceBar struct {
	Ticker string
	Date   time.Time
	Open   float64
	Close  float64
	High   float64
	Low    float64
	Volume float64 // shares traded
}

// RatePoint is one observation of the benchmark overnight financing rate
// (e.g. effective Fed Funds), expressed as an annual decimal rate.
// A single series applies to all tickers.
type RatePoint struct {
	Date time.Time
	Rate float64
}

package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
)

// Bar CSV columns, in order.
var barHeader = []string{"ticker", "date", "open", "close", "high", "low", "volume"}

// Rate CSV columns, in order.
var rateHeader = []string{"date", "rate"}

// LoadBarsCSV reads a daily OHLCV series from CSV with the header
// ticker,date,open,close,high,low,volume.
func LoadBarsCSV(r io.Reader) ([]*domain.PriceBar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	if err := expectHeader(cr, barHeader); err != nil {
		return nil, fmt.Errorf("bars csv: %w", err)
	}

	var bars []*domain.PriceBar
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("bars csv line %d: %w", line, err)
		}
		if len(record) < len(barHeader) {
			return nil, fmt.Errorf("bars csv line %d: want %d fields, got %d", line, len(barHeader), len(record))
		}

		date, err := domain.ParseDate(record[1])
		if err != nil {
			return nil, fmt.Errorf("bars csv line %d: bad date %q", line, record[1])
		}

		vals := make([]float64, 5)
		for i, raw := range record[2:7] {
			vals[i], err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("bars csv line %d: bad %s %q", line, barHeader[i+2], raw)
			}
		}

		bars = append(bars, &domain.PriceBar{
			Ticker: record[0],
			Date:   date,
			Open:   vals[0],
			Close:  vals[1],
			High:   vals[2],
			Low:    vals[3],
			Volume: vals[4],
		})
	}

	return bars, nil
}

// LoadRatesCSV reads the overnight rate series from CSV with the header
// date,rate. Rates are annual decimals (0.05 = 5%).
func LoadRatesCSV(r io.Reader) ([]*domain.RatePoint, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	if err := expectHeader(cr, rateHeader); err != nil {
		return nil, fmt.Errorf("rates csv: %w", err)
	}

	var points []*domain.RatePoint
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("rates csv line %d: %w", line, err)
		}
		if len(record) < len(rateHeader) {
			return nil, fmt.Errorf("rates csv line %d: want %d fields, got %d", line, len(rateHeader), len(record))
		}

		date, err := domain.ParseDate(record[0])
		if err != nil {
			return nil, fmt.Errorf("rates csv line %d: bad date %q", line, record[0])
		}
		rate, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("rates csv line %d: bad rate %q", line, record[1])
		}

		points = append(points, &domain.RatePoint{Date: date, Rate: rate})
	}

	return points, nil
}

func expectHeader(cr *csv.Reader, want []string) error {
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(header) < len(want) {
		return fmt.Errorf("header has %d columns, want %d", len(header), len(want))
	}
	for i, name := range want {
		if header[i] != name {
			return fmt.Errorf("header column %d is %q, want %q", i, header[i], name)
		}
	}
	return nil
}

// Package crossval implements the dual-implementation consistency
// protocol: it freezes the primary engine's resolved inputs into a
// CanonicalExport, replays them through an independently written shadow
// engine, and compares the two PnL streams under a numeric tolerance.
package crossval

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/marketdata"
)

// EventRow is one resolved trade in the canonical export. Both engines
// must honor these column semantics; the scores, dates, and prices are
// frozen here so neither engine re-derives them.
type EventRow struct {
	EventID       string
	Ticker        string
	Strategy      domain.Strategy
	Side          domain.Side
	Score         float64
	EntryDate     time.Time
	EntryPrice    float64
	ExitDate      time.Time
	ExitPrice     float64
	Shares        float64
	EntryCost     float64
	ExitCost      float64
	FinancingCost float64
	NightsHeld    int
}

// MarkRow is one overnight mark for a trade: the close of the day the
// night leaves and the overnight rate accruing across that night.
// A trade has exactly NightsHeld marks.
type MarkRow struct {
	EventID       string
	Strategy      domain.Strategy
	Date          time.Time
	Close         float64
	OvernightRate float64
}

// Export is the canonical snapshot handed between the two engines.
type Export struct {
	Events []EventRow
	Marks  []MarkRow
}

// Build freezes every closed result into canonical rows. Rows are
// ordered by (event_id, strategy) so repeated exports are byte-stable.
func Build(events []*domain.Event, results []*domain.SimulationResult, ds *marketdata.Dataset) (*Export, error) {
	exp := &Export{}

	scores := make(map[string]float64, len(events))
	for _, ev := range events {
		scores[ev.EventID] = ev.Score
	}

	ordered := make([]*domain.SimulationResult, 0, len(results))
	for _, r := range results {
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

	for _, r := range ordered {
		exp.Events = append(exp.Events, EventRow{
			EventID:       r.EventID,
			Ticker:        r.Ticker,
			Strategy:      r.Strategy,
			Side:          r.Position.Side,
			Score:         scores[r.EventID],
			EntryDate:     r.Position.EntryDate,
			EntryPrice:    r.Position.EntryPrice,
			ExitDate:      r.Position.ExitDate,
			ExitPrice:     r.Position.ExitPrice,
			Shares:        r.Position.Shares,
			EntryCost:     r.EntryCost,
			ExitCost:      r.ExitCost,
			FinancingCost: r.FinancingCost,
			NightsHeld:    r.NightsHeld,
		})

		entryIdx, ok := ds.IndexOn(r.Ticker, r.Position.EntryDate)
		if !ok {
			return nil, fmt.Errorf("export %s/%s: entry bar vanished from dataset", r.EventID, r.Strategy)
		}
		for n := 0; n < r.NightsHeld; n++ {
			bar, ok := ds.BarAt(r.Ticker, entryIdx+n)
			if !ok {
				return nil, fmt.Errorf("export %s/%s: bar %d vanished from dataset", r.EventID, r.Strategy, n)
			}
			rate, ok := ds.RateOn(bar.Date)
			if !ok {
				return nil, fmt.Errorf("export %s/%s: rate for %s vanished from dataset",
					r.EventID, r.Strategy, domain.FormatDate(bar.Date))
			}
			exp.Marks = append(exp.Marks, MarkRow{
				EventID:       r.EventID,
				Strategy:      r.Strategy,
				Date:          bar.Date,
				Close:         bar.Close,
				OvernightRate: rate,
			})
		}
	}

	return exp, nil
}

var eventColumns = []string{
	"event_id", "ticker", "strategy", "side", "score",
	"entry_date", "entry_price", "exit_date", "exit_price", "shares",
	"entry_cost", "exit_cost", "financing_cost", "nights_held",
}

var markColumns = []string{"event_id", "strategy", "date", "close", "overnight_rate"}

// WriteTo serializes the export as two CSV tables.
func (e *Export) WriteTo(eventsW, marksW io.Writer) error {
	ew := csv.NewWriter(eventsW)
	if err := ew.Write(eventColumns); err != nil {
		return fmt.Errorf("write events header: %w", err)
	}
	for _, row := range e.Events {
		record := []string{
			row.EventID,
			row.Ticker,
			string(row.Strategy),
			row.Side.String(),
			formatFloat(row.Score),
			domain.FormatDate(row.EntryDate),
			formatFloat(row.EntryPrice),
			domain.FormatDate(row.ExitDate),
			formatFloat(row.ExitPrice),
			formatFloat(row.Shares),
			formatFloat(row.EntryCost),
			formatFloat(row.ExitCost),
			formatFloat(row.FinancingCost),
			strconv.Itoa(row.NightsHeld),
		}
		if err := ew.Write(record); err != nil {
			return fmt.Errorf("write event row: %w", err)
		}
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return fmt.Errorf("flush events: %w", err)
	}

	mw := csv.NewWriter(marksW)
	if err := mw.Write(markColumns); err != nil {
		return fmt.Errorf("write marks header: %w", err)
	}
	for _, row := range e.Marks {
		record := []string{
			row.EventID,
			string(row.Strategy),
			domain.FormatDate(row.Date),
			formatFloat(row.Close),
			formatFloat(row.OvernightRate),
		}
		if err := mw.Write(record); err != nil {
			return fmt.Errorf("write mark row: %w", err)
		}
	}
	mw.Flush()
	if err := mw.Error(); err != nil {
		return fmt.Errorf("flush marks: %w", err)
	}

	return nil
}

// Read parses an export previously produced by WriteTo.
func Read(eventsR, marksR io.Reader) (*Export, error) {
	exp := &Export{}

	er := csv.NewReader(eventsR)
	records, err := er.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read events csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("events csv: missing header")
	}
	for i, record := range records[1:] {
		row, err := parseEventRow(record)
		if err != nil {
			return nil, fmt.Errorf("events csv row %d: %w", i+2, err)
		}
		exp.Events = append(exp.Events, row)
	}

	mr := csv.NewReader(marksR)
	records, err = mr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read marks csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("marks csv: missing header")
	}
	for i, record := range records[1:] {
		row, err := parseMarkRow(record)
		if err != nil {
			return nil, fmt.Errorf("marks csv row %d: %w", i+2, err)
		}
		exp.Marks = append(exp.Marks, row)
	}

	return exp, nil
}

func parseEventRow(record []string) (EventRow, error) {
	var row EventRow
	if len(record) != len(eventColumns) {
		return row, fmt.Errorf("want %d fields, got %d", len(eventColumns), len(record))
	}

	row.EventID = record[0]
	row.Ticker = record[1]
	row.Strategy = domain.Strategy(record[2])

	side, ok := domain.ParseSide(record[3])
	if !ok {
		return row, fmt.Errorf("bad side %q", record[3])
	}
	row.Side = side

	var err error
	if row.Score, err = strconv.ParseFloat(record[4], 64); err != nil {
		return row, fmt.Errorf("bad score %q", record[4])
	}
	if row.EntryDate, err = domain.ParseDate(record[5]); err != nil {
		return row, fmt.Errorf("bad entry date %q", record[5])
	}
	if row.EntryPrice, err = strconv.ParseFloat(record[6], 64); err != nil {
		return row, fmt.Errorf("bad entry price %q", record[6])
	}
	if row.ExitDate, err = domain.ParseDate(record[7]); err != nil {
		return row, fmt.Errorf("bad exit date %q", record[7])
	}
	if row.ExitPrice, err = strconv.ParseFloat(record[8], 64); err != nil {
		return row, fmt.Errorf("bad exit price %q", record[8])
	}
	if row.Shares, err = strconv.ParseFloat(record[9], 64); err != nil {
		return row, fmt.Errorf("bad shares %q", record[9])
	}
	if row.EntryCost, err = strconv.ParseFloat(record[10], 64); err != nil {
		return row, fmt.Errorf("bad entry cost %q", record[10])
	}
	if row.ExitCost, err = strconv.ParseFloat(record[11], 64); err != nil {
		return row, fmt.Errorf("bad exit cost %q", record[11])
	}
	if row.FinancingCost, err = strconv.ParseFloat(record[12], 64); err != nil {
		return row, fmt.Errorf("bad financing cost %q", record[12])
	}
	if row.NightsHeld, err = strconv.Atoi(record[13]); err != nil {
		return row, fmt.Errorf("bad nights held %q", record[13])
	}

	return row, nil
}

func parseMarkRow(record []string) (MarkRow, error) {
	var row MarkRow
	if len(record) != len(markColumns) {
		return row, fmt.Errorf("want %d fields, got %d", len(markColumns), len(record))
	}

	row.EventID = record[0]
	row.Strategy = domain.Strategy(record[1])

	var err error
	if row.Date, err = domain.ParseDate(record[2]); err != nil {
		return row, fmt.Errorf("bad date %q", record[2])
	}
	if row.Close, err = strconv.ParseFloat(record[3], 64); err != nil {
		return row, fmt.Errorf("bad close %q", record[3])
	}
	if row.OvernightRate, err = strconv.ParseFloat(record[4], 64); err != nil {
		return row, fmt.Errorf("bad overnight rate %q", record[4])
	}

	return row, nil
}

// formatFloat renders floats with full round-trip precision, so the
// shadow engine reads exactly the numbers the primary resolved.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

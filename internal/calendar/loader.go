// Package calendar loads the index-addition event calendar from tabular
// CSV input and enforces event invariants. Malformed rows are rejected
// with a recorded reason, never silently dropped.
package calendar

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderhaire/index-rebalancing-strategy/internal/domain"
	"github.com/alexanderhaire/index-rebalancing-strategy/internal/idhash"
)

// Column aliases accepted for each required field, lowercased.
// Extra columns are ignored, not rejected.
var (
	tickerAliases    = []string{"ticker"}
	announcedAliases = []string{"announced", "announcement date"}
	effectiveAliases = []string{"trade date", "effective date"}
	indexAliases     = []string{"index", "index name"}
	scoreAliases     = []string{"score", "mom_score"}
)

// RejectedRow records a calendar row that failed validation.
type RejectedRow struct {
	Line   int    // 1-based line number in the input, header included
	Ticker string // best-effort ticker for diagnostics, may be empty
	Reason string
}

// LoadResult holds the outcome of loading a calendar.
type LoadResult struct {
	Events   []*domain.Event
	Rejected []RejectedRow
}

// Load reads an event calendar from CSV. The header row is required.
// Rows violating invariants (announcement on or after effective date,
// duplicate event identity, unparsable dates) are surfaced in Rejected;
// the rest of the file is still loaded.
func Load(r io.Reader) (*LoadResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read calendar header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{}
	seen := make(map[string]int) // event_id -> first line
	line := 1

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read calendar line %d: %w", line, err)
		}

		event, reason := parseRow(record, cols)
		if reason != "" {
			result.Rejected = append(result.Rejected, RejectedRow{
				Line:   line,
				Ticker: field(record, cols.ticker),
				Reason: reason,
			})
			continue
		}

		if first, dup := seen[event.EventID]; dup {
			result.Rejected = append(result.Rejected, RejectedRow{
				Line:   line,
				Ticker: event.Ticker,
				Reason: fmt.Sprintf("duplicate of line %d", first),
			})
			continue
		}
		seen[event.EventID] = line

		result.Events = append(result.Events, event)
	}

	return result, nil
}

type columns struct {
	ticker    int
	announced int
	effective int
	index     int // -1 if absent
	score     int // -1 if absent
}

func resolveColumns(header []string) (columns, error) {
	find := func(aliases []string) int {
		for i, h := range header {
			name := strings.ToLower(strings.TrimSpace(h))
			for _, a := range aliases {
				if name == a {
					return i
				}
			}
		}
		return -1
	}

	cols := columns{
		ticker:    find(tickerAliases),
		announced: find(announcedAliases),
		effective: find(effectiveAliases),
		index:     find(indexAliases),
		score:     find(scoreAliases),
	}

	if cols.ticker < 0 {
		return cols, fmt.Errorf("calendar header missing Ticker column")
	}
	if cols.announced < 0 {
		return cols, fmt.Errorf("calendar header missing Announced column")
	}
	if cols.effective < 0 {
		return cols, fmt.Errorf("calendar header missing Trade Date column")
	}
	return cols, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseRow builds an Event from one CSV record. Returns a non-empty
// reason string when the row must be rejected.
func parseRow(record []string, cols columns) (*domain.Event, string) {
	ticker := normalizeTicker(field(record, cols.ticker))
	if ticker == "" {
		return nil, "empty ticker"
	}

	announced, err := domain.ParseDate(field(record, cols.announced))
	if err != nil {
		return nil, fmt.Sprintf("bad announcement date %q", field(record, cols.announced))
	}
	effective, err := domain.ParseDate(field(record, cols.effective))
	if err != nil {
		return nil, fmt.Sprintf("bad trade date %q", field(record, cols.effective))
	}

	indexName := field(record, cols.index)

	score := 1.0 // absent score defaults to long
	if raw := field(record, cols.score); raw != "" {
		score, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Sprintf("bad score %q", raw)
		}
	}

	event := &domain.Event{
		EventID:          idhash.ComputeEventID(ticker, announced, effective, indexName),
		Ticker:           ticker,
		AnnouncementDate: announced,
		EffectiveDate:    effective,
		IndexName:        indexName,
		Score:            score,
		CreatedAt:        time.Now().UTC(),
	}
	if err := event.Validate(); err != nil {
		return nil, err.Error()
	}

	return event, ""
}

// normalizeTicker strips the exchange suffix that vendor sheets append,
// so "ABC US" and "ABC" resolve to the same series.
func normalizeTicker(s string) string {
	s = strings.TrimSpace(s)
	if t, ok := strings.CutSuffix(s, " US"); ok {
		return strings.TrimSpace(t)
	}
	return s
}

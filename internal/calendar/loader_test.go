package calendar

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_ValidCalendar(t *testing.T) {
	input := strings.Join([]string{
		"Ticker,Announced,Trade Date,Index,Sector,Score",
		"ABC,2024-01-02,2024-01-10,S&P 500,Tech,0.7",
		"XYZ US,2024-02-05,2024-02-16,S&P 400,Energy,-0.3",
	}, "\n")

	result, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(result.Events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(result.Events))
	}
	if len(result.Rejected) != 0 {
		t.Fatalf("Expected 0 rejects, got %d: %+v", len(result.Rejected), result.Rejected)
	}

	abc := result.Events[0]
	if abc.Ticker != "ABC" {
		t.Errorf("Ticker: got %s, want ABC", abc.Ticker)
	}
	if !abc.AnnouncementDate.Equal(time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("AnnouncementDate: got %v", abc.AnnouncementDate)
	}
	if abc.Score != 0.7 {
		t.Errorf("Score: got %v, want 0.7", abc.Score)
	}
	if len(abc.EventID) != 64 {
		t.Errorf("EventID length: got %d, want 64", len(abc.EventID))
	}

	// Exchange suffix stripped
	if result.Events[1].Ticker != "XYZ" {
		t.Errorf("Ticker: got %s, want XYZ", result.Events[1].Ticker)
	}
}

func TestLoad_ExtraColumnsIgnored_MissingScoreDefaultsLong(t *testing.T) {
	input := strings.Join([]string{
		"Last Px,Ticker,Announced,Trade Date,Shs to Trade,Index",
		"$12.50,ABC,2024-01-02,2024-01-10,\"1,000\",S&P 500",
	}, "\n")

	result, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(result.Events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(result.Events))
	}
	if result.Events[0].Score != 1.0 {
		t.Errorf("Missing score must default to +1, got %v", result.Events[0].Score)
	}
}

func TestLoad_RejectsInvariantViolations(t *testing.T) {
	input := strings.Join([]string{
		"Ticker,Announced,Trade Date,Index",
		"GOOD,2024-01-02,2024-01-10,S&P 500",
		"BAD,2024-01-10,2024-01-02,S&P 500",
		"SAME,2024-01-10,2024-01-10,S&P 500",
		",2024-01-02,2024-01-10,S&P 500",
		"NODATE,not-a-date,2024-01-10,S&P 500",
	}, "\n")

	result, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(result.Events) != 1 || result.Events[0].Ticker != "GOOD" {
		t.Fatalf("Expected only GOOD to load, got %d events", len(result.Events))
	}
	if len(result.Rejected) != 4 {
		t.Fatalf("Expected 4 rejects, got %d: %+v", len(result.Rejected), result.Rejected)
	}
	for _, rej := range result.Rejected {
		if rej.Reason == "" {
			t.Errorf("Reject at line %d has empty reason", rej.Line)
		}
		if rej.Line < 2 {
			t.Errorf("Reject line must point at a data row, got %d", rej.Line)
		}
	}
}

func TestLoad_RejectsDuplicateEvents(t *testing.T) {
	input := strings.Join([]string{
		"Ticker,Announced,Trade Date,Index",
		"ABC,2024-01-02,2024-01-10,S&P 500",
		"ABC,2024-01-02,2024-01-10,S&P 500",
		"ABC,2024-01-02,2024-01-11,S&P 500",
	}, "\n")

	result, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Second row is an exact duplicate; third differs in effective date
	if len(result.Events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(result.Events))
	}
	if len(result.Rejected) != 1 {
		t.Fatalf("Expected 1 reject, got %d", len(result.Rejected))
	}
	if !strings.Contains(result.Rejected[0].Reason, "duplicate") {
		t.Errorf("Reject reason should mention duplicate, got %q", result.Rejected[0].Reason)
	}
}

func TestLoad_MissingRequiredColumn(t *testing.T) {
	input := "Ticker,Announced,Index\nABC,2024-01-02,S&P 500\n"

	_, err := Load(strings.NewReader(input))
	if err == nil {
		t.Fatal("Expected error for missing Trade Date column")
	}
}

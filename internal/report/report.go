package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome is one record of the JSON results file.
type Outcome struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	// Duration in milliseconds, when the reporter recorded it.
	Duration *float64 `json:"duration,omitempty"`
}

type Summary struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	// PassRate is Passed/Total as a percentage, 0 for an empty run.
	PassRate float64
}

var ErrIntegrity = errors.New("malformed test outcome")

// IntegrityError names the first record that could not be counted.
type IntegrityError struct {
	Index  int
	ID     string
	Status Status
}

func (e *IntegrityError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("outcome %d (%q) has no status", e.Index, e.ID)
	}
	return fmt.Sprintf("outcome %d (%q) has unknown status %q", e.Index, e.ID, e.Status)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// Summarize counts outcomes by status. A record without a known status fails
// the whole summary.
func Summarize(outcomes []Outcome) (Summary, error) {
	var s Summary
	for i, o := range outcomes {
		switch o.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		default:
			return Summary{}, &IntegrityError{Index: i, ID: o.ID, Status: o.Status}
		}
		s.Total++
	}

	if s.Total > 0 {
		s.PassRate = float64(s.Passed) / float64(s.Total) * 100
	}
	return s, nil
}

func ParseOutcomes(r io.Reader) ([]Outcome, error) {
	var outcomes []Outcome
	if err := json.NewDecoder(r).Decode(&outcomes); err != nil {
		return nil, fmt.Errorf("failed to decode test results: %w", err)
	}
	return outcomes, nil
}

// SummaryReport is the persisted form of a Summary. Field names and order
// are read by other tooling.
type SummaryReport struct {
	Timestamp    string `json:"timestamp"`
	TotalTests   int    `json:"totalTests"`
	PassedTests  int    `json:"passedTests"`
	FailedTests  int    `json:"failedTests"`
	SkippedTests int    `json:"skippedTests"`
	PassRate     string `json:"passRate"`
}

func NewSummaryReport(s Summary, now time.Time) SummaryReport {
	return SummaryReport{
		Timestamp:    now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		TotalTests:   s.Total,
		PassedTests:  s.Passed,
		FailedTests:  s.Failed,
		SkippedTests: s.Skipped,
		PassRate:     FormatPassRate(s.PassRate),
	}
}

func FormatPassRate(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate)
}

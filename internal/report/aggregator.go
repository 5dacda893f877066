package report

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/xerrors"
)

type Store interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Aggregator turns a stored results file into a stored summary report.
type Aggregator struct {
	Store  Store
	Clock  func() time.Time
	Logger *slog.Logger
}

func (a *Aggregator) Aggregate(ctx context.Context, reportKey string, summaryKey string) (SummaryReport, error) {
	data, err := a.Store.Get(ctx, reportKey)
	if err != nil {
		return SummaryReport{}, xerrors.Errorf("failed to read %s: %w", reportKey, err)
	}

	outcomes, err := ParseOutcomes(bytes.NewReader(data))
	if err != nil {
		return SummaryReport{}, xerrors.Errorf("failed to parse %s: %w", reportKey, err)
	}

	summary, err := Summarize(outcomes)
	if err != nil {
		return SummaryReport{}, xerrors.Errorf("failed to summarize %s: %w", reportKey, err)
	}

	r := NewSummaryReport(summary, a.now())
	encoded, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return SummaryReport{}, xerrors.Errorf("failed to encode summary: %w", err)
	}
	if _, err := a.Store.Put(ctx, summaryKey, encoded); err != nil {
		return SummaryReport{}, xerrors.Errorf("failed to write %s: %w", summaryKey, err)
	}

	a.logger().Info("test results summary",
		"total", r.TotalTests,
		"passed", r.PassedTests,
		"failed", r.FailedTests,
		"skipped", r.SkippedTests,
		"passRate", r.PassRate,
	)
	return r, nil
}

func (a *Aggregator) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now()
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

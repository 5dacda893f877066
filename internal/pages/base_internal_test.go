package pages

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParsePerformanceMetrics(t *testing.T) {
	t.Parallel()

	got, err := parsePerformanceMetrics(`{"domContentLoaded":120.5,"load":340,"firstContentfulPaint":null,"networkRequests":12}`)
	if err != nil {
		t.Fatal(err)
	}
	want := &PerformanceMetrics{DOMContentLoaded: 120.5, Load: 340, NetworkRequests: 12}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	got, err = parsePerformanceMetrics("null")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil metrics, got %+v", got)
	}

	if _, err := parsePerformanceMetrics(42.0); err == nil {
		t.Error("expected a non-string result to fail")
	}
}

func TestLabelValue(t *testing.T) {
	t.Parallel()

	got, err := labelValue("Item total: $29.99 ")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("$29.99", got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if _, err := labelValue("Total $29.99"); err == nil {
		t.Error("expected a label without a separator to fail")
	}
}

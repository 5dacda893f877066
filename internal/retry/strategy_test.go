package retry_test

import (
	"fmt"
	"math"
	"runtime"
	"storefront-e2e/internal/retry"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type sleep struct {
	Delay    time.Duration
	Exceeded bool
}

// sleeps collects Sleep results for retry counts 0..n-1.
func sleeps(s retry.Strategy, n uint) []sleep {
	got := []sleep{}
	for i := uint(0); i < n; i++ {
		d, exceeded := s.Sleep(i)
		got = append(got, sleep{d, exceeded})
	}
	return got
}

func TestStrategySleep(t *testing.T) {
	type in struct {
		strategy retry.Strategy
		n        uint
	}

	tests := []struct {
		name string
		in   in
		want []sleep
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{retry.NewNever(), 2},
			[]sleep{{0, true}, {0, true}},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{retry.NewExponentialBackOff(time.Second, math.MaxInt64, 3, nil), 4},
			[]sleep{{time.Second, false}, {2 * time.Second, false}, {4 * time.Second, false}, {0, true}},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{retry.NewExponentialBackOff(250*time.Millisecond, 600*time.Millisecond, 5, nil), 5},
			[]sleep{{250 * time.Millisecond, false}, {500 * time.Millisecond, false}, {600 * time.Millisecond, false}, {600 * time.Millisecond, false}, {600 * time.Millisecond, false}},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{retry.NewExponentialBackOff(time.Second, math.MaxInt64, 3, func(d int64) int64 { return d / 2 }), 3},
			[]sleep{{500 * time.Millisecond, false}, {time.Second, false}, {2 * time.Second, false}},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			in{retry.NewExponentialBackOff(time.Duration(math.MaxInt64/2), time.Hour, 2, nil), 2},
			[]sleep{{time.Hour, false}, {time.Hour, false}},
		},
	}

	for _, tt := range tests {
		name := tt.name
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(want, sleeps(in.strategy, in.n)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestExponentialBackOffBeyondShiftWidth(t *testing.T) {
	t.Parallel()

	s := retry.NewExponentialBackOff(time.Millisecond, time.Minute, math.MaxUint32, nil)
	for _, n := range []uint{40, 63, 64, 1000} {
		d, exceeded := s.Sleep(n)
		if exceeded {
			t.Errorf("retry %d: unexpected exceeded", n)
		}
		if diff := cmp.Diff(time.Minute, d); diff != "" {
			t.Errorf("retry %d (-want +got):\n%s", n, diff)
		}
	}
}

func TestFullJitter(t *testing.T) {
	t.Parallel()

	if got := retry.FullJitter(0); got != 0 {
		t.Errorf("expected 0 for a zero delay, got %d", got)
	}
	for i := 0; i < 100; i++ {
		got := retry.FullJitter(int64(time.Second))
		if got < 0 || got >= int64(time.Second) {
			t.Fatalf("jittered delay %d out of [0, 1s)", got)
		}
	}
}

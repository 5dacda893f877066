package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/xerrors"
)

var (
	ErrInvalidConfiguration = errors.New("invalid retry configuration")
	ErrExhausted            = errors.New("retry attempts exhausted")
)

// ExhaustedError is returned when every attempt failed. Only the error of the
// last attempt is kept.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// Attempt describes one failed execution of an operation.
type Attempt struct {
	Number int
	Err    error
	// Delay is the wait before the next attempt, zero after the last one.
	Delay time.Duration
}

type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	// MaxDelay caps a single wait. Zero means no cap.
	MaxDelay time.Duration

	Sleeper Sleeper
	OnRetry func(Attempt)
	Logger  *slog.Logger
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
	}
}

func (p Policy) validate() error {
	if p.MaxAttempts < 1 {
		return xerrors.Errorf("max attempts must be at least 1, got %d: %w", p.MaxAttempts, ErrInvalidConfiguration)
	}
	if p.InitialDelay < 0 {
		return xerrors.Errorf("initial delay must not be negative, got %s: %w", p.InitialDelay, ErrInvalidConfiguration)
	}
	if p.MaxDelay < 0 {
		return xerrors.Errorf("max delay must not be negative, got %s: %w", p.MaxDelay, ErrInvalidConfiguration)
	}
	return nil
}

func (p Policy) strategy() Strategy {
	maxDelay := p.MaxDelay
	if maxDelay == 0 {
		maxDelay = time.Duration(math.MaxInt64)
	}
	return NewExponentialBackOff(p.InitialDelay, maxDelay, uint(p.MaxAttempts-1), nil)
}

func (p Policy) sleeper() Sleeper {
	if p.Sleeper != nil {
		return p.Sleeper
	}
	return timerSleeper{}
}

func (p Policy) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Do runs operation until it succeeds or p.MaxAttempts attempts have failed.
// Waits happen only between attempts and double every time.
func Do[T any](ctx context.Context, p Policy, operation func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := p.validate(); err != nil {
		return zero, err
	}

	strategy := p.strategy()
	sleeper := p.sleeper()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		v, err := operation(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		delay, exceeded := strategy.Sleep(uint(attempt - 1))
		if exceeded {
			delay = 0
		}
		if p.OnRetry != nil {
			p.OnRetry(Attempt{Number: attempt, Err: err, Delay: delay})
		}
		if exceeded {
			break
		}

		p.logger().Debug("attempt failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		if err := sleeper.Sleep(ctx, delay); err != nil {
			return zero, xerrors.Errorf("retry wait interrupted after attempt %d: %w", attempt, err)
		}
	}

	return zero, &ExhaustedError{
		Attempts: p.MaxAttempts,
		Err:      lastErr,
	}
}

// Run is Do with an ad-hoc policy.
func Run[T any](ctx context.Context, operation func(context.Context) (T, error), maxAttempts int, initialDelay time.Duration) (T, error) {
	return Do(ctx, Policy{
		MaxAttempts:  maxAttempts,
		InitialDelay: initialDelay,
	}, operation)
}

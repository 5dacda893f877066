package image

import (
	"context"
	"fmt"
	"image"
)

// DefaultThreshold is the per-pixel tolerance used when none is configured.
const DefaultThreshold = 0.1

type BaselineStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Comparer compares screenshots against baselines kept in a store.
type Comparer struct {
	Store     BaselineStore
	Threshold float64
	// Differ overrides the pixel diff built from Threshold.
	Differ Differ
}

func NewComparer(store BaselineStore) *Comparer {
	return &Comparer{
		Store:     store,
		Threshold: DefaultThreshold,
	}
}

func (c *Comparer) CompareWithBaseline(ctx context.Context, actual image.Image, baselineName string) (*DiffResult, error) {
	data, err := c.Store.Get(ctx, baselineName)
	if err != nil {
		return nil, fmt.Errorf("baseline %q: %w: %w", baselineName, ErrBaselineUnreadable, err)
	}

	baseline, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("baseline %q: %w: %w", baselineName, ErrBaselineUndecodable, err)
	}

	if c.Differ != nil {
		return c.Differ.Calculate(baseline, actual)
	}
	return Compare(actual, baseline, c.Threshold)
}

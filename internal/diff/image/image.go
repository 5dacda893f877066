package image

import (
	"errors"
	"fmt"
	"image"
)

var (
	ErrDimensionMismatch   = errors.New("image dimensions do not match")
	ErrThresholdOutOfRange = errors.New("threshold must be within [0, 1]")
	ErrBaselineUnreadable  = errors.New("baseline could not be read")
	ErrBaselineUndecodable = errors.New("baseline could not be decoded")
)

type DimensionMismatchError struct {
	Actual   image.Point
	Baseline image.Point
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("actual image is %dx%d but baseline is %dx%d", e.Actual.X, e.Actual.Y, e.Baseline.X, e.Baseline.Y)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

type DiffResult struct {
	// Image visualizes the comparison. It is never one of the inputs.
	Image           image.Image
	DifferingPixels int64
	TotalPixels     int64
	Regions         []Rectangle
}

// Percentage is the share of differing pixels in [0, 100]. Empty images never differ.
func (r *DiffResult) Percentage() float64 {
	if r.TotalPixels == 0 {
		return 0
	}
	return float64(r.DifferingPixels) / float64(r.TotalPixels) * 100
}

type Differ interface {
	Calculate(baseline image.Image, target image.Image) (*DiffResult, error)
}

// Compare reports how many pixels of actual differ from baseline under threshold.
func Compare(actual image.Image, baseline image.Image, threshold float64) (*DiffResult, error) {
	differ, err := NewPixelDiff(threshold)
	if err != nil {
		return nil, err
	}
	return differ.Calculate(baseline, actual)
}

func checkDimensions(baseline image.Image, target image.Image) error {
	b := baseline.Bounds().Size()
	t := target.Bounds().Size()
	if b != t {
		return &DimensionMismatchError{Actual: t, Baseline: b}
	}
	return nil
}

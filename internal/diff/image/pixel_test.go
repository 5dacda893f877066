package image

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func mustPixelDiff(t testing.TB, threshold float64) *PixelDiff {
	t.Helper()
	pd, err := NewPixelDiff(threshold)
	if err != nil {
		t.Fatal(err)
	}
	return pd
}

func TestPixelDiff_Calculate(t *testing.T) {
	pd := mustPixelDiff(t, 0.1)

	t.Run("NoDifference", func(t *testing.T) {
		img1 := createTestImage(100, 100, color.White)
		img2 := createTestImage(100, 100, color.White)

		result, err := pd.Calculate(img1, img2)
		if err != nil {
			t.Fatal(err)
		}

		if result.Percentage() != 0.0 {
			t.Errorf("Expected Percentage to be 0.0, got %f", result.Percentage())
		}
		if result.TotalPixels != 10000 {
			t.Errorf("Expected TotalPixels to be 10000, got %d", result.TotalPixels)
		}
		if len(result.Regions) != 0 {
			t.Errorf("Expected no regions, got %v", result.Regions)
		}
	})

	t.Run("CompleteDifference", func(t *testing.T) {
		img1 := createTestImage(100, 100, color.White)
		img2 := createTestImage(100, 100, color.Black)

		result, err := pd.Calculate(img1, img2)
		if err != nil {
			t.Fatal(err)
		}

		if result.Percentage() != 100.0 {
			t.Errorf("Expected Percentage to be 100.0, got %f", result.Percentage())
		}
		if result.DifferingPixels != 10000 {
			t.Errorf("Expected DifferingPixels to be 10000, got %d", result.DifferingPixels)
		}
	})

	t.Run("PartialDifference", func(t *testing.T) {
		img1 := createTestImage(100, 100, color.White)
		img2 := createTestImage(100, 100, color.White)

		for y := 0; y < 50; y++ {
			for x := 0; x < 100; x++ {
				img2.Set(x, y, color.Black)
			}
		}

		result, err := pd.Calculate(img1, img2)
		if err != nil {
			t.Fatal(err)
		}

		if result.Percentage() != 50.0 {
			t.Errorf("Expected Percentage to be 50.0, got %f", result.Percentage())
		}
		if diff := cmp.Diff([]Rectangle{{X: 0, Y: 0, Width: 100, Height: 50}}, result.Regions); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("SameImageInstance", func(t *testing.T) {
		img := createTestImage(100, 100, color.White)

		result, err := pd.Calculate(img, img)
		if err != nil {
			t.Fatal(err)
		}

		if result.Percentage() != 0.0 {
			t.Errorf("Expected Percentage to be 0.0 for same image instance, got %f", result.Percentage())
		}
		if result.Image == image.Image(img) {
			t.Error("Expected the diff image to be a new image")
		}
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		img1 := createTestImage(100, 100, color.White)
		img2 := createTestImage(100, 99, color.White)

		result, err := pd.Calculate(img1, img2)
		if !errors.Is(err, ErrDimensionMismatch) {
			t.Fatalf("Expected ErrDimensionMismatch, got %v", err)
		}
		if result != nil {
			t.Errorf("Expected no result, got %+v", result)
		}

		var mismatch *DimensionMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("Expected *DimensionMismatchError, got %T", err)
		}
		if diff := cmp.Diff("actual image is 100x99 but baseline is 100x100", mismatch.Error()); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("EmptyImage", func(t *testing.T) {
		img1 := createTestImage(0, 0, color.White)
		img2 := createTestImage(0, 0, color.Black)

		result, err := pd.Calculate(img1, img2)
		if err != nil {
			t.Fatal(err)
		}

		if result.Percentage() != 0.0 || result.TotalPixels != 0 {
			t.Errorf("Expected an empty result, got %+v", result)
		}
	})

	t.Run("NonRGBAInput", func(t *testing.T) {
		img1 := image.NewNRGBA(image.Rect(10, 10, 20, 20))
		draw.Draw(img1, img1.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
		img2 := createTestImage(10, 10, color.White)
		img2.Set(5, 5, color.Black)

		result, err := pd.Calculate(img1, img2)
		if err != nil {
			t.Fatal(err)
		}

		if result.DifferingPixels != 1 {
			t.Errorf("Expected DifferingPixels to be 1, got %d", result.DifferingPixels)
		}
	})
}

func TestPixelDiff_Threshold(t *testing.T) {
	t.Run("OutOfRange", func(t *testing.T) {
		for _, threshold := range []float64{-0.1, 1.1, math.NaN()} {
			if _, err := NewPixelDiff(threshold); !errors.Is(err, ErrThresholdOutOfRange) {
				t.Errorf("threshold %v: expected ErrThresholdOutOfRange, got %v", threshold, err)
			}
		}
	})

	t.Run("SubtleChange", func(t *testing.T) {
		img1 := createTestImage(10, 10, color.White)
		img2 := createTestImage(10, 10, color.RGBA{R: 250, G: 250, B: 250, A: 255})

		strict, err := Compare(img2, img1, 0.01)
		if err != nil {
			t.Fatal(err)
		}
		tolerant, err := Compare(img2, img1, 0.1)
		if err != nil {
			t.Fatal(err)
		}

		if strict.Percentage() != 100.0 {
			t.Errorf("Expected a strict threshold to flag every pixel, got %f", strict.Percentage())
		}
		if tolerant.Percentage() != 0.0 {
			t.Errorf("Expected a tolerant threshold to flag nothing, got %f", tolerant.Percentage())
		}
	})

	t.Run("ZeroCountsAnyDifference", func(t *testing.T) {
		img1 := createTestImage(4, 4, color.RGBA{R: 10, G: 10, B: 10, A: 255})
		img2 := createTestImage(4, 4, color.RGBA{R: 10, G: 10, B: 11, A: 255})

		result, err := Compare(img2, img1, 0)
		if err != nil {
			t.Fatal(err)
		}
		if result.DifferingPixels != 16 {
			t.Errorf("Expected DifferingPixels to be 16, got %d", result.DifferingPixels)
		}
	})

	t.Run("Monotonic", func(t *testing.T) {
		img1 := createTestImage(64, 64, color.White)
		img2 := createTestImage(64, 64, color.White)
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				v := uint8(x * 4)
				img2.Set(x, y, color.RGBA{R: v, G: v, B: uint8(y * 4), A: 255})
			}
		}

		previous := math.Inf(1)
		for i := 0; i <= 20; i++ {
			result, err := Compare(img2, img1, float64(i)/20)
			if err != nil {
				t.Fatal(err)
			}
			if result.Percentage() > previous {
				t.Errorf("threshold %v: percentage rose from %f to %f", float64(i)/20, previous, result.Percentage())
			}
			previous = result.Percentage()
		}
	})

	t.Run("Symmetric", func(t *testing.T) {
		img1 := createTestImage(32, 32, color.RGBA{R: 200, G: 30, B: 90, A: 255})
		img2 := createTestImage(32, 32, color.NRGBA{R: 180, G: 60, B: 70, A: 128})
		for x := 0; x < 32; x++ {
			img2.Set(x, x, color.White)
		}

		for _, threshold := range []float64{0, 0.05, 0.1, 0.3, 0.7} {
			forward, err := Compare(img1, img2, threshold)
			if err != nil {
				t.Fatal(err)
			}
			backward, err := Compare(img2, img1, threshold)
			if err != nil {
				t.Fatal(err)
			}
			if forward.DifferingPixels != backward.DifferingPixels {
				t.Errorf("threshold %v: %d != %d", threshold, forward.DifferingPixels, backward.DifferingPixels)
			}
		}
	})
}

func TestPixelDiff_DoesNotMutateInputs(t *testing.T) {
	img1 := createTestImage(20, 20, color.White)
	img2 := createTestImage(20, 20, color.Black)
	before1 := append([]uint8(nil), img1.Pix...)
	before2 := append([]uint8(nil), img2.Pix...)

	if _, err := Compare(img1, img2, 0.1); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(before1, img1.Pix); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before2, img2.Pix); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func BenchmarkPixelDiff_Calculate_Small(b *testing.B) {
	pd := mustPixelDiff(b, 0.1)
	img1 := createTestImage(1920, 1080, color.White)
	img2 := createTestImage(1920, 1080, color.White)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pd.Calculate(img1, img2)
	}
}

func BenchmarkPixelDiff_Calculate_Large(b *testing.B) {
	pd := mustPixelDiff(b, 0.1)
	img1 := createTestImage(3840, 2160, color.White)
	img2 := createTestImage(3840, 2160, color.White)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = pd.Calculate(img1, img2)
	}
}

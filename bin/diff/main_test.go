package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	diffimage "storefront-e2e/internal/diff/image"
	"storefront-e2e/internal/storage"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func encode(t *testing.T, width int, height int, fill func(x, y int) color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill(x, y))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	white := func(x, y int) color.Color { return color.White }
	halfBlack := func(x, y int) color.Color {
		if y < 10 {
			return color.Black
		}
		return color.White
	}

	ctx := context.Background()
	s := storage.NewMemoryStorage()
	if _, err := s.Put(ctx, "header.png", encode(t, 20, 20, white)); err != nil {
		t.Fatal(err)
	}

	for _, format := range []string{"pixel", "rectangle"} {
		result, err := calculate(ctx, s, format, 0.1, encode(t, 20, 20, halfBlack), "header.png")
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if diff := cmp.Diff(50.0, result.Percentage()); diff != "" {
			t.Errorf("%s (-want +got):\n%s", format, diff)
		}
		if diff := cmp.Diff(int64(200), result.DifferingPixels); diff != "" {
			t.Errorf("%s (-want +got):\n%s", format, diff)
		}
		if len(result.Regions) == 0 {
			t.Errorf("%s: expected changed regions", format)
		}
	}

	for _, format := range []string{"pixel", "rectangle"} {
		_, err := calculate(ctx, s, format, 0.1, encode(t, 20, 20, white), "missing.png")
		if !errors.Is(err, diffimage.ErrBaselineUnreadable) || !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("%s: expected unreadable baseline, got %v", format, err)
		}
	}

	if _, err := calculate(ctx, s, "line", 0.1, encode(t, 20, 20, white), "header.png"); err == nil {
		t.Error("expected unknown format to fail")
	}
	if _, err := calculate(ctx, s, "pixel", 0.1, []byte("not an image"), "header.png"); err == nil {
		t.Error("expected undecodable actual image to fail")
	}
}

func TestDiffKey(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	a := diffKey("shots/header.png", "header.png", now)
	b := diffKey("shots/footer.png", "header.png", now)

	if !strings.HasPrefix(a, "diff/") || !strings.HasSuffix(a, "/20250304050607.png") {
		t.Errorf("unexpected key: %s", a)
	}
	if a == b {
		t.Error("expected different inputs to give different keys")
	}
}

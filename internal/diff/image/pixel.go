package image

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
)

// maxYIQDelta is the largest possible squared YIQ distance between two colors.
const maxYIQDelta = 35215

// PixelDiff compares pixels by their perceptual YIQ distance after blending
// them over a white background.
type PixelDiff struct {
	threshold float64
}

func NewPixelDiff(threshold float64) (*PixelDiff, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold %v: %w", threshold, ErrThresholdOutOfRange)
	}
	return &PixelDiff{
		threshold,
	}, nil
}

func (p *PixelDiff) Calculate(baseline image.Image, target image.Image) (*DiffResult, error) {
	m, err := p.compare(baseline, target)
	if err != nil {
		return nil, err
	}

	return &DiffResult{
		Image:           m.image,
		DifferingPixels: m.count,
		TotalPixels:     int64(m.width) * int64(m.height),
		Regions:         m.regions(),
	}, nil
}

// compare fills a mask of differing pixels and draws the diff image: changed
// pixels red, unchanged ones as faded grayscale.
func (p *PixelDiff) compare(baseline image.Image, target image.Image) (*mask, error) {
	if err := checkDimensions(baseline, target); err != nil {
		return nil, err
	}

	size := target.Bounds().Size()
	m := newMask(size.X, size.Y)
	if size.X == 0 || size.Y == 0 {
		return m, nil
	}

	baselineRGBA := toRGBA(baseline)
	targetRGBA := toRGBA(target)
	maxDelta := maxYIQDelta * p.threshold * p.threshold

	shardRows(size.Y, func(startY int, endY int) {
		var local int64
		for y := startY; y < endY; y++ {
			baselineRowStart := baselineRGBA.PixOffset(baselineRGBA.Rect.Min.X, baselineRGBA.Rect.Min.Y+y)
			targetRowStart := targetRGBA.PixOffset(targetRGBA.Rect.Min.X, targetRGBA.Rect.Min.Y+y)
			diffRowStart := m.image.PixOffset(0, y)

			for x := 0; x < size.X; x++ {
				bp := baselineRGBA.Pix[baselineRowStart+x*4 : baselineRowStart+x*4+4 : baselineRowStart+x*4+4]
				tp := targetRGBA.Pix[targetRowStart+x*4 : targetRowStart+x*4+4 : targetRowStart+x*4+4]
				dp := m.image.Pix[diffRowStart+x*4 : diffRowStart+x*4+4 : diffRowStart+x*4+4]

				if p.differs(bp, tp, maxDelta) {
					m.bits[y*size.X+x] = true
					local++
					dp[0], dp[1], dp[2], dp[3] = 255, 0, 0, 255
				} else {
					g := grayPixel(tp)
					dp[0], dp[1], dp[2], dp[3] = g, g, g, 255
				}
			}
		}
		atomic.AddInt64(&m.count, local)
	})

	return m, nil
}

func (p *PixelDiff) differs(a []uint8, b []uint8, maxDelta float64) bool {
	if a[0] == b[0] && a[1] == b[1] && a[2] == b[2] && a[3] == b[3] {
		return false
	}
	if p.threshold == 0 {
		return true
	}
	return colorDelta(a, b) > maxDelta
}

// colorDelta is the squared YIQ distance of two premultiplied RGBA pixels
// blended over white. It is symmetric in its arguments.
func colorDelta(a []uint8, b []uint8) float64 {
	r1, g1, b1 := blendOverWhite(a)
	r2, g2, b2 := blendOverWhite(b)

	y := rgb2y(r1, g1, b1) - rgb2y(r2, g2, b2)
	i := rgb2i(r1, g1, b1) - rgb2i(r2, g2, b2)
	q := rgb2q(r1, g1, b1) - rgb2q(r2, g2, b2)

	return 0.5053*y*y + 0.299*i*i + 0.1957*q*q
}

func blendOverWhite(p []uint8) (float64, float64, float64) {
	white := 255 - float64(p[3])
	return float64(p[0]) + white, float64(p[1]) + white, float64(p[2]) + white
}

func rgb2y(r float64, g float64, b float64) float64 {
	return r*0.29889531 + g*0.58662247 + b*0.11448223
}

func rgb2i(r float64, g float64, b float64) float64 {
	return r*0.59597799 - g*0.27417610 - b*0.32180189
}

func rgb2q(r float64, g float64, b float64) float64 {
	return r*0.21147017 - g*0.52261711 + b*0.31114694
}

func grayPixel(p []uint8) uint8 {
	r, g, b := blendOverWhite(p)
	return uint8(255 + (rgb2y(r, g, b)-255)*0.1)
}

// toRGBA returns img itself when it already is *image.RGBA, a converted copy
// otherwise.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// shardRows splits [0, height) across GOMAXPROCS goroutines and waits for all
// of them.
func shardRows(height int, fn func(startY int, endY int)) {
	// Use GOMAXPROCS instead of runtime.NumCPU() to consider cgroup.
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > height {
		numWorkers = height
	}
	rowsPerWorker := height / numWorkers

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		startY := i * rowsPerWorker
		endY := startY + rowsPerWorker
		if i == numWorkers-1 {
			endY = height
		}

		go func(startY int, endY int) {
			defer wg.Done()
			fn(startY, endY)
		}(startY, endY)
	}
	wg.Wait()
}

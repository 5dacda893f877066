package image

import (
	"image"
	"image/color"
	"image/draw"
)

// Regions closer than mergeDistance pixels are reported as one.
const mergeDistance = 10

type Rectangle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type mask struct {
	width  int
	height int
	bits   []bool
	count  int64
	image  *image.RGBA
}

func newMask(width int, height int) *mask {
	return &mask{
		width:  width,
		height: height,
		bits:   make([]bool, width*height),
		image:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// regions groups differing pixels into 8-connected components, drops
// components smaller than 3x3 and merges the remaining ones when they overlap
// or are close to each other.
func (m *mask) regions() []Rectangle {
	if m.count == 0 {
		return nil
	}

	visited := make([]bool, len(m.bits))
	var rectangles []Rectangle
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			i := y*m.width + x
			if m.bits[i] && !visited[i] {
				rect := m.boundingBox(visited, x, y)
				if rect.Width > 2 && rect.Height > 2 {
					rectangles = append(rectangles, rect)
				}
			}
		}
	}

	return mergeRectangles(rectangles)
}

func (m *mask) boundingBox(visited []bool, startX int, startY int) Rectangle {
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	queue := []image.Point{{X: startX, Y: startY}}
	visited[startY*m.width+startX] = true

	for len(queue) > 0 {
		point := queue[0]
		queue = queue[1:]

		minX = min(minX, point.X)
		maxX = max(maxX, point.X)
		minY = min(minY, point.Y)
		maxY = max(maxY, point.Y)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}

				nx := point.X + dx
				ny := point.Y + dy
				if nx < 0 || nx >= m.width || ny < 0 || ny >= m.height {
					continue
				}
				i := ny*m.width + nx
				if m.bits[i] && !visited[i] {
					visited[i] = true
					queue = append(queue, image.Point{X: nx, Y: ny})
				}
			}
		}
	}

	return Rectangle{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}
}

func mergeRectangles(rects []Rectangle) []Rectangle {
	if len(rects) <= 1 {
		return rects
	}

	merged := make([]Rectangle, 0, len(rects))
	used := make([]bool, len(rects))

	for i := 0; i < len(rects); i++ {
		if used[i] {
			continue
		}

		current := rects[i]
		mergedAny := true
		for mergedAny {
			mergedAny = false
			for j := i + 1; j < len(rects); j++ {
				if used[j] {
					continue
				}
				if current.overlaps(rects[j].expand(mergeDistance)) {
					current = current.union(rects[j])
					used[j] = true
					mergedAny = true
				}
			}
		}

		merged = append(merged, current)
	}

	return merged
}

func (r Rectangle) overlaps(o Rectangle) bool {
	return !(r.X+r.Width <= o.X || o.X+o.Width <= r.X ||
		r.Y+r.Height <= o.Y || o.Y+o.Height <= r.Y)
}

func (r Rectangle) expand(n int) Rectangle {
	return Rectangle{
		X:      r.X - n,
		Y:      r.Y - n,
		Width:  r.Width + 2*n,
		Height: r.Height + 2*n,
	}
}

func (r Rectangle) union(o Rectangle) Rectangle {
	minX := min(r.X, o.X)
	minY := min(r.Y, o.Y)
	maxX := max(r.X+r.Width, o.X+o.Width)
	maxY := max(r.Y+r.Height, o.Y+o.Height)

	return Rectangle{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// RectangleDiff counts pixels like PixelDiff but draws the actual image with
// the changed regions outlined in red.
type RectangleDiff struct {
	pixel *PixelDiff
}

func NewRectangleDiff(threshold float64) (*RectangleDiff, error) {
	pixel, err := NewPixelDiff(threshold)
	if err != nil {
		return nil, err
	}
	return &RectangleDiff{pixel: pixel}, nil
}

func (r *RectangleDiff) Calculate(baseline image.Image, target image.Image) (*DiffResult, error) {
	m, err := r.pixel.compare(baseline, target)
	if err != nil {
		return nil, err
	}
	regions := m.regions()

	bounds := target.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), target, bounds.Min, draw.Src)

	outline := color.RGBA{R: 255, A: 255}
	for _, rect := range regions {
		for thickness := 0; thickness < 3; thickness++ {
			for x := rect.X - thickness; x < rect.X+rect.Width+thickness; x++ {
				result.Set(x, rect.Y-thickness, outline)
				result.Set(x, rect.Y+rect.Height+thickness, outline)
			}
			for y := rect.Y - thickness; y < rect.Y+rect.Height+thickness; y++ {
				result.Set(rect.X-thickness, y, outline)
				result.Set(rect.X+rect.Width+thickness, y, outline)
			}
		}
	}

	return &DiffResult{
		Image:           result,
		DifferingPixels: m.count,
		TotalPixels:     int64(m.width) * int64(m.height),
		Regions:         regions,
	}, nil
}

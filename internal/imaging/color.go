package imaging

import (
	"fmt"
	"image"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// BGR is a mean color sample in blue, green, red channel order.
//
// Channels are kept as floating point values in the 0-255 range because
// they usually come out of an average over many pixels. The channel order
// matches the reference color tables used by the color classifiers, which
// were authored as BGR triples.
type BGR struct {
	B float64 `json:"b"`
	G float64 `json:"g"`
	R float64 `json:"r"`
}

// NewBGR builds a sample from 8-bit channel values.
func NewBGR(b, g, r uint8) BGR {
	return BGR{B: float64(b), G: float64(g), R: float64(r)}
}

// Channels returns the sample as a [B, G, R] array.
func (c BGR) Channels() [3]float64 {
	return [3]float64{c.B, c.G, c.R}
}

// colorful converts the sample to a go-colorful color, clamped to the RGB cube.
func (c BGR) colorful() colorful.Color {
	return colorful.Color{R: c.R / 255.0, G: c.G / 255.0, B: c.B / 255.0}.Clamped()
}

// Hex returns the sample as "#RRGGBB", rounding each channel.
func (c BGR) Hex() string {
	r, g, b := c.colorful().RGB255()
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// HSV converts the sample to HSV using the 8-bit OpenCV scale.
//
// Returns:
//   - h: hue in [0, 180), i.e. degrees halved
//   - s: saturation in [0, 255]
//   - v: value in [0, 255]
//
// Each component is rounded to the nearest integer so that a sample converts
// exactly like an 8-bit pixel would.
func (c BGR) HSV() (h, s, v float64) {
	hd, sf, vf := c.colorful().Hsv()
	h = math.Round(hd / 2)
	if h >= 180 {
		h -= 180
	}
	return h, math.Round(sf * 255), math.Round(vf * 255)
}

// MeanColor averages the pixels of img that lie inside the closed polygon.
//
// The polygon is filled with a scanline pass and its boundary pixels are
// included, which matches drawing the contour filled into a mask. Points
// outside the image bounds are ignored.
//
// Returns the zero BGR and false when no pixel of the image is covered.
func MeanColor(img image.Image, polygon []image.Point) (BGR, bool) {
	bounds := img.Bounds()
	var sumB, sumG, sumR float64
	count := 0

	seen := make(map[image.Point]struct{})
	add := func(x, y int) {
		p := image.Point{X: x, Y: y}
		if !p.In(bounds) {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		r, g, b, _ := img.At(x, y).RGBA()
		sumR += float64(r >> 8)
		sumG += float64(g >> 8)
		sumB += float64(b >> 8)
		count++
	}

	FillPolygon(polygon, add)
	for _, p := range polygon {
		add(p.X, p.Y)
	}

	if count == 0 {
		return BGR{}, false
	}
	n := float64(count)
	return BGR{B: sumB / n, G: sumG / n, R: sumR / n}, true
}

// FillPolygon calls visit for every integer point inside the closed polygon.
//
// # Algorithm
//
// For each row between the polygon's vertical extents, the crossings of the
// row with every edge are collected (half-open rule: an edge covers rows
// y0 <= y < y1), sorted, and the spans between consecutive pairs are
// visited. Boundary points on right or bottom edges may be missed; callers
// that need them add the boundary separately.
func FillPolygon(polygon []image.Point, visit func(x, y int)) {
	n := len(polygon)
	if n < 3 {
		return
	}

	minY, maxY := polygon[0].Y, polygon[0].Y
	for _, p := range polygon[1:] {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	xs := make([]float64, 0, 8)
	for y := minY; y <= maxY; y++ {
		xs = xs[:0]
		fy := float64(y)
		for i := 0; i < n; i++ {
			a := polygon[i]
			b := polygon[(i+1)%n]
			if a.Y == b.Y {
				continue
			}
			if a.Y > b.Y {
				a, b = b, a
			}
			if y < a.Y || y >= b.Y {
				continue
			}
			t := (fy - float64(a.Y)) / float64(b.Y-a.Y)
			xs = append(xs, float64(a.X)+t*float64(b.X-a.X))
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Ceil(xs[i]))
			x1 := int(math.Floor(xs[i+1]))
			for x := x0; x <= x1; x++ {
				visit(x, y)
			}
		}
	}
}

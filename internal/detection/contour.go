package detection

import (
	"image"
	"math"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// Both corners are inclusive: a contour whose points span x = 10..19 has
// X1 = 10, X2 = 19 and a Width of 10.
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge (inclusive)
	Y2 int `json:"y2"` // Bottom edge (inclusive)
}

// Width returns the horizontal extent in pixels.
func (b Bounds) Width() int { return b.X2 - b.X1 + 1 }

// Height returns the vertical extent in pixels.
func (b Bounds) Height() int { return b.Y2 - b.Y1 + 1 }

// AspectRatio returns Width / Height, or 0 for an empty box.
func (b Bounds) AspectRatio() float64 {
	if b.Height() <= 0 {
		return 0
	}
	return float64(b.Width()) / float64(b.Height())
}

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is an ordered closed boundary. The last point connects back to
// the first.
type Contour []Point

// ImagePoints converts the contour to image.Point values.
func (c Contour) ImagePoints() []image.Point {
	pts := make([]image.Point, len(c))
	for i, p := range c {
		pts[i] = image.Point{X: p.X, Y: p.Y}
	}
	return pts
}

// Translate returns a copy of the contour shifted by (dx, dy).
func (c Contour) Translate(dx, dy int) Contour {
	out := make(Contour, len(c))
	for i, p := range c {
		out[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// signedArea is the shoelace sum; its sign depends on orientation.
func (c Contour) signedArea() float64 {
	n := len(c)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a := c[i]
		b := c[(i+1)%n]
		sum += float64(a.X*b.Y - b.X*a.Y)
	}
	return sum / 2
}

// Area returns the enclosed polygon area in square pixels.
//
// The polygon runs through the boundary pixel centers, so a traced 10x10
// square has an area of 81. Contours with fewer than 3 points have zero area.
func (c Contour) Area() float64 {
	return math.Abs(c.signedArea())
}

// Perimeter returns the closed arc length.
func (c Contour) Perimeter() float64 {
	n := len(c)
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += distance(c[i], c[(i+1)%n])
	}
	return sum
}

// BoundingRect returns the inclusive bounding box of the contour points.
func (c Contour) BoundingRect() Bounds {
	if len(c) == 0 {
		return Bounds{}
	}
	b := Bounds{X1: c[0].X, Y1: c[0].Y, X2: c[0].X, Y2: c[0].Y}
	for _, p := range c[1:] {
		if p.X < b.X1 {
			b.X1 = p.X
		}
		if p.X > b.X2 {
			b.X2 = p.X
		}
		if p.Y < b.Y1 {
			b.Y1 = p.Y
		}
		if p.Y > b.Y2 {
			b.Y2 = p.Y
		}
	}
	return b
}

// Centroid returns the center of mass of the enclosed polygon from its
// first-order moments (m10/m00, m01/m00).
//
// ok is false when the polygon has no area; x and y are then 0.
func (c Contour) Centroid() (x, y float64, ok bool) {
	a := c.signedArea()
	if a == 0 {
		return 0, 0, false
	}
	n := len(c)
	var cx, cy float64
	for i := 0; i < n; i++ {
		p := c[i]
		q := c[(i+1)%n]
		cross := float64(p.X*q.Y - q.X*p.Y)
		cx += float64(p.X+q.X) * cross
		cy += float64(p.Y+q.Y) * cross
	}
	return cx / (6 * a), cy / (6 * a), true
}

// Center returns the centroid truncated to integer pixels, or (0,0) for a
// contour without area.
func (c Contour) Center() Point {
	x, y, _ := c.Centroid()
	return Point{X: int(x), Y: int(y)}
}

// Approximate reduces the closed contour to a polygon whose points are all
// within epsilon of the original boundary (Douglas-Peucker).
//
// # Algorithm
//
//  1. Anchors: starting from the first point, the search moves three times
//     to the point farthest from the current one. The last pair is two
//     far-apart boundary points, whatever point tracing started at.
//  2. The contour is split at the two anchors and each half is simplified
//     independently.
//  3. A final pass drops any vertex that lies between its neighbours and
//     within epsilon/sqrt(2) of the line joining them, which removes an
//     anchor that landed on a straight edge or a raster jag.
//
// The result starts at the first anchor. A contour whose points all lie
// within epsilon of the first anchor collapses to that single point.
func (c Contour) Approximate(epsilon float64) Contour {
	n := len(c)
	if n < 3 {
		out := make(Contour, n)
		copy(out, c)
		return out
	}

	start, far := 0, 0
	maxDist := 0.0
	for round := 0; round < 3; round++ {
		start = far
		far, maxDist = c.farthestFrom(start)
	}
	if maxDist <= epsilon {
		return Contour{c[start]}
	}

	ring := make(Contour, 0, n+1)
	ring = append(ring, c[start:]...)
	ring = append(ring, c[:start]...)
	mid := (far - start + n) % n

	first := simplify(ring[:mid+1], epsilon)
	second := simplify(append(ring[mid:], ring[0]), epsilon)

	out := make(Contour, 0, len(first)+len(second))
	out = append(out, first...)
	if len(second) > 2 {
		out = append(out, second[1:len(second)-1]...)
	}
	return dropCollinear(out, epsilon)
}

// farthestFrom returns the index of the point farthest from c[from] and
// its distance.
func (c Contour) farthestFrom(from int) (int, float64) {
	idx, maxDist := from, 0.0
	for i, p := range c {
		if d := distance(c[from], p); d > maxDist {
			maxDist = d
			idx = i
		}
	}
	return idx, maxDist
}

// dropCollinear removes polygon vertices that sit on the segment between
// their neighbours, within epsilon/sqrt(2). At least three points are kept.
func dropCollinear(pts Contour, epsilon float64) Contour {
	n := len(pts)
	if n <= 3 {
		return pts
	}

	limit := 0.5 * epsilon * epsilon
	out := make(Contour, 0, n)
	removed := 0
	prev := pts[n-1]
	for i, p := range pts {
		next := pts[(i+1)%n]
		dx := float64(next.X - prev.X)
		dy := float64(next.Y - prev.Y)
		cross := float64(p.X-prev.X)*dy - float64(p.Y-prev.Y)*dx
		inner := (p.X-prev.X)*(next.X-p.X) + (p.Y-prev.Y)*(next.Y-p.Y)
		if n-removed > 3 && inner >= 0 && cross*cross <= limit*(dx*dx+dy*dy) {
			removed++
			continue
		}
		out = append(out, p)
		prev = p
	}
	return out
}

// simplify runs Douglas-Peucker on an open polyline, keeping both ends.
func simplify(pts Contour, epsilon float64) Contour {
	n := len(pts)
	if n <= 2 {
		out := make(Contour, n)
		copy(out, pts)
		return out
	}

	keep := make([]bool, n)
	keep[0], keep[n-1] = true, true

	type span struct{ lo, hi int }
	stack := []span{{0, n - 1}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx := -1
		maxDist := epsilon
		for i := s.lo + 1; i < s.hi; i++ {
			if d := segmentDistance(pts[i], pts[s.lo], pts[s.hi]); d > maxDist {
				maxDist = d
				idx = i
			}
		}
		if idx >= 0 {
			keep[idx] = true
			stack = append(stack, span{s.lo, idx}, span{idx, s.hi})
		}
	}

	out := make(Contour, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// segmentDistance is the distance from p to the line through a and b.
func segmentDistance(p, a, b Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	length := math.Hypot(dx, dy)
	if length == 0 {
		return distance(p, a)
	}
	return math.Abs(dy*float64(p.X-a.X)-dx*float64(p.Y-a.Y)) / length
}

func distance(a, b Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

package detection

import (
	"math"
	"testing"
)

// walkPolygon returns the integer points along the closed polygon through
// the given corners, without repeating a corner.
func walkPolygon(corners ...Point) Contour {
	var c Contour
	for i := range corners {
		a := corners[i]
		b := corners[(i+1)%len(corners)]
		steps := max(abs(b.X-a.X), abs(b.Y-a.Y))
		for s := 0; s < steps; s++ {
			t := float64(s) / float64(steps)
			c = append(c, Point{
				X: a.X + int(math.Round(t*float64(b.X-a.X))),
				Y: a.Y + int(math.Round(t*float64(b.Y-a.Y))),
			})
		}
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestContour_Geometry(t *testing.T) {
	c := Contour{{0, 0}, {4, 0}, {4, 2}, {0, 2}}

	if got := c.Area(); got != 8 {
		t.Errorf("Area() = %v, want 8", got)
	}
	if got := c.Perimeter(); got != 12 {
		t.Errorf("Perimeter() = %v, want 12", got)
	}

	b := c.BoundingRect()
	if b.Width() != 5 || b.Height() != 3 {
		t.Errorf("BoundingRect() = %dx%d, want 5x3", b.Width(), b.Height())
	}

	x, y, ok := c.Centroid()
	if !ok || x != 2 || y != 1 {
		t.Errorf("Centroid() = (%v, %v, %v), want (2, 1, true)", x, y, ok)
	}
	if got := c.Center(); got != (Point{2, 1}) {
		t.Errorf("Center() = %v, want {2 1}", got)
	}
}

func TestContour_AreaIgnoresOrientation(t *testing.T) {
	cw := Contour{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	ccw := Contour{{0, 0}, {0, 4}, {4, 4}, {4, 0}}
	if cw.Area() != ccw.Area() {
		t.Errorf("Area() differs by orientation: %v vs %v", cw.Area(), ccw.Area())
	}

	x1, y1, _ := cw.Centroid()
	x2, y2, _ := ccw.Centroid()
	if x1 != x2 || y1 != y2 {
		t.Errorf("Centroid() differs by orientation: (%v,%v) vs (%v,%v)", x1, y1, x2, y2)
	}
}

func TestContour_Degenerate(t *testing.T) {
	tests := []struct {
		name    string
		contour Contour
	}{
		{"empty", nil},
		{"single point", Contour{{3, 3}}},
		{"two points", Contour{{0, 0}, {5, 0}}},
		{"collinear", Contour{{0, 0}, {1, 0}, {2, 0}, {3, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.contour.Area(); got != 0 {
				t.Errorf("Area() = %v, want 0", got)
			}
			x, y, ok := tt.contour.Centroid()
			if ok || x != 0 || y != 0 {
				t.Errorf("Centroid() = (%v, %v, %v), want (0, 0, false)", x, y, ok)
			}
		})
	}
}

func TestContour_Translate(t *testing.T) {
	c := Contour{{1, 2}, {3, 4}}
	moved := c.Translate(10, 20)

	if moved[0] != (Point{11, 22}) || moved[1] != (Point{13, 24}) {
		t.Errorf("Translate() = %v", moved)
	}
	if c[0] != (Point{1, 2}) {
		t.Error("Translate() modified the receiver")
	}
}

func TestContour_Approximate(t *testing.T) {
	tests := []struct {
		name    string
		corners []Point
	}{
		{"triangle", []Point{{0, 0}, {40, 0}, {20, 30}}},
		{"square", []Point{{10, 10}, {49, 10}, {49, 49}, {10, 49}}},
		{"rectangle", []Point{{0, 0}, {60, 0}, {60, 20}, {0, 20}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := walkPolygon(tt.corners...)
			approx := c.Approximate(0.01 * c.Perimeter())
			if len(approx) != len(tt.corners) {
				t.Errorf("Approximate() has %d vertices, want %d: %v", len(approx), len(tt.corners), approx)
			}
			for _, p := range approx {
				if !containsPoint(tt.corners, p) {
					t.Errorf("Approximate() vertex %v is not a corner", p)
				}
			}
		})
	}
}

func containsPoint(pts []Point, p Point) bool {
	for _, q := range pts {
		if q == p {
			return true
		}
	}
	return false
}

// regularPolygon returns the rounded corners of a regular polygon centered
// at (cx, cy), with the first corner at angle rotation (radians).
func regularPolygon(sides int, cx, cy, radius, rotation float64) []Point {
	pts := make([]Point, sides)
	for i := range pts {
		a := rotation + 2*math.Pi*float64(i)/float64(sides)
		pts[i] = Point{
			X: int(math.Round(cx + radius*math.Cos(a))),
			Y: int(math.Round(cy + radius*math.Sin(a))),
		}
	}
	return pts
}

func TestContour_ApproximateAnyStart(t *testing.T) {
	tests := []struct {
		name    string
		corners []Point
	}{
		{"flat-top hexagon", regularPolygon(6, 100, 100, 60, 0)},
		{"small hexagon", regularPolygon(6, 50, 50, 40, 0)},
		{"pentagon", regularPolygon(5, 100, 100, 60, -math.Pi/2)},
		{"triangle", regularPolygon(3, 100, 100, 60, -math.Pi/2)},
		{"square", []Point{{10, 10}, {89, 10}, {89, 89}, {10, 89}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := walkPolygon(tt.corners...)
			for _, shift := range []int{0, 1, 7, len(c) / 5, len(c) / 3, len(c) / 2, len(c) - 3} {
				rotated := append(append(Contour{}, c[shift:]...), c[:shift]...)
				approx := rotated.Approximate(0.01 * rotated.Perimeter())
				if len(approx) != len(tt.corners) {
					t.Errorf("start %d: Approximate() has %d vertices, want %d: %v",
						shift, len(approx), len(tt.corners), approx)
				}
			}
		})
	}
}

func TestContour_ApproximateDropsJag(t *testing.T) {
	// A square whose trace starts on a one-pixel step in the middle of the
	// top edge.
	c := walkPolygon(Point{50, 10}, Point{89, 10}, Point{89, 89}, Point{10, 89}, Point{10, 11}, Point{50, 11})
	approx := c.Approximate(0.01 * c.Perimeter())
	if len(approx) != 4 {
		t.Errorf("Approximate() has %d vertices, want 4: %v", len(approx), approx)
	}
}

func TestContour_ApproximateShort(t *testing.T) {
	c := Contour{{1, 1}, {2, 2}}
	approx := c.Approximate(1)
	if len(approx) != 2 {
		t.Errorf("Approximate() of 2 points has %d points", len(approx))
	}

	dot := Contour{{5, 5}, {5, 5}, {5, 5}}
	if got := dot.Approximate(1); len(got) != 1 {
		t.Errorf("Approximate() of a repeated point has %d points, want 1", len(got))
	}
}

func TestBounds_AspectRatio(t *testing.T) {
	tests := []struct {
		name   string
		bounds Bounds
		want   float64
	}{
		{"square", Bounds{0, 0, 9, 9}, 1},
		{"wide", Bounds{0, 0, 19, 9}, 2},
		{"tall", Bounds{0, 0, 9, 19}, 0.5},
		{"empty", Bounds{0, 5, 0, 3}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bounds.AspectRatio(); got != tt.want {
				t.Errorf("AspectRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

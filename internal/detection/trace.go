package detection

import (
	"image"

	"github.com/ironsheep/shapes-mcp/internal/imaging"
)

// Region is one connected component of a binary mask.
type Region struct {
	// Ink reports whether the region is made of Ink pixels.
	Ink bool

	// Pixels is the number of pixels in the region.
	Pixels int

	// Boundary is the traced outer boundary, starting at the region's
	// topmost, leftmost pixel and running clockwise.
	Boundary Contour
}

// neighbors lists the 8-neighborhood clockwise starting at west.
var neighbors = [8]Point{
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// neighborIndex maps an offset (dx+1) + 3*(dy+1) to its index in neighbors.
var neighborIndex = [9]int{1, 2, 3, 0, -1, 4, 7, 6, 5}

// FindContours traces the outer boundary of every connected region of the
// binary mask, in both polarities.
//
// Paper regions are 4-connected and Ink regions 8-connected, so that an
// ink ring always separates the paper it encloses from the paper outside.
// Nested regions therefore yield nested contours: a filled dark shape on a
// light page produces the page frame, the ink band along the shape's edge
// and the paper enclosed by that band.
//
// Regions are returned in raster order of their first pixel.
func FindContours(mask *image.Gray) []Region {
	width := mask.Bounds().Dx()
	height := mask.Bounds().Dy()
	if width == 0 || height == 0 {
		return nil
	}
	min := mask.Bounds().Min
	ink := func(x, y int) bool {
		return mask.GrayAt(x+min.X, y+min.Y).Y == imaging.Ink
	}

	labels := make([]int32, width*height)
	var regions []Region
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if labels[y*width+x] != 0 {
				continue
			}
			id := int32(len(regions) + 1)
			isInk := ink(x, y)
			size := labelRegion(labels, width, height, x, y, id, isInk, ink)
			boundary := traceBoundary(labels, width, height, id, x, y, 4*size+16)
			regions = append(regions, Region{Ink: isInk, Pixels: size, Boundary: boundary})
		}
	}
	return regions
}

// labelRegion flood fills the component containing (startX, startY) with id
// and returns its pixel count.
func labelRegion(labels []int32, width, height, startX, startY int, id int32, isInk bool, ink func(x, y int) bool) int {
	stack := []Point{{X: startX, Y: startY}}
	size := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		idx := p.Y*width + p.X
		if labels[idx] != 0 || ink(p.X, p.Y) != isInk {
			continue
		}

		labels[idx] = id
		size++

		for i, d := range neighbors {
			// Paper connects through edges only.
			if !isInk && i%2 == 1 {
				continue
			}
			stack = append(stack, Point{X: p.X + d.X, Y: p.Y + d.Y})
		}
	}
	return size
}

// traceBoundary follows the outer boundary of region id with Moore-neighbor
// tracing.
//
// # Algorithm
//
// The start pixel is the region's raster-first pixel, so its west neighbor is
// outside the region and serves as the initial backtrack. From each boundary
// pixel the 8-neighborhood is scanned clockwise from the backtrack; the first
// region pixel found is the next boundary pixel and the neighbor scanned just
// before it becomes the new backtrack. Tracing stops when the start pixel is
// reached again and the next move would repeat the first move, or after
// limit steps.
func traceBoundary(labels []int32, width, height int, id int32, startX, startY, limit int) Contour {
	inRegion := func(x, y int) bool {
		return x >= 0 && x < width && y >= 0 && y < height && labels[y*width+x] == id
	}

	start := Point{X: startX, Y: startY}
	contour := Contour{start}

	p := start
	back := 0
	var second Point
	moved := false

	for step := 0; step < limit; step++ {
		next, nextBack, ok := nextBoundaryPixel(inRegion, p, back)
		if !ok {
			// Isolated pixel.
			return contour
		}
		if moved && p == start && next == second {
			break
		}
		if !moved {
			second = next
			moved = true
		}
		contour = append(contour, next)
		p, back = next, nextBack
	}

	if len(contour) > 1 && contour[len(contour)-1] == start {
		contour = contour[:len(contour)-1]
	}
	return contour
}

// nextBoundaryPixel scans the neighbors of p clockwise, starting after the
// backtrack direction back. It returns the first region pixel and the
// direction of the new backtrack as seen from that pixel.
func nextBoundaryPixel(inRegion func(x, y int) bool, p Point, back int) (Point, int, bool) {
	for k := 1; k <= 8; k++ {
		i := (back + k) % 8
		d := neighbors[i]
		q := Point{X: p.X + d.X, Y: p.Y + d.Y}
		if !inRegion(q.X, q.Y) {
			continue
		}
		prev := neighbors[(back+k-1)%8]
		b := Point{X: p.X + prev.X, Y: p.Y + prev.Y}
		dx, dy := b.X-q.X, b.Y-q.Y
		return q, neighborIndex[(dx+1)+3*(dy+1)], true
	}
	return Point{}, 0, false
}

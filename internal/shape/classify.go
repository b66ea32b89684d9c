package shape

import "github.com/ironsheep/shapes-mcp/internal/detection"

// Aspect ratio limits for a four-sided polygon to count as a Square (inclusive).
const (
	MinSquareAspect = 0.95
	MaxSquareAspect = 1.05
)

// DefaultEpsilonFactor scales a contour's perimeter into the polygon
// approximation tolerance.
const DefaultEpsilonFactor = 0.01

// ClassifyVertices maps the vertex count of an approximated polygon to a
// pattern.
//
// Parameters:
//   - vertices: number of points in the approximated polygon
//   - aspect: bounding box width / height, used only for 4 vertices. A
//     non-positive aspect (zero height) yields Rectangle.
//
// Returns High confidence for 3 to 6 vertices and Medium for everything
// else, which is labeled Circle.
func ClassifyVertices(vertices int, aspect float64) (Pattern, Confidence) {
	switch vertices {
	case 3:
		return Triangle, High
	case 4:
		if aspect >= MinSquareAspect && aspect <= MaxSquareAspect {
			return Square, High
		}
		return Rectangle, High
	case 5:
		return Pentagon, High
	case 6:
		return Hexagon, High
	default:
		return Circle, Medium
	}
}

// Classify approximates the contour with a tolerance of
// epsilonFactor * perimeter and labels it by vertex count.
//
// Returns the pattern, its confidence and the number of approximated vertices.
func Classify(c detection.Contour, epsilonFactor float64) (Pattern, Confidence, int) {
	return ClassifyWith(detection.BackendGo, c, epsilonFactor)
}

// ClassifyWith is Classify using the polygon approximation of backend.
func ClassifyWith(backend detection.Backend, c detection.Contour, epsilonFactor float64) (Pattern, Confidence, int) {
	if epsilonFactor <= 0 {
		epsilonFactor = DefaultEpsilonFactor
	}
	approx := backend.Approximate(c, epsilonFactor*c.Perimeter())
	p, conf := ClassifyVertices(len(approx), approx.BoundingRect().AspectRatio())
	return p, conf, len(approx)
}

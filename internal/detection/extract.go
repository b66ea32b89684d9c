package detection

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/shapes-mcp/internal/imaging"
)

// Options configures contour extraction.
type Options struct {
	// Threshold controls grayscale smoothing and binarization.
	Threshold imaging.ThresholdOptions

	// Ratio sets the minimum contour area as imageArea / Ratio.
	// Zero or negative disables the area filter. Typical: 100.
	Ratio float64

	// MinCenterDistance drops a contour whose centroid lies within this
	// many pixels of an already kept contour. Zero disables de-duplication.
	MinCenterDistance float64

	// DropBackground removes the largest contour, which on a thresholded
	// frame is the page or scene boundary.
	DropBackground bool

	// Backend selects the contour tracer and polygon approximation.
	// Empty means BackendGo.
	Backend Backend
}

// Backend names an implementation of contour tracing and approximation.
type Backend string

// Available backends. BackendOpenCV needs a binary built with -tags gocv;
// without it the pure Go implementation is used instead.
const (
	BackendGo     Backend = "go"
	BackendOpenCV Backend = "opencv"
)

// ParseBackend maps a configuration value to a Backend. The empty string
// is BackendGo.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendGo:
		return BackendGo, nil
	case BackendOpenCV:
		return BackendOpenCV, nil
	default:
		return "", fmt.Errorf("unknown detection backend %q", s)
	}
}

// Approximate simplifies c with the backend's polygon approximation.
func (b Backend) Approximate(c Contour, epsilon float64) Contour {
	if b == BackendOpenCV {
		return approximateOpenCV(c, epsilon)
	}
	return c.Approximate(epsilon)
}

// findContours thresholds img and traces the boundary of every region.
// The returned contours have their origin at (0, 0).
func (b Backend) findContours(img image.Image, opts imaging.ThresholdOptions) []Contour {
	if b == BackendOpenCV {
		return findContoursOpenCV(img, opts)
	}
	mask := imaging.AdaptiveThreshold(img, opts)
	regions := FindContours(mask)
	contours := make([]Contour, len(regions))
	for i, r := range regions {
		contours[i] = r.Boundary
	}
	return contours
}

// DefaultOptions returns the extraction settings used for camera and
// folder frames.
func DefaultOptions() Options {
	return Options{
		Threshold:         imaging.DefaultThresholdOptions(),
		Ratio:             100,
		MinCenterDistance: 5,
		DropBackground:    true,
	}
}

// Candidate is a contour that survived filtering, with its measurements.
type Candidate struct {
	Contour  Contour    `json:"-"`
	Area     float64    `json:"area"`
	Center   Point      `json:"center"`
	Centroid [2]float64 `json:"-"`
	Bounds   Bounds     `json:"bounds"`
}

// Extract runs the full extraction pipeline on img and returns the shape
// candidates, largest first.
//
// # Algorithm
//
//  1. Adaptive threshold (grayscale, Gaussian blur, local Gaussian mean)
//  2. Contour tracing of every connected region of the mask, with the
//     tracer chosen by opts.Backend
//  3. Zero-area contours are discarded
//  4. Sort by area, descending
//  5. Optionally drop the largest contour (background)
//  6. Minimum area filter (FilterMinArea)
//  7. Center de-duplication (FilterCenterDistance)
//
// Contour coordinates are in the coordinate space of img, so an image whose
// bounds do not start at (0,0) yields correspondingly offset points.
func Extract(img image.Image, opts Options) []Candidate {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil
	}

	contours := opts.Backend.findContours(img, opts.Threshold)

	candidates := make([]Candidate, 0, len(contours))
	for _, c := range contours {
		if bounds.Min != (image.Point{}) {
			c = c.Translate(bounds.Min.X, bounds.Min.Y)
		}
		area := c.Area()
		if area == 0 {
			continue
		}
		cx, cy, _ := c.Centroid()
		candidates = append(candidates, Candidate{
			Contour:  c,
			Area:     area,
			Center:   Point{X: int(cx), Y: int(cy)},
			Centroid: [2]float64{cx, cy},
			Bounds:   c.BoundingRect(),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Area > candidates[j].Area
	})

	if opts.DropBackground && len(candidates) > 0 {
		candidates = candidates[1:]
	}

	imageArea := float64(bounds.Dx() * bounds.Dy())
	candidates = FilterMinArea(candidates, imageArea, opts.Ratio)
	return FilterCenterDistance(candidates, opts.MinCenterDistance)
}

// FilterMinArea keeps candidates with area >= imageArea / ratio.
// A ratio of zero or less keeps everything.
func FilterMinArea(candidates []Candidate, imageArea, ratio float64) []Candidate {
	if ratio <= 0 {
		return candidates
	}
	minArea := imageArea / ratio
	kept := candidates[:0:0]
	for _, c := range candidates {
		if c.Area >= minArea {
			kept = append(kept, c)
		}
	}
	return kept
}

// FilterCenterDistance drops every candidate whose centroid lies within
// minDistance (Euclidean, inclusive) of a candidate kept before it. Input order decides
// which of two close candidates survives, so callers pass candidates sorted
// by area to keep the larger one.
func FilterCenterDistance(candidates []Candidate, minDistance float64) []Candidate {
	if minDistance <= 0 {
		return candidates
	}
	kept := candidates[:0:0]
	for _, c := range candidates {
		duplicate := false
		for _, k := range kept {
			dx := c.Centroid[0] - k.Centroid[0]
			dy := c.Centroid[1] - k.Centroid[1]
			if math.Hypot(dx, dy) <= minDistance {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, c)
		}
	}
	return kept
}

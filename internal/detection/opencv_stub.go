//go:build !gocv

package detection

import (
	"image"

	"github.com/ironsheep/shapes-mcp/internal/imaging"
)

// OpenCVAvailable reports whether BackendOpenCV is compiled in.
// Build with -tags gocv to enable it.
const OpenCVAvailable = false

// findContoursOpenCV falls back to the Go tracer.
func findContoursOpenCV(img image.Image, opts imaging.ThresholdOptions) []Contour {
	return BackendGo.findContours(img, opts)
}

// approximateOpenCV falls back to Contour.Approximate.
func approximateOpenCV(c Contour, epsilon float64) Contour {
	return c.Approximate(epsilon)
}

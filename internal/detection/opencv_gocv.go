//go:build gocv

package detection

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/shapes-mcp/internal/imaging"
)

// OpenCVAvailable reports whether BackendOpenCV is compiled in.
const OpenCVAvailable = true

// findContoursOpenCV mirrors imaging.AdaptiveThreshold and FindContours
// with their OpenCV counterparts: BGR to gray, Gaussian blur, Gaussian
// adaptive threshold, then every contour of the mask (RETR_TREE,
// CHAIN_APPROX_SIMPLE).
func findContoursOpenCV(img image.Image, opts imaging.ThresholdOptions) []Contour {
	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	smoothed := gocv.NewMat()
	defer smoothed.Close()
	if opts.BlurRadius > 0 {
		k := 2*int(opts.BlurRadius+0.5) + 1
		gocv.GaussianBlur(gray, &smoothed, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	} else {
		gray.CopyTo(&smoothed)
	}

	block := opts.BlockSize
	if block < 3 {
		block = 3
	}
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.AdaptiveThreshold(smoothed, &mask, float32(imaging.Paper), gocv.AdaptiveThresholdGaussian,
		gocv.ThresholdBinary, block, float32(opts.C))

	found := gocv.FindContours(mask, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer found.Close()

	contours := make([]Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		contours = append(contours, fromImagePoints(found.At(i).ToPoints()))
	}
	return contours
}

// approximateOpenCV runs cv::approxPolyDP on a closed contour.
func approximateOpenCV(c Contour, epsilon float64) Contour {
	if len(c) < 3 {
		return append(Contour(nil), c...)
	}
	curve := gocv.NewPointVectorFromPoints(c.ImagePoints())
	defer curve.Close()

	approx := gocv.ApproxPolyDP(curve, epsilon, true)
	defer approx.Close()
	return fromImagePoints(approx.ToPoints())
}

func fromImagePoints(pts []image.Point) Contour {
	c := make(Contour, len(pts))
	for i, p := range pts {
		c[i] = Point{X: p.X, Y: p.Y}
	}
	return c
}

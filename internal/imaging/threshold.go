package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Threshold values written into the binary image.
const (
	Ink   uint8 = 0
	Paper uint8 = 255
)

// ThresholdOptions configures AdaptiveThreshold.
type ThresholdOptions struct {
	// BlurRadius is the radius of the Gaussian pre-blur applied to the
	// grayscale image. A radius of 2 gives a 5-tap kernel. Zero disables it.
	BlurRadius float64

	// BlockSize is the odd side length of the neighbourhood used to compute
	// the local threshold. Typical: 11.
	BlockSize int

	// C is subtracted from the local mean to form the threshold. Typical: 2.
	C float64
}

// DefaultThresholdOptions returns the options used for camera and folder frames.
func DefaultThresholdOptions() ThresholdOptions {
	return ThresholdOptions{
		BlurRadius: 2,
		BlockSize:  11,
		C:          2,
	}
}

// AdaptiveThreshold binarizes an image using a locally computed threshold.
//
// # Algorithm
//
//  1. Grayscale conversion (bild effect.Grayscale)
//  2. Gaussian blur with opts.BlurRadius to suppress noise
//  3. Local mean: a second Gaussian blur whose kernel spans opts.BlockSize
//  4. Per pixel: Paper (255) when gray > localMean - C, Ink (0) otherwise
//
// Uniform regions, dark or light, come out as Paper; only pixels noticeably
// darker than their surroundings become Ink. A filled dark shape therefore
// produces an ink band just inside its outline.
//
// The returned image always has its origin at (0, 0).
func AdaptiveThreshold(img image.Image, opts ThresholdOptions) *image.Gray {
	if img.Bounds().Min != (image.Point{}) {
		img = imaging.Clone(img)
	}

	gray := effect.Grayscale(img)
	var smoothed image.Image = gray
	if opts.BlurRadius > 0 {
		smoothed = blur.Gaussian(gray, opts.BlurRadius)
	}

	radius := float64(opts.BlockSize / 2)
	if radius < 1 {
		radius = 1
	}
	local := blur.Gaussian(smoothed, radius)

	bounds := gray.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			v := luminance(smoothed, x, y)
			m := luminance(local, x, y)
			if v > m-opts.C {
				out.SetGray(x, y, color.Gray{Y: Paper})
			} else {
				out.SetGray(x, y, color.Gray{Y: Ink})
			}
		}
	}
	return out
}

// luminance reads the gray level at a zero-based coordinate of a grayscale
// image that may be stored as *image.Gray or as an equal-channel RGBA.
func luminance(img image.Image, x, y int) float64 {
	min := img.Bounds().Min
	switch m := img.(type) {
	case *image.Gray:
		return float64(m.GrayAt(x+min.X, y+min.Y).Y)
	case *image.RGBA:
		return float64(m.RGBAAt(x+min.X, y+min.Y).R)
	default:
		r, _, _, _ := img.At(x+min.X, y+min.Y).RGBA()
		return float64(r >> 8)
	}
}

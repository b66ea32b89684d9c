package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Annotation describes one outline and its caption on an overlay.
type Annotation struct {
	// Outline is the closed polygon to stroke.
	Outline []image.Point

	// Text is drawn centered horizontally on Anchor. Empty text draws nothing.
	Text string

	// Anchor is the baseline-center position of Text.
	Anchor image.Point
}

// OverlayStyle controls how annotations are drawn.
type OverlayStyle struct {
	OutlineColor color.Color
	Thickness    int
	TextColor    color.Color
	TextBack     color.Color
}

// DefaultOverlayStyle draws cyan outlines with black captions on white boxes.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{
		OutlineColor: color.RGBA{0, 255, 255, 255},
		Thickness:    3,
		TextColor:    color.Black,
		TextBack:     color.White,
	}
}

// Annotate returns a copy of img with every annotation drawn on it.
// The source image is not modified.
func Annotate(img image.Image, annotations []Annotation, style OverlayStyle) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Src)

	for _, a := range annotations {
		strokePolygon(dst, a.Outline, style.OutlineColor, style.Thickness)
	}
	// Captions go on top of every outline.
	for _, a := range annotations {
		if a.Text != "" {
			drawCaption(dst, a.Text, a.Anchor, style)
		}
	}
	return dst
}

// strokePolygon draws the closed polygon with square pens of the given thickness.
func strokePolygon(dst draw.Image, pts []image.Point, c color.Color, thickness int) {
	if len(pts) == 0 {
		return
	}
	if thickness < 1 {
		thickness = 1
	}
	pen := image.NewUniform(c)
	half := thickness / 2
	plot := func(x, y int) {
		r := image.Rect(x-half, y-half, x-half+thickness, y-half+thickness)
		draw.Draw(dst, r.Intersect(dst.Bounds()), pen, image.Point{}, draw.Src)
	}
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		line(a, b, plot)
	}
}

// line walks the integer points between a and b (Bresenham).
func line(a, b image.Point, plot func(x, y int)) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	x, y := a.X, a.Y
	for {
		plot(x, y)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func drawCaption(dst draw.Image, text string, anchor image.Point, style OverlayStyle) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Round()
	metrics := face.Metrics()
	ascent := metrics.Ascent.Round()
	descent := metrics.Descent.Round()

	x := anchor.X - width/2
	box := image.Rect(x-2, anchor.Y-ascent-2, x+width+2, anchor.Y+descent+2)
	draw.Draw(dst, box.Intersect(dst.Bounds()), image.NewUniform(style.TextBack), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(style.TextColor),
		Face: face,
		Dot:  fixed.P(x, anchor.Y),
	}
	d.DrawString(text)
}

// Scale resizes img by factor, preserving its aspect ratio.
// A factor of 1, or one that is not positive, returns img unchanged.
func Scale(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor == 1 {
		return img
	}
	w := int(float64(img.Bounds().Dx()) * factor)
	h := int(float64(img.Bounds().Dy()) * factor)
	if w < 1 || h < 1 {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Box)
}

// Save writes img to path; the format follows the file extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNGBase64 encodes img as a base64 PNG string.
func EncodePNGBase64(img image.Image) (string, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

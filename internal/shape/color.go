package shape

import (
	"math"

	"github.com/ironsheep/shapes-mcp/internal/imaging"
)

// ColorClassifier names the color of a mean BGR sample.
//
// Implementations must be pure: the same sample always yields the same color.
type ColorClassifier interface {
	Classify(mean imaging.BGR) Color
}

// Open bounds for a ColorRange channel that is limited on one side only.
// Samples are always within 0-255, so these never exclude one.
const (
	OpenLower = -1
	OpenUpper = 256
)

// ColorRange is an axis-aligned box in BGR space. Bounds are exclusive;
// use OpenLower or OpenUpper for a channel without a limit on that side.
type ColorRange struct {
	Color Color
	Lower imaging.BGR
	Upper imaging.BGR
}

// Contains reports whether every channel of c lies strictly between the
// range's bounds.
func (r ColorRange) Contains(c imaging.BGR) bool {
	lo, hi, v := r.Lower.Channels(), r.Upper.Channels(), c.Channels()
	for i := range v {
		if !(lo[i] < v[i] && v[i] < hi[i]) {
			return false
		}
	}
	return true
}

// DefaultRanges returns the BGR boxes used by the range classifier, in
// matching order.
func DefaultRanges() []ColorRange {
	return []ColorRange{
		{Green, bgr(80, 140, 60), bgr(150, 190, 140)},
		{Blue, bgr(60, 90, 70), bgr(200, 140, 180)},
		{Red, bgr(OpenLower, OpenLower, 150), bgr(100, 100, OpenUpper)},
		{Orange, bgr(OpenLower, 100, 150), bgr(100, OpenUpper, OpenUpper)},
		{Violet, bgr(100, OpenLower, 100), bgr(OpenUpper, 100, OpenUpper)},
	}
}

func bgr(b, g, r float64) imaging.BGR {
	return imaging.BGR{B: b, G: g, R: r}
}

// RangeClassifier matches samples against an ordered list of BGR boxes.
// The first box containing the sample wins; no match is Unknown.
type RangeClassifier struct {
	Ranges []ColorRange
}

// NewRangeClassifier creates a classifier over ranges, or DefaultRanges when
// ranges is empty.
func NewRangeClassifier(ranges []ColorRange) *RangeClassifier {
	if len(ranges) == 0 {
		ranges = DefaultRanges()
	}
	return &RangeClassifier{Ranges: ranges}
}

// Classify implements ColorClassifier.
func (c *RangeClassifier) Classify(mean imaging.BGR) Color {
	for _, r := range c.Ranges {
		if r.Contains(mean) {
			return r.Color
		}
	}
	return Unknown
}

// Reference is a named color given as a BGR triple.
type Reference struct {
	Color Color
	BGR   imaging.BGR
}

// DefaultReferences returns the reference colors used by the hue
// classifier, in matching order.
func DefaultReferences() []Reference {
	return []Reference{
		{Blue, imaging.NewBGR(255, 0, 0)},
		{Green, imaging.NewBGR(0, 255, 0)},
		{Red, imaging.NewBGR(0, 0, 255)},
		{Orange, imaging.NewBGR(0, 165, 255)},
		{Violet, imaging.NewBGR(255, 0, 255)},
	}
}

// Hue classifier defaults, on the 8-bit HSV scale.
const (
	DefaultHueWindow     = 15
	DefaultMinSaturation = 100
	DefaultMinValue      = 100
)

// HueClassifier matches samples by hue against reference colors.
//
// # Algorithm
//
// The sample is converted to HSV (hue 0-180, saturation and value 0-255).
// A reference matches when the circular hue distance between sample and
// reference is at most Window and the sample's saturation and value reach
// MinSaturation and MinValue. Greys, black and white therefore never match.
// References are tried in order; no match is Unknown.
type HueClassifier struct {
	References    []Reference
	Window        float64
	MinSaturation float64
	MinValue      float64
}

// NewHueClassifier creates a classifier over refs with the default window
// and thresholds, or over DefaultReferences when refs is empty.
func NewHueClassifier(refs []Reference) *HueClassifier {
	if len(refs) == 0 {
		refs = DefaultReferences()
	}
	return &HueClassifier{
		References:    refs,
		Window:        DefaultHueWindow,
		MinSaturation: DefaultMinSaturation,
		MinValue:      DefaultMinValue,
	}
}

// Classify implements ColorClassifier.
func (c *HueClassifier) Classify(mean imaging.BGR) Color {
	h, s, v := mean.HSV()
	if s < c.MinSaturation || v < c.MinValue {
		return Unknown
	}
	for _, r := range c.References {
		ref, _, _ := r.BGR.HSV()
		if hueDistance(h, ref) <= c.Window {
			return r.Color
		}
	}
	return Unknown
}

// hueDistance is the circular distance between two hues on the 0-180 scale.
func hueDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 180)
	return math.Min(d, 180-d)
}

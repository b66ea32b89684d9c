package shape

import (
	"image"

	"github.com/ironsheep/shapes-mcp/internal/detection"
	"github.com/ironsheep/shapes-mcp/internal/imaging"
)

// Recognized is one shape found in a frame.
type Recognized struct {
	Pattern    Pattern           `json:"pattern"`
	Color      Color             `json:"color"`
	Confidence Confidence        `json:"confidence"`
	Center     detection.Point   `json:"center"`
	Bounds     detection.Bounds  `json:"bounds"`
	Area       float64           `json:"area"`
	Vertices   int               `json:"vertices"`
	Mean       imaging.BGR       `json:"mean"`
	Hex        string            `json:"hex"`
	Contour    detection.Contour `json:"-"`
}

// Label returns the overlay caption, "<Pattern>, <Color>".
func (r Recognized) Label() string {
	return r.Pattern.String() + ", " + r.Color.String()
}

// Recognizer turns frames into recognized shapes.
//
// A Recognizer holds no mutable state and is safe for concurrent use.
type Recognizer struct {
	// Extraction configures thresholding and contour filtering.
	Extraction detection.Options

	// EpsilonFactor scales the perimeter into the polygon approximation
	// tolerance. Zero means DefaultEpsilonFactor.
	EpsilonFactor float64

	// Colors names each shape's mean color.
	Colors ColorClassifier
}

// NewRecognizer creates a recognizer. A nil classifier falls back to the
// range classifier with its default boxes.
func NewRecognizer(opts detection.Options, colors ColorClassifier) *Recognizer {
	if colors == nil {
		colors = NewRangeClassifier(nil)
	}
	return &Recognizer{
		Extraction:    opts,
		EpsilonFactor: DefaultEpsilonFactor,
		Colors:        colors,
	}
}

// Recognize extracts every candidate contour from img and labels its
// pattern and color. Results are ordered by area, largest first.
func (r *Recognizer) Recognize(img image.Image) []Recognized {
	candidates := detection.Extract(img, r.Extraction)
	results := make([]Recognized, 0, len(candidates))

	for _, c := range candidates {
		pattern, confidence, vertices := ClassifyWith(r.Extraction.Backend, c.Contour, r.EpsilonFactor)

		color := Unknown
		mean, ok := imaging.MeanColor(img, c.Contour.ImagePoints())
		if ok {
			color = r.Colors.Classify(mean)
		}

		results = append(results, Recognized{
			Pattern:    pattern,
			Color:      color,
			Confidence: confidence,
			Center:     c.Center,
			Bounds:     c.Bounds,
			Area:       c.Area,
			Vertices:   vertices,
			Mean:       mean,
			Hex:        mean.Hex(),
			Contour:    c.Contour,
		})
	}
	return results
}

// Annotations converts results into overlay annotations, captioning each
// outline at its centroid.
func Annotations(results []Recognized) []imaging.Annotation {
	out := make([]imaging.Annotation, len(results))
	for i, r := range results {
		out[i] = imaging.Annotation{
			Outline: r.Contour.ImagePoints(),
			Text:    r.Label(),
			Anchor:  image.Pt(r.Center.X, r.Center.Y),
		}
	}
	return out
}

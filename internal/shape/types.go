package shape

import (
	"fmt"
	"strings"
)

// Pattern is the geometric label assigned to a contour.
type Pattern int

// Pattern values. The zero value is not a valid pattern.
const (
	Triangle Pattern = iota + 1
	Square
	Rectangle
	Pentagon
	Hexagon
	Circle
)

var patternNames = map[Pattern]string{
	Triangle:  "Triangle",
	Square:    "Square",
	Rectangle: "Rectangle",
	Pentagon:  "Pentagon",
	Hexagon:   "Hexagon",
	Circle:    "Circle",
}

func (p Pattern) String() string {
	if name, ok := patternNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Pattern(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Pattern) MarshalText() ([]byte, error) {
	if _, ok := patternNames[p]; !ok {
		return nil, fmt.Errorf("invalid pattern %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pattern) UnmarshalText(text []byte) error {
	v, err := ParsePattern(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParsePattern parses a pattern name, ignoring case.
func ParsePattern(s string) (Pattern, error) {
	for p, name := range patternNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown pattern %q", s)
}

// Color is the named color assigned to a contour's mean sample.
type Color int

// Color values. The zero value is Unknown.
const (
	Unknown Color = iota
	Green
	Blue
	Red
	Orange
	Violet
)

var colorNames = map[Color]string{
	Unknown: "Unknown",
	Green:   "Green",
	Blue:    "Blue",
	Red:     "Red",
	Orange:  "Orange",
	Violet:  "Violet",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Color(%d)", int(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	if _, ok := colorNames[c]; !ok {
		return nil, fmt.Errorf("invalid color %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	v, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseColor parses a color name, ignoring case. "Magenta" and "Purple" are
// accepted as aliases of Violet.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	for c, name := range colorNames {
		if strings.EqualFold(name, s) {
			return c, nil
		}
	}
	switch strings.ToLower(s) {
	case "magenta", "purple":
		return Violet, nil
	}
	return Unknown, fmt.Errorf("unknown color %q", s)
}

// Confidence grades how reliable a pattern label is.
type Confidence int

// Confidence values. The zero value is not a valid confidence.
const (
	High Confidence = iota + 1
	Medium
)

var confidenceNames = map[Confidence]string{
	High:   "High",
	Medium: "Medium",
}

func (c Confidence) String() string {
	if name, ok := confidenceNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Confidence(%d)", int(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Confidence) MarshalText() ([]byte, error) {
	if _, ok := confidenceNames[c]; !ok {
		return nil, fmt.Errorf("invalid confidence %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Confidence) UnmarshalText(text []byte) error {
	v, err := ParseConfidence(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseConfidence parses a confidence name, ignoring case.
func ParseConfidence(s string) (Confidence, error) {
	for c, name := range confidenceNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown confidence %q", s)
}

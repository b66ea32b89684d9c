// Package shape labels detected contours with a pattern and a color.
//
// The pattern comes from the vertex count of a polygon approximation of the
// contour:
//
//	3 vertices  Triangle   High
//	4 vertices  Square     High  (bounding box aspect within 0.95-1.05)
//	4 vertices  Rectangle  High  (otherwise)
//	5 vertices  Pentagon   High
//	6 vertices  Hexagon    High
//	other       Circle     Medium
//
// The color comes from the mean of the original pixels inside the contour.
// Two interchangeable classifiers are provided:
//
//   - RangeClassifier: ordered BGR boxes with exclusive bounds
//   - HueClassifier: hue distance to named reference colors, gated on
//     saturation and value
//
// Both return Unknown when nothing matches.
package shape

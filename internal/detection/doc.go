// Package detection finds candidate shape contours in images.
//
// This package turns a frame into a list of closed contours that are likely
// to be individual shapes. It owns the contour type and its geometry, the
// contour tracer, and the filtering pipeline that discards the background,
// noise and duplicate outlines.
//
// # Pipeline
//
// Extract runs these stages in order:
//
//  1. Binarization: grayscale, Gaussian blur and an adaptive threshold
//     (see imaging.AdaptiveThreshold)
//  2. Tracing: the outer boundary of every connected region of the mask,
//     in both polarities, so nested regions produce nested contours
//  3. Sorting: by enclosed area, largest first
//  4. Background removal: the largest contour is the frame itself
//  5. Area filter: contours smaller than imageArea / Ratio are dropped
//  6. De-duplication: a contour whose centroid lies within MinCenterDistance
//     of the centroid of an already kept contour is dropped
//
// A filled shape typically yields two contours with the same centroid: the
// outer edge of the ink band the threshold leaves along its outline, and the
// inner edge of that band. De-duplication keeps the larger one.
//
// # Backends
//
// The tracer and the polygon approximation come in two implementations,
// selected with Options.Backend. BackendGo is written in pure Go and is
// always available. BackendOpenCV calls OpenCV through gocv and is compiled
// in only with -tags gocv; other builds fall back to the Go code.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes are inclusive on both corners
//
// # Geometry
//
// Contour areas and centroids are computed from the polygon through the
// boundary pixel centers (shoelace formula and first-order moments). This is
// the same measure used by common computer vision libraries, so a traced
// 10x10 pixel square has an area of 81, not 100.
package detection

// Package imaging provides the pixel-level operations behind shape recognition.
//
// This package loads frames from disk, binarizes them with an adaptive
// threshold, samples the mean color inside a polygon, and draws annotated
// overlays. All operations work with standard Go image.Image types and use a
// coordinate system where (0,0) is at the top-left corner, X increases
// rightward, and Y increases downward.
//
// # Libraries
//
//   - github.com/disintegration/imaging: decoding (including BMP and TIFF),
//     resizing, saving
//   - github.com/anthonynsimon/bild: grayscale conversion and Gaussian blur
//   - github.com/lucasb-eyer/go-colorful: HSV conversion
//   - golang.org/x/image: caption fonts
//
// # Color Representation
//
// Mean samples are BGR triples with float channels in 0-255. HSV values use
// the 8-bit OpenCV scale: hue 0-180, saturation and value 0-255.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. All other functions are
// stateless and never modify their input images.
package imaging

//go:build !gocv

package source

import (
	"context"
	"fmt"
)

// Camera is a placeholder used when the binary is built without OpenCV.
// Build with -tags gocv for live capture.
type Camera struct {
	device int
}

// NewCamera creates a source for the capture device with the given index.
func NewCamera(device int) *Camera {
	return &Camera{device: device}
}

// Name implements Source.
func (c *Camera) Name() string {
	return "Camera"
}

// Open implements Source. It always fails with ErrUnavailable.
func (c *Camera) Open(ctx context.Context) error {
	return fmt.Errorf("%w: camera support not compiled in (build with -tags gocv)", ErrUnavailable)
}

// Next implements Source. It always fails with ErrUnavailable.
func (c *Camera) Next(ctx context.Context) (Frame, error) {
	return Frame{}, fmt.Errorf("%w: camera %d is not open", ErrUnavailable, c.device)
}

// Close implements Source.
func (c *Camera) Close() error {
	return nil
}

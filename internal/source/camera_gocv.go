//go:build gocv

package source

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Camera reads live frames from a capture device through OpenCV.
type Camera struct {
	device int

	mu      sync.Mutex
	capture *gocv.VideoCapture
	mat     gocv.Mat
	count   int
}

// NewCamera creates a source for the capture device with the given index.
func NewCamera(device int) *Camera {
	return &Camera{device: device}
}

// Name implements Source.
func (c *Camera) Name() string {
	return "Camera"
}

// Open implements Source.
func (c *Camera) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	capture, err := gocv.OpenVideoCapture(c.device)
	if err != nil {
		return fmt.Errorf("%w: failed to open camera %d: %v", ErrUnavailable, c.device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("%w: camera %d did not open", ErrUnavailable, c.device)
	}

	c.capture = capture
	c.mat = gocv.NewMat()
	c.count = 0
	return nil
}

// Next implements Source. A failed or empty read returns ErrFrameDropped.
func (c *Camera) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return Frame{}, fmt.Errorf("%w: camera %d is not open", ErrUnavailable, c.device)
	}
	if ok := c.capture.Read(&c.mat); !ok || c.mat.Empty() {
		return Frame{}, fmt.Errorf("%w: camera %d returned no image", ErrFrameDropped, c.device)
	}

	img, err := c.mat.ToImage()
	if err != nil {
		return Frame{}, fmt.Errorf("%w: failed to convert frame: %v", ErrFrameDropped, err)
	}

	frame := Frame{
		Image: img,
		ID:    fmt.Sprintf("frame_%d", c.count),
		Index: c.count,
	}
	c.count++
	return frame, nil
}

// Close implements Source.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	c.mat.Close()
	err := c.capture.Close()
	c.capture = nil
	if err != nil {
		return fmt.Errorf("failed to release camera %d: %w", c.device, err)
	}
	return nil
}

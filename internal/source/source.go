// Package source provides the frames fed to shape recognition.
//
// A Source is either a live camera or a folder of still images. Both deliver
// Frame values through the same pull interface, so the detection loop does
// not care where frames come from.
package source

import (
	"context"
	"errors"
	"image"
)

// Errors returned by sources. Callers classify them with errors.Is.
var (
	// ErrUnavailable means the source could not be opened at all.
	ErrUnavailable = errors.New("source unavailable")

	// ErrNoImages means a folder holds no decodable image.
	ErrNoImages = errors.New("no images found")

	// ErrFrameDropped means one frame could not be read. The source stays
	// usable and the next call may succeed.
	ErrFrameDropped = errors.New("frame dropped")
)

// Frame is one still image pulled from a source.
type Frame struct {
	Image image.Image

	// ID identifies the frame in logs: "frame_<n>" for cameras, the file
	// name for folders.
	ID string

	// Index counts frames delivered since Open, starting at 0.
	Index int
}

// Source delivers frames one at a time.
//
// Open must be called before Next; Close releases the underlying device or
// memory and may be called even if Open failed. Next returns io.EOF when a
// finite source is exhausted.
type Source interface {
	Name() string
	Open(ctx context.Context) error
	Next(ctx context.Context) (Frame, error)
	Close() error
}

package source

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/shapes-mcp/internal/imaging"
	"github.com/ironsheep/shapes-mcp/internal/logger"
)

// FolderOptions configures a folder source.
type FolderOptions struct {
	// Loop restarts from the first image after the last one instead of
	// returning io.EOF.
	Loop bool

	// Workers bounds parallel decoding in Open. Zero means GOMAXPROCS.
	Workers int

	// Log receives warnings about undecodable files. Nil discards them.
	Log *logger.Logger
}

// Folder plays back the images of one directory in name order.
//
// Open decodes every supported file up front; subdirectories are not
// searched. A Folder is not safe for concurrent use.
type Folder struct {
	dir  string
	opts FolderOptions

	names  []string
	images []image.Image
	next   int
	served int
}

type decoded struct {
	name string
	img  image.Image
}

// NewFolder creates a source over the images in dir.
func NewFolder(dir string, opts FolderOptions) *Folder {
	return &Folder{dir: dir, opts: opts}
}

// Name implements Source.
func (f *Folder) Name() string {
	return "Image"
}

// Dir returns the directory being played back.
func (f *Folder) Dir() string {
	return f.dir
}

// Open implements Source. It lists the directory, decodes every supported
// file and skips files that fail to decode.
//
// Returns ErrUnavailable if the directory cannot be read, ErrNoImages if
// nothing decodes, or the context error if ctx ends first.
func (f *Folder) Open(ctx context.Context) error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("%w: failed to read folder %s: %v", ErrUnavailable, f.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !imaging.IsSupported(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	workers := f.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]decoded, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := imaging.Open(filepath.Join(f.dir, name))
			if err != nil {
				f.opts.Log.Warning("Skipping %s: %v", name, err)
				return nil
			}
			results[i] = decoded{name: name, img: img}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.names = f.names[:0]
	f.images = f.images[:0]
	for _, r := range results {
		if r.img == nil {
			continue
		}
		f.names = append(f.names, r.name)
		f.images = append(f.images, r.img)
	}
	f.next, f.served = 0, 0

	if len(f.images) == 0 {
		return fmt.Errorf("%w in %s", ErrNoImages, f.dir)
	}
	return nil
}

// Names returns the decoded file names in playback order.
func (f *Folder) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Len returns the number of decoded images.
func (f *Folder) Len() int {
	return len(f.images)
}

// Next implements Source.
func (f *Folder) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if f.next >= len(f.images) {
		if !f.opts.Loop || len(f.images) == 0 {
			return Frame{}, io.EOF
		}
		f.next = 0
	}

	frame := Frame{
		Image: f.images[f.next],
		ID:    f.names[f.next],
		Index: f.served,
	}
	f.next++
	f.served++
	return frame, nil
}

// Close implements Source. It releases the decoded images.
func (f *Folder) Close() error {
	f.names = nil
	f.images = nil
	f.next, f.served = 0, 0
	return nil
}

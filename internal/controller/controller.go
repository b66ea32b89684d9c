// Package controller runs detection sessions.
//
// A Controller owns the per-frame loop: it pulls frames from a source,
// recognizes shapes, draws the overlay, hands the result to the render
// callback and writes one entry per shape to every sink. Run is
// synchronous; callers that want a background session start it in their
// own goroutine and use Stop to end it.
//
// # States
//
//	Idle --Run--> Running --Stop--> Stopping --> Idle
//	                 |
//	                 +--(source exhausted / error)--> Idle
//
// The stop request is cooperative and checked once per frame.
package controller

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/shapes-mcp/internal/detection"
	"github.com/ironsheep/shapes-mcp/internal/imaging"
	"github.com/ironsheep/shapes-mcp/internal/logger"
	"github.com/ironsheep/shapes-mcp/internal/shape"
	"github.com/ironsheep/shapes-mcp/internal/source"
)

// DefaultMaxDroppedFrames is the number of consecutive unreadable frames
// after which a run is abandoned.
const DefaultMaxDroppedFrames = 30

var (
	// ErrAlreadyRunning is returned by Run when a session is active.
	ErrAlreadyRunning = errors.New("detection already running")

	// ErrTooManyDropped ends a run whose source keeps failing to deliver.
	ErrTooManyDropped = errors.New("too many consecutive dropped frames")
)

// State is the controller lifecycle state.
type State int32

const (
	Idle State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Run identifies one detection session.
type Run struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	StartedAt time.Time `json:"started_at"`
}

// Summary counts what a session processed.
type Summary struct {
	Run     Run `json:"run"`
	Frames  int `json:"frames"`
	Shapes  int `json:"shapes"`
	Skipped int `json:"skipped"`
}

// Result is one processed frame, as passed to the render callback.
type Result struct {
	RunID     string
	Frame     source.Frame
	Shapes    []shape.Recognized
	Annotated image.Image
}

// Snapshot is the controller's observable state.
type Snapshot struct {
	State   State   `json:"-"`
	Status  string  `json:"status"`
	Summary Summary `json:"summary"`
}

// Sink receives the shapes of every processed frame.
type Sink interface {
	// Begin is called once per run, after the source opened.
	Begin(ctx context.Context, run Run) error

	// WriteFrame records the shapes found in one frame. A frame without
	// shapes may still be passed.
	WriteFrame(ctx context.Context, run Run, frame string, shapes []shape.Recognized) error
}

// Options configures a Controller.
type Options struct {
	Recognizer *shape.Recognizer
	Sinks      []Sink

	// OnRender receives every processed frame. It runs on the detection
	// goroutine and must not block for long.
	OnRender func(Result)

	// OnStatus receives every status line.
	OnStatus func(string)

	// OnBegin receives each run once its source is open, before the first
	// frame is rendered.
	OnBegin func(Run)

	// OutputDir, when set, receives annotated frames under <OutputDir>/<run id>/.
	OutputDir string

	// MaxDroppedFrames overrides DefaultMaxDroppedFrames when positive.
	MaxDroppedFrames int

	Style imaging.OverlayStyle
	Log   *logger.Logger
}

// Controller runs at most one detection session at a time.
type Controller struct {
	opts  Options
	state atomic.Int32

	// statusMu orders status lines, including their callbacks.
	statusMu sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	status  string
	summary Summary
}

// New creates an idle controller. A nil recognizer uses the default
// extraction settings with the range color classifier.
func New(opts Options) *Controller {
	if opts.Recognizer == nil {
		opts.Recognizer = shape.NewRecognizer(detection.DefaultOptions(), nil)
	}
	if opts.MaxDroppedFrames <= 0 {
		opts.MaxDroppedFrames = DefaultMaxDroppedFrames
	}
	if opts.Style.OutlineColor == nil {
		opts.Style = imaging.DefaultOverlayStyle()
	}
	return &Controller{opts: opts, status: "Status: Idle"}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Snapshot returns the state, last status line and progress of the
// current or most recent run.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.State(), Status: c.status, Summary: c.summary}
}

// Stop asks the running session to end after the current frame. It reports
// whether a session was running.
func (c *Controller) Stop() bool {
	if !c.state.CompareAndSwap(int32(Running), int32(Stopping)) {
		return false
	}
	c.setStatus("Status: Stopping detection...")

	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return true
}

// Run processes frames from src until it is exhausted, Stop is called, ctx
// is cancelled, or an unrecoverable error occurs. The source is opened and
// always closed by Run.
//
// A stopped run returns a nil error; a cancelled context returns ctx.Err().
func (c *Controller) Run(ctx context.Context, src source.Source) (Summary, error) {
	if !c.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return Summary{}, ErrAlreadyRunning
	}
	return c.run(ctx, src)
}

// Start claims the controller and runs the session on a new goroutine.
// Unlike Run it returns at once: ErrAlreadyRunning if a session is active,
// nil otherwise. finished, if not nil, receives the outcome after the
// controller is idle again.
func (c *Controller) Start(ctx context.Context, src source.Source, finished func(Summary, error)) error {
	if !c.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return ErrAlreadyRunning
	}
	go func() {
		sum, err := c.run(ctx, src)
		if finished != nil {
			finished(sum, err)
		}
	}()
	return nil
}

func (c *Controller) run(ctx context.Context, src source.Source) (Summary, error) {
	defer c.state.Store(int32(Idle))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	run := Run{ID: uuid.NewString(), Source: src.Name(), StartedAt: time.Now()}
	c.mu.Lock()
	c.cancel = cancel
	c.summary = Summary{Run: run}
	if c.State() == Stopping {
		cancel()
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
	}()

	c.setStatusWhileRunning("Status: Detection running...")
	c.opts.Log.Info("Starting %s detection, run %s", run.Source, run.ID)

	if err := src.Open(runCtx); err != nil {
		src.Close()
		c.setStatus("Status: Could not open data source: " + err.Error())
		c.opts.Log.Error("Could not open %s source: %v", run.Source, err)
		return c.progress(), fmt.Errorf("failed to open source: %w", err)
	}
	defer src.Close()

	if c.State() == Stopping {
		return c.stopped(nil)
	}
	c.setStatusWhileRunning(fmt.Sprintf("Status: %s detection started.", run.Source))
	if c.opts.OnBegin != nil {
		c.opts.OnBegin(run)
	}

	for _, sink := range c.opts.Sinks {
		if err := sink.Begin(runCtx, run); err != nil {
			return c.fail(fmt.Errorf("failed to start sink: %w", err))
		}
	}

	var saveDir string
	if c.opts.OutputDir != "" {
		saveDir = filepath.Join(c.opts.OutputDir, run.ID)
		if err := os.MkdirAll(saveDir, 0o755); err != nil {
			return c.fail(fmt.Errorf("failed to create output directory: %w", err))
		}
	}

	dropped := 0
	for {
		if c.State() == Stopping {
			return c.stopped(nil)
		}
		if err := ctx.Err(); err != nil {
			return c.stopped(err)
		}

		frame, err := src.Next(runCtx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			c.setStatus("Status: Detection completed.")
			c.opts.Log.Info("Run %s completed", run.ID)
			return c.progress(), nil
		case errors.Is(err, source.ErrFrameDropped):
			dropped++
			c.update(func(s *Summary) { s.Skipped++ })
			c.opts.Log.Warning("Frame dropped (%d in a row): %v", dropped, err)
			if dropped >= c.opts.MaxDroppedFrames {
				return c.fail(fmt.Errorf("%w: %d", ErrTooManyDropped, dropped))
			}
			continue
		case runCtx.Err() != nil:
			if c.State() == Stopping {
				return c.stopped(nil)
			}
			return c.stopped(ctx.Err())
		default:
			return c.fail(fmt.Errorf("failed to read frame: %w", err))
		}
		dropped = 0

		if err := c.process(runCtx, run, frame, saveDir); err != nil {
			return c.fail(err)
		}
	}
}

// process recognizes, renders, saves and records one frame.
func (c *Controller) process(ctx context.Context, run Run, frame source.Frame, saveDir string) error {
	shapes := c.opts.Recognizer.Recognize(frame.Image)
	annotated := imaging.Annotate(frame.Image, shape.Annotations(shapes), c.opts.Style)

	if c.opts.OnRender != nil {
		c.opts.OnRender(Result{RunID: run.ID, Frame: frame, Shapes: shapes, Annotated: annotated})
	}

	if saveDir != "" {
		if err := imaging.Save(annotated, filepath.Join(saveDir, frameFileName(frame.ID))); err != nil {
			return err
		}
	}

	for _, sink := range c.opts.Sinks {
		if err := sink.WriteFrame(ctx, run, frame.ID, shapes); err != nil {
			return fmt.Errorf("failed to write detections: %w", err)
		}
	}

	c.update(func(s *Summary) {
		s.Frames++
		s.Shapes += len(shapes)
	})
	c.setStatus(fmt.Sprintf("Status: %s: %d shape(s) detected.", frame.ID, len(shapes)))
	c.opts.Log.Debug("Frame %s: %d shape(s)", frame.ID, len(shapes))
	return nil
}

func (c *Controller) stopped(err error) (Summary, error) {
	c.setStatus("Status: Detection stopped.")
	c.opts.Log.Info("Detection stopped")
	return c.progress(), err
}

func (c *Controller) fail(err error) (Summary, error) {
	c.setStatus("Status: " + err.Error())
	c.opts.Log.Error("Detection failed: %v", err)
	return c.progress(), err
}

func (c *Controller) setStatus(line string) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.emitStatus(line)
}

// setStatusWhileRunning drops line once a stop was requested, so it cannot
// replace the stopping status.
func (c *Controller) setStatusWhileRunning(line string) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	if c.State() == Stopping {
		return
	}
	c.emitStatus(line)
}

func (c *Controller) emitStatus(line string) {
	c.mu.Lock()
	c.status = line
	c.mu.Unlock()
	if c.opts.OnStatus != nil {
		c.opts.OnStatus(line)
	}
}

func (c *Controller) update(fn func(*Summary)) {
	c.mu.Lock()
	fn(&c.summary)
	c.mu.Unlock()
}

func (c *Controller) progress() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// frameFileName maps a frame ID to a PNG file name.
func frameFileName(id string) string {
	base := filepath.Base(id)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".png"
}

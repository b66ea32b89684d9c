package controller

import (
	"context"
	"time"

	"github.com/ironsheep/shapes-mcp/internal/csvlog"
	"github.com/ironsheep/shapes-mcp/internal/shape"
	"github.com/ironsheep/shapes-mcp/internal/store"
)

// CSVSink appends one log entry per recognized shape.
type CSVSink struct {
	Writer *csvlog.Writer

	// Now stamps entries. Nil means time.Now.
	Now func() time.Time
}

// NewCSVSink creates a sink writing to the CSV log at path.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{Writer: csvlog.NewWriter(path)}
}

// Begin implements Sink.
func (s *CSVSink) Begin(ctx context.Context, run Run) error {
	return nil
}

// WriteFrame implements Sink.
func (s *CSVSink) WriteFrame(ctx context.Context, run Run, frame string, shapes []shape.Recognized) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	for _, r := range shapes {
		err := s.Writer.WriteEntry(csvlog.Entry{
			Timestamp:  now(),
			Pattern:    r.Pattern.String(),
			Color:      r.Color.String(),
			Frame:      frame,
			Confidence: r.Confidence.String(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// StoreSink records runs and detections in the SQLite store.
type StoreSink struct {
	DB *store.DB
}

// NewStoreSink creates a sink over db.
func NewStoreSink(db *store.DB) *StoreSink {
	return &StoreSink{DB: db}
}

// Begin implements Sink.
func (s *StoreSink) Begin(ctx context.Context, run Run) error {
	return s.DB.InsertRun(ctx, store.Run{ID: run.ID, Source: run.Source, StartedAt: run.StartedAt})
}

// WriteFrame implements Sink.
func (s *StoreSink) WriteFrame(ctx context.Context, run Run, frame string, shapes []shape.Recognized) error {
	if len(shapes) == 0 {
		return nil
	}
	now := time.Now()
	detections := make([]store.Detection, len(shapes))
	for i, r := range shapes {
		detections[i] = store.Detection{
			RunID:      run.ID,
			Frame:      frame,
			Pattern:    r.Pattern.String(),
			Color:      r.Color.String(),
			Confidence: r.Confidence.String(),
			X:          r.Bounds.X1,
			Y:          r.Bounds.Y1,
			Width:      r.Bounds.Width(),
			Height:     r.Bounds.Height(),
			Area:       r.Area,
			CreatedAt:  now,
		}
	}
	return s.DB.InsertDetections(ctx, detections)
}

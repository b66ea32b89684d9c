// Package csvlog writes the append-only CSV log of recognized shapes.
//
// The first record written to a new file fixes the header; later records
// must carry the same set of field names. When the file already exists its
// header is adopted instead, so a log can grow across runs.
package csvlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"
)

// TimeLayout formats timestamps with millisecond precision in local time.
const TimeLayout = "2006-01-02 15:04:05.000"

// Standard field names of a detection entry.
const (
	FieldTimestamp  = "Timestamp"
	FieldPattern    = "Pattern"
	FieldColor      = "Color"
	FieldFrame      = "Frame"
	FieldConfidence = "Confidence"
)

var (
	// ErrSchemaMismatch means a record's field names differ from the header.
	ErrSchemaMismatch = errors.New("record fields do not match log header")

	// ErrNotWritable means the log file or its directory cannot be written.
	ErrNotWritable = errors.New("log file not writable")
)

// Field is one named column value.
type Field struct {
	Name  string
	Value string
}

// Record is an ordered list of fields.
type Record []Field

// Names returns the field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Get returns the value of the named field.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Entry is one detection as it appears in the log.
type Entry struct {
	Timestamp  time.Time
	Pattern    string
	Color      string
	Frame      string
	Confidence string
}

// Record converts the entry to its CSV fields.
func (e Entry) Record() Record {
	return Record{
		{FieldTimestamp, e.Timestamp.Format(TimeLayout)},
		{FieldPattern, e.Pattern},
		{FieldColor, e.Color},
		{FieldFrame, e.Frame},
		{FieldConfidence, e.Confidence},
	}
}

// ParseEntry converts a record read back from the log into an Entry.
func ParseEntry(r Record) (Entry, error) {
	var e Entry
	ts, _ := r.Get(FieldTimestamp)
	t, err := time.ParseInLocation(TimeLayout, ts, time.Local)
	if err != nil {
		return e, fmt.Errorf("failed to parse timestamp %q: %w", ts, err)
	}
	e.Timestamp = t
	e.Pattern, _ = r.Get(FieldPattern)
	e.Color, _ = r.Get(FieldColor)
	e.Frame, _ = r.Get(FieldFrame)
	e.Confidence, _ = r.Get(FieldConfidence)
	return e, nil
}

// Writer appends records to a CSV file. It is safe for concurrent use.
type Writer struct {
	path string

	mu     sync.Mutex
	header []string
}

// NewWriter creates a writer for path. Nothing is touched on disk until the
// first Write.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the log file path.
func (w *Writer) Path() string {
	return w.path
}

// Header returns the fixed header, or nil before the first write.
func (w *Writer) Header() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.header...)
}

// WriteEntry appends one detection entry.
func (w *Writer) WriteEntry(e Entry) error {
	return w.Write(e.Record())
}

// Write appends one record.
//
// The record's fields are written in header order. A record whose field
// names differ from the header as a set is rejected with ErrSchemaMismatch;
// a file that cannot be opened for appending yields ErrNotWritable.
func (w *Writer) Write(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.header == nil {
		if err := w.initHeader(rec.Names()); err != nil {
			return err
		}
	}

	row, err := w.align(rec)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotWritable, w.path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("failed to write log entry: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write log entry: %w", err)
	}
	return nil
}

// initHeader adopts the header of an existing file or creates the file with
// names as its header.
func (w *Writer) initHeader(names []string) error {
	existing, err := readHeader(w.path)
	if err != nil {
		return err
	}
	if existing != nil {
		w.header = existing
		return nil
	}

	f, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotWritable, w.path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("failed to write log header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write log header: %w", err)
	}
	w.header = names
	return nil
}

// align orders the record's values by header column.
func (w *Writer) align(rec Record) ([]string, error) {
	if !sameSet(rec.Names(), w.header) {
		return nil, fmt.Errorf("%w: got %v, header is %v", ErrSchemaMismatch, rec.Names(), w.header)
	}
	row := make([]string, len(w.header))
	for i, name := range w.header {
		row[i], _ = rec.Get(name)
	}
	return row, nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// readHeader returns the first row of an existing, non-empty file, or nil.
func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotWritable, path, err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read log header: %w", err)
	}
	return header, nil
}

// ReadAll reads every record of a log file.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read log %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(Record, len(header))
		for i, name := range header {
			rec[i] = Field{Name: name, Value: row[i]}
		}
		records = append(records, rec)
	}
	return records, nil
}

package viewer

import (
	"image"
	"sync"
	"time"

	"github.com/ironsheep/shapes-mcp/internal/shape"
)

// DefaultHistoryLimit bounds a History created with a non-positive limit.
const DefaultHistoryLimit = 500

// Entry is one processed frame kept for display.
type Entry struct {
	RunID   string             `json:"run_id"`
	FrameID string             `json:"frame_id"`
	Index   int                `json:"index"`
	Image   image.Image        `json:"-"`
	Shapes  []shape.Recognized `json:"shapes"`
	At      time.Time          `json:"at"`
}

// History is a bounded list of processed frames with a display cursor.
//
// Append moves the cursor to the newest frame. Prev and Next move it one
// step and stop at the ends. When the limit is exceeded the oldest frame
// is discarded. History is safe for concurrent use.
type History struct {
	mu      sync.Mutex
	limit   int
	entries []Entry
	cursor  int
}

// NewHistory creates an empty history holding at most limit frames.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, cursor: -1}
}

// Append adds a frame and makes it current.
func (h *History) Append(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, e)
	if over := len(h.entries) - h.limit; over > 0 {
		copy(h.entries, h.entries[over:])
		for i := len(h.entries) - over; i < len(h.entries); i++ {
			h.entries[i] = Entry{}
		}
		h.entries = h.entries[:len(h.entries)-over]
	}
	h.cursor = len(h.entries) - 1
}

// Current returns the frame under the cursor.
func (h *History) Current() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current()
}

// Prev moves the cursor back one frame, stopping at the first.
func (h *History) Prev() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor > 0 {
		h.cursor--
	}
	return h.current()
}

// Next moves the cursor forward one frame, stopping at the last.
func (h *History) Next() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor < len(h.entries)-1 {
		h.cursor++
	}
	return h.current()
}

// At moves the cursor to frame i. An out-of-range index leaves the cursor
// where it was and reports false.
func (h *History) At(i int) (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i < 0 || i >= len(h.entries) {
		return Entry{}, false
	}
	h.cursor = i
	return h.entries[i], true
}

// Cursor returns the current position, or -1 when empty.
func (h *History) Cursor() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

// Len returns the number of frames held.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Reset discards every frame.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.cursor = -1
}

func (h *History) current() (Entry, bool) {
	if h.cursor < 0 || h.cursor >= len(h.entries) {
		return Entry{}, false
	}
	return h.entries[h.cursor], true
}

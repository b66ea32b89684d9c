// Package viewer shows processed frames.
//
// It keeps a navigable History of annotated frames (prev/next over
// everything processed so far) and pushes status lines and frames to
// browsers over WebSocket. The HTTP side is optional; the History alone
// backs the frame_view tool.
//
// # Endpoints
//
//	GET /        minimal live page
//	GET /ws      WebSocket upgrade; receives status and frame messages
//	GET /frame   current frame as PNG, or ?index=N
//	GET /status  current status line as text
package viewer

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ironsheep/shapes-mcp/internal/controller"
	"github.com/ironsheep/shapes-mcp/internal/imaging"
	"github.com/ironsheep/shapes-mcp/internal/logger"
)

// Upgrader accepts viewer connections from any origin.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Viewer combines the frame history, the WebSocket hub and the status line.
type Viewer struct {
	History *History
	Hub     *Hub

	scale float64
	log   *logger.Logger

	mu     sync.RWMutex
	status string
}

// New creates a viewer keeping up to limit frames, each resized by scale.
func New(limit int, scale float64, log *logger.Logger) *Viewer {
	return &Viewer{
		History: NewHistory(limit),
		Hub:     NewHub(log),
		scale:   scale,
		log:     log,
		status:  "Status: Idle",
	}
}

// Render stores a processed frame and pushes it to connected viewers.
// It has the signature of controller.Options.OnRender.
func (v *Viewer) Render(r controller.Result) {
	img := imaging.Scale(r.Annotated, v.scale)
	v.History.Append(Entry{
		RunID:   r.RunID,
		FrameID: r.Frame.ID,
		Index:   r.Frame.Index,
		Image:   img,
		Shapes:  r.Shapes,
		At:      time.Now(),
	})

	if v.Hub.ClientCount() == 0 {
		return
	}
	encoded, err := imaging.EncodePNGBase64(img)
	if err != nil {
		v.log.Warning("Failed to encode frame %s: %v", r.Frame.ID, err)
		return
	}
	v.Hub.Broadcast(Message{
		Type:   MessageFrame,
		ID:     r.Frame.ID,
		Index:  r.Frame.Index,
		Shapes: len(r.Shapes),
		Image:  encoded,
	})
}

// Begin clears the history for a new run. It has the signature of
// controller.Options.OnBegin.
func (v *Viewer) Begin(controller.Run) {
	v.History.Reset()
}

// SetStatus records the status line and pushes it to connected viewers.
// It has the signature of controller.Options.OnStatus.
func (v *Viewer) SetStatus(line string) {
	v.mu.Lock()
	v.status = line
	v.mu.Unlock()

	if v.Hub.ClientCount() == 0 {
		return
	}
	v.Hub.Broadcast(Message{Type: MessageStatus, Text: line})
}

// Status returns the last status line.
func (v *Viewer) Status() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status
}

// Handler returns the HTTP handler serving the viewer endpoints.
func (v *Viewer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", v.handleIndex)
	mux.HandleFunc("/ws", v.handleWebsocket)
	mux.HandleFunc("/frame", v.handleFrame)
	mux.HandleFunc("/status", v.handleStatus)
	return mux
}

func (v *Viewer) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		v.log.Warning("WebSocket upgrade error: %v", err)
		return
	}
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	v.Hub.Register(conn)
	defer v.Hub.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (v *Viewer) handleFrame(w http.ResponseWriter, r *http.Request) {
	var (
		entry Entry
		ok    bool
	)
	if s := r.URL.Query().Get("index"); s != "" {
		i, err := strconv.Atoi(s)
		if err != nil {
			http.Error(w, "invalid index", http.StatusBadRequest)
			return
		}
		entry, ok = v.History.At(i)
	} else {
		entry, ok = v.History.Current()
	}
	if !ok {
		http.Error(w, "no frame", http.StatusNotFound)
		return
	}

	data, err := imaging.EncodePNG(entry.Image)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Frame-Id", entry.FrameID)
	w.Write(data)
}

func (v *Viewer) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(v.Status()))
}

func (v *Viewer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}

const indexPage = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Shape Recognizer</title></head>
<body>
<img id="frame" alt="no frame yet">
<p id="status">Status: Idle</p>
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  if (msg.type === "status") document.getElementById("status").textContent = msg.text;
  if (msg.type === "frame") document.getElementById("frame").src = "data:image/png;base64," + msg.image;
};
</script>
</body>
</html>
`

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ironsheep/shapes-mcp/internal/config"
	"github.com/ironsheep/shapes-mcp/internal/controller"
	"github.com/ironsheep/shapes-mcp/internal/csvlog"
	"github.com/ironsheep/shapes-mcp/internal/imaging"
	"github.com/ironsheep/shapes-mcp/internal/shape"
	"github.com/ironsheep/shapes-mcp/internal/source"
	"github.com/ironsheep/shapes-mcp/internal/viewer"
)

// stopTimeout bounds how long detection_stop waits for the worker.
const stopTimeout = 2 * time.Second

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "shapes_detect", "detection_start").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "shapes_detect":
		return s.handleShapesDetect(args)

	case "detection_start":
		return s.handleDetectionStart(args)
	case "detection_stop":
		return s.handleDetectionStop(args)
	case "detection_status":
		return s.handleDetectionStatus(args)

	case "frame_view":
		return s.handleFrameView(args)

	case "log_read":
		return s.handleLogRead(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Absent arguments leave v untouched.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	return json.Unmarshal(args, v)
}

// === One-shot Recognition ===

type shapesDetectArgs struct {
	Path         string `json:"path"`
	IncludeImage bool   `json:"include_image"`
	Log          bool   `json:"log"`
}

// ShapesDetectResult is the shapes_detect response.
type ShapesDetectResult struct {
	Path   string             `json:"path"`
	Width  int                `json:"width"`
	Height int                `json:"height"`
	Count  int                `json:"count"`
	Shapes []shape.Recognized `json:"shapes"`
	Image  string             `json:"image,omitempty"`
	Logged bool               `json:"logged,omitempty"`
}

func (s *Server) handleShapesDetect(args json.RawMessage) (interface{}, error) {
	var a shapesDetectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	shapes := s.recognizer.Recognize(img)
	result := &ShapesDetectResult{
		Path:   a.Path,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Count:  len(shapes),
		Shapes: shapes,
	}

	if a.IncludeImage {
		annotated := imaging.Annotate(img, shape.Annotations(shapes), imaging.DefaultOverlayStyle())
		encoded, err := imaging.EncodePNGBase64(annotated)
		if err != nil {
			return nil, err
		}
		result.Image = encoded
	}

	if a.Log {
		run := controller.Run{Source: "Image", StartedAt: time.Now()}
		if err := s.csv.WriteFrame(context.Background(), run, filepath.Base(a.Path), shapes); err != nil {
			return nil, err
		}
		result.Logged = true
	}
	return result, nil
}

// === Detection Session ===

type detectionStartArgs struct {
	Mode   string `json:"mode"`
	Folder string `json:"folder"`
	Loop   *bool  `json:"loop"`
	Device *int   `json:"device"`
}

// DetectionStartResult is the detection_start response.
type DetectionStartResult struct {
	Started bool   `json:"started"`
	Mode    string `json:"mode"`
	Folder  string `json:"folder,omitempty"`
	Device  *int   `json:"device,omitempty"`
	Status  string `json:"status"`
}

func (s *Server) handleDetectionStart(args json.RawMessage) (interface{}, error) {
	var a detectionStartArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	mode := strings.ToLower(a.Mode)
	if mode == "" {
		mode = strings.ToLower(s.cfg.Source.Mode)
	}

	result := &DetectionStartResult{Mode: mode}
	var src source.Source
	switch mode {
	case config.SourceImage:
		folder := a.Folder
		if folder == "" {
			folder = s.cfg.Paths.LastImageFolderPath
		}
		if folder == "" {
			return nil, errors.New("no image folder given and none remembered")
		}
		loop := s.cfg.Source.Loop
		if a.Loop != nil {
			loop = *a.Loop
		}
		src = source.NewFolder(folder, source.FolderOptions{
			Loop:    loop,
			Workers: s.cfg.Source.Workers,
			Log:     s.log,
		})
		result.Folder = folder

	case config.SourceCamera:
		device := s.cfg.Source.CameraDevice
		if a.Device != nil {
			device = *a.Device
		}
		src = source.NewCamera(device)
		result.Device = &device

	default:
		return nil, fmt.Errorf("invalid mode %q: want %q or %q", mode, config.SourceImage, config.SourceCamera)
	}

	if s.ctrl.State() != controller.Idle {
		return nil, controller.ErrAlreadyRunning
	}

	done := make(chan struct{})
	s.runMu.Lock()
	prevDone, prevErr := s.done, s.lastErr
	s.done, s.lastErr = done, nil
	s.runMu.Unlock()

	err := s.ctrl.Start(context.Background(), src, func(_ controller.Summary, err error) {
		s.runMu.Lock()
		s.lastErr = err
		s.runMu.Unlock()
		close(done)
	})
	if err != nil {
		s.runMu.Lock()
		s.done, s.lastErr = prevDone, prevErr
		s.runMu.Unlock()
		return nil, err
	}
	if result.Folder != "" {
		s.rememberFolder(result.Folder)
	}

	result.Started = true
	result.Status = s.ctrl.Snapshot().Status
	return result, nil
}

// rememberFolder stores folder as the last image folder and saves the config.
func (s *Server) rememberFolder(folder string) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()

	if s.cfg.Paths.LastImageFolderPath == folder {
		return
	}
	s.cfg.Paths.LastImageFolderPath = folder
	if s.cfgPath == "" {
		return
	}
	if err := s.cfg.Save(s.cfgPath); err != nil {
		s.log.Warning("Could not remember image folder: %v", err)
	}
}

// DetectionStopResult is the detection_stop response.
type DetectionStopResult struct {
	Requested bool   `json:"requested"`
	Joined    bool   `json:"joined"`
	State     string `json:"state"`
	Status    string `json:"status"`
}

func (s *Server) handleDetectionStop(args json.RawMessage) (interface{}, error) {
	s.runMu.Lock()
	done := s.done
	s.runMu.Unlock()

	requested := s.ctrl.Stop()
	joined := true
	if done != nil {
		select {
		case <-done:
		case <-time.After(stopTimeout):
			joined = false
			s.log.Warning("Detection did not stop within %v", stopTimeout)
		}
	}

	snap := s.ctrl.Snapshot()
	return &DetectionStopResult{
		Requested: requested,
		Joined:    joined,
		State:     s.ctrl.State().String(),
		Status:    snap.Status,
	}, nil
}

// DetectionStatusResult is the detection_status response.
type DetectionStatusResult struct {
	State     string `json:"state"`
	Status    string `json:"status"`
	RunID     string `json:"run_id,omitempty"`
	Source    string `json:"source,omitempty"`
	Frames    int    `json:"frames"`
	Shapes    int    `json:"shapes"`
	Skipped   int    `json:"skipped"`
	History   int    `json:"history"`
	LastError string `json:"last_error,omitempty"`
}

func (s *Server) handleDetectionStatus(args json.RawMessage) (interface{}, error) {
	snap := s.ctrl.Snapshot()

	s.runMu.Lock()
	lastErr := s.lastErr
	s.runMu.Unlock()

	result := &DetectionStatusResult{
		State:   snap.State.String(),
		Status:  snap.Status,
		RunID:   snap.Summary.Run.ID,
		Source:  snap.Summary.Run.Source,
		Frames:  snap.Summary.Frames,
		Shapes:  snap.Summary.Shapes,
		Skipped: snap.Summary.Skipped,
		History: s.viewer.History.Len(),
	}
	if lastErr != nil {
		result.LastError = lastErr.Error()
	}
	return result, nil
}

// === Viewport ===

type frameViewArgs struct {
	Action string `json:"action"`
	Index  int    `json:"index"`
}

// FrameViewResult is the frame_view response.
type FrameViewResult struct {
	Position int                `json:"position"`
	Total    int                `json:"total"`
	RunID    string             `json:"run_id"`
	FrameID  string             `json:"frame_id"`
	Shapes   []shape.Recognized `json:"shapes"`
	Image    string             `json:"image"`
}

func (s *Server) handleFrameView(args json.RawMessage) (interface{}, error) {
	var a frameViewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	h := s.viewer.History
	var (
		entry viewer.Entry
		ok    bool
	)
	switch strings.ToLower(a.Action) {
	case "", "current":
		entry, ok = h.Current()
	case "prev":
		entry, ok = h.Prev()
	case "next":
		entry, ok = h.Next()
	case "index":
		entry, ok = h.At(a.Index)
		if !ok && h.Len() > 0 {
			return nil, fmt.Errorf("index %d out of range [0, %d)", a.Index, h.Len())
		}
	default:
		return nil, fmt.Errorf("invalid action %q", a.Action)
	}
	if !ok {
		return nil, errors.New("no processed frames yet")
	}

	encoded, err := imaging.EncodePNGBase64(entry.Image)
	if err != nil {
		return nil, err
	}
	return &FrameViewResult{
		Position: h.Cursor(),
		Total:    h.Len(),
		RunID:    entry.RunID,
		FrameID:  entry.FrameID,
		Shapes:   entry.Shapes,
		Image:    encoded,
	}, nil
}

// === Log ===

type logReadArgs struct {
	Limit int `json:"limit"`
}

// LogReadResult is the log_read response.
type LogReadResult struct {
	Path  string              `json:"path"`
	Count int                 `json:"count"`
	Total int                 `json:"total"`
	Rows  []map[string]string `json:"rows"`
}

func (s *Server) handleLogRead(args json.RawMessage) (interface{}, error) {
	var a logReadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	path := s.csv.Writer.Path()
	result := &LogReadResult{Path: path, Rows: []map[string]string{}}

	records, err := csvlog.ReadAll(path)
	if errors.Is(err, os.ErrNotExist) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	result.Total = len(records)
	if a.Limit > 0 && len(records) > a.Limit {
		records = records[len(records)-a.Limit:]
	}
	for _, rec := range records {
		row := make(map[string]string, len(rec))
		for _, f := range rec {
			row[f.Name] = f.Value
		}
		result.Rows = append(result.Rows, row)
	}
	result.Count = len(result.Rows)
	return result, nil
}

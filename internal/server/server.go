package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ironsheep/shapes-mcp/internal/config"
	"github.com/ironsheep/shapes-mcp/internal/controller"
	"github.com/ironsheep/shapes-mcp/internal/imaging"
	"github.com/ironsheep/shapes-mcp/internal/logger"
	"github.com/ironsheep/shapes-mcp/internal/shape"
	"github.com/ironsheep/shapes-mcp/internal/store"
	"github.com/ironsheep/shapes-mcp/internal/viewer"
)

// ServerName and ServerVersion are reported during initialize.
const (
	ServerName    = "shapes-mcp"
	ServerVersion = "0.1.0"
)

// Options configures a Server.
type Options struct {
	// Config holds the settings. Nil means config.Default().
	Config *config.Config

	// ConfigPath is where remembered values are saved. Empty disables saving.
	ConfigPath string

	// Store is the optional SQLite sink.
	Store *store.DB

	// Viewer receives processed frames. Nil creates one from the display
	// settings, without an HTTP listener.
	Viewer *viewer.Viewer

	Log *logger.Logger

	// In and Out carry the protocol. Nil means stdin and stdout.
	In  io.Reader
	Out io.Writer
}

// Server handles MCP protocol communication
type Server struct {
	cfg     *config.Config
	cfgPath string
	cfgMu   sync.Mutex

	cache      *imaging.ImageCache
	recognizer *shape.Recognizer
	csv        *controller.CSVSink
	ctrl       *controller.Controller
	viewer     *viewer.Viewer
	log        *logger.Logger

	in  io.Reader
	out io.Writer

	// Detection worker, owned by the stdio goroutine.
	runMu   sync.Mutex
	done    chan struct{}
	lastErr error
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	recognizer, err := cfg.Recognizer()
	if err != nil {
		return nil, fmt.Errorf("failed to build recognizer: %w", err)
	}

	v := opts.Viewer
	if v == nil {
		v = viewer.New(cfg.Display.HistoryLimit, cfg.Display.Scale, opts.Log)
	}

	s := &Server{
		cfg:        cfg,
		cfgPath:    opts.ConfigPath,
		cache:      imaging.NewImageCache(),
		recognizer: recognizer,
		csv:        controller.NewCSVSink(cfg.Paths.LogFile),
		viewer:     v,
		log:        opts.Log,
		in:         opts.In,
		out:        opts.Out,
	}
	if s.in == nil {
		s.in = os.Stdin
	}
	if s.out == nil {
		s.out = os.Stdout
	}

	sinks := []controller.Sink{s.csv}
	if opts.Store != nil {
		sinks = append(sinks, controller.NewStoreSink(opts.Store))
	}
	s.ctrl = controller.New(controller.Options{
		Recognizer:       recognizer,
		Sinks:            sinks,
		OnRender:         v.Render,
		OnStatus:         v.SetStatus,
		OnBegin:          v.Begin,
		OutputDir:        cfg.Paths.OutputDir,
		MaxDroppedFrames: cfg.Source.MaxDroppedFrames,
		Log:              opts.Log,
	})
	return s, nil
}

// Controller returns the detection controller.
func (s *Server) Controller() *controller.Controller {
	return s.ctrl
}

// Run reads requests until the input ends or ctx is cancelled. A running
// detection is stopped before Run returns.
func (s *Server) Run(ctx context.Context) error {
	defer s.Shutdown()

	scanner := bufio.NewScanner(s.in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warning("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Error("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// Shutdown stops a running detection and waits for the worker.
func (s *Server) Shutdown() {
	s.ctrl.Stop()
	s.runMu.Lock()
	done := s.done
	s.runMu.Unlock()
	if done != nil {
		<-done
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": ServerVersion,
			},
		},
	}
}

// Package server implements the MCP (Model Context Protocol) server for shape
// and color recognition.
//
// The server exposes single-image recognition and a background detection
// session through JSON-RPC 2.0 so MCP clients can drive the recognizer,
// page through processed frames and read the detection log.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Recognition:
//   - shapes_detect: Recognize the shapes in one image, optionally returning
//     the annotated frame and appending the results to the log
//
// Detection session:
//   - detection_start: Start detection over an image folder or a camera
//   - detection_stop: Request a stop and wait briefly for the worker
//   - detection_status: Report state, status line and frame counts
//
// Review:
//   - frame_view: Step through the processed frame history
//   - log_read: Read the most recent detection log rows
//
// # Detection Worker
//
// At most one detection session runs at a time. detection_start returns as
// soon as the worker is launched; the status line and history are updated as
// frames are processed. An image folder given to detection_start is saved to
// the config file and reused when the next start omits it.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Failures inside the worker do not produce responses; they surface through
// detection_status as the status line and last error.
//
// # Usage
//
//	srv, err := server.New(server.Options{Config: cfg, ConfigPath: config.Path()})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

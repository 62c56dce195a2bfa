// Package server implements the MCP (Model Context Protocol) server for the
// sonar proposal pipeline.
//
// The server exposes recording inspection, field-of-view extraction, proposal
// search, suppression, recall scoring and overlay rendering as MCP tools, so an
// assistant can drive the pipeline on forward-looking sonar data.
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
// Recordings:
//   - sonar_file_info: Global header of an ARIS recording
//   - sonar_frame_info: Header summary of one frame, optionally with its image
//   - sonar_export_frames: Write a frame range as PNG files
//
// Field of view:
//   - polar_mask: Polar field-of-view mask of a frame
//   - polar_windows: Sliding windows inside the field of view
//
// Proposals:
//   - generate_proposals: Sliding-window search (single, multi, dense, class)
//   - objectness_proposals: Threshold a dense objectness map
//   - suppress_proposals: Greedy non-maximum suppression
//
// Evaluation and inspection:
//   - compute_recall: Recall of proposals against ground truth
//   - render_proposals: Draw proposals and ground truth over a frame
//
// Image tools take their input either from image_path or from frame of
// sonar_path. With polar set, a recording frame is scan-converted into its fan
// before use.
//
// # Configuration
//
// Defaults for the search and evaluator come from the config.Config passed to
// New. Per-call "search" and "evaluator" objects override individual fields
// without changing the server's configuration.
//
// # Image Caching
//
// Images loaded by path are cached for the lifetime of the server. Recording
// frames are decoded on every call.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

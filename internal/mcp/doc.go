// Package mcp implements an MCP (Model Context Protocol) server over the
// dental detection controller.
//
// The server speaks JSON-RPC 2.0 over stdio, one message per line:
//   - Input: JSON-RPC requests on stdin
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
// Workflow:
//   - dental_load_image: Load an image file from disk
//   - dental_analyze: Send the loaded image to the prediction service
//
// Selection:
//   - dental_toggle_label: Show or hide one finding
//   - dental_show_all: Show every finding
//   - dental_hide_all: Hide every finding
//
// Output:
//   - dental_state: Current view (status, label list, treatments)
//   - dental_export_canvas: Annotated canvas as base64 PNG
//   - dental_report: Findings and treatments of the current selection
//   - dental_crop_label: Zoomed crop of one finding
//
// The tools drive the same controller as the HTTP API, so a browser
// connected to the websocket sees the changes they make.
//
// # Error Handling
//
// Tool failures (unreadable file, no image loaded, unknown label) are
// JSON-RPC errors with code -32000. Workflow outcomes that the controller
// reports on its status banner, such as a rejected upload or a failed
// prediction, are normal results carrying the view, flagged with isError.
package mcp

package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// protocolVersion is the MCP protocol revision this server speaks.
const protocolVersion = "2024-11-05"

// ServerInfo names the server in the initialize handshake.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Server speaks newline-delimited JSON-RPC over a reader/writer pair
// (normally stdin/stdout, with the host agent runtime on the other end).
type Server struct {
	registry *Registry
	info     ServerInfo
}

// NewServer creates a server exposing the registry's tools.
func NewServer(registry *Registry, info ServerInfo) *Server {
	return &Server{registry: registry, info: info}
}

// Serve reads requests until EOF or context cancellation. Tool handler
// errors become error responses; they never tear down the loop.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			if err := enc.Encode(NewErrorResponse(nil, ErrorCodeParseError, "parse error")); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
			continue
		}

		resp := s.handle(ctx, &req)
		if resp == nil {
			continue // notification, no reply
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}
	return nil
}

// handle dispatches one request. Returns nil for notifications.
func (s *Server) handle(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized", "notifications/cancelled":
		return nil
	case "ping":
		resp, _ := NewResponse(req.ID, map[string]interface{}{})
		return resp
	case "tools/list":
		resp, err := NewResponse(req.ID, ListToolsResult{Tools: s.registry.ListTools()})
		if err != nil {
			return NewErrorResponse(req.ID, ErrorCodeInternalError, err.Error())
		}
		return resp
	case "tools/call":
		return s.handleToolCall(ctx, req)
	default:
		if req.ID == nil {
			return nil // unknown notification, ignore
		}
		return NewErrorResponse(req.ID, ErrorCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (s *Server) handleInitialize(req *Request) *Response {
	result := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": s.info,
	}
	resp, err := NewResponse(req.ID, result)
	if err != nil {
		return NewErrorResponse(req.ID, ErrorCodeInternalError, err.Error())
	}
	return resp
}

func (s *Server) handleToolCall(ctx context.Context, req *Request) *Response {
	var params CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, ErrorCodeInvalidParams, fmt.Sprintf("invalid params: %v", err))
	}
	if params.Name == "" {
		return NewErrorResponse(req.ID, ErrorCodeInvalidParams, "tool name is required")
	}

	result, err := s.registry.CallTool(ctx, params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return NewErrorResponse(req.ID, ErrorCodeInternalError, "cancelled")
		}
		log.Warn().Err(err).Str("tool", params.Name).Msg("tool call failed")
		return NewErrorResponse(req.ID, ErrorCodeInternalError, err.Error())
	}

	resp, err := NewResponse(req.ID, result)
	if err != nil {
		return NewErrorResponse(req.ID, ErrorCodeInternalError, err.Error())
	}
	return resp
}

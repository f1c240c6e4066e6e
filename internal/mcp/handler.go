package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	seekerrors "javaseeker/internal/errors"
)

// handleMessage processes an incoming MCP message and returns a response
func (s *MCPServer) handleMessage(ctx context.Context, msg *MCPMessage) *MCPMessage {
	if msg.Jsonrpc != "2.0" {
		return NewErrorMessage(msg.Id, InvalidRequest, "Invalid message: jsonrpc must be \"2.0\"", nil)
	}
	if msg.IsResponse() {
		s.logger.Debug("Ignoring client response", "id", msg.Id)
		return nil
	}
	if msg.IsRequest() {
		return s.handleRequest(ctx, msg)
	}
	if msg.IsNotification() {
		s.handleNotification(msg)
		return nil
	}
	return NewErrorMessage(msg.Id, InvalidRequest, "Invalid message: not a request or notification", nil)
}

func (s *MCPServer) handleRequest(ctx context.Context, msg *MCPMessage) *MCPMessage {
	s.logger.Debug("Handling request", "method", msg.Method, "id", msg.Id)

	switch msg.Method {
	case "initialize":
		return NewResultMessage(msg.Id, s.handleInitialize(paramsOf(msg)))
	case "ping":
		return NewResultMessage(msg.Id, map[string]any{})
	case "tools/list":
		return NewResultMessage(msg.Id, map[string]any{"tools": s.GetToolDefinitions()})
	case "tools/call":
		params, ok := msg.Params.(map[string]any)
		if !ok {
			return NewErrorMessage(msg.Id, InvalidParams, "Invalid params: expected object", nil)
		}
		result, rpcErr := s.handleCallTool(ctx, params)
		if rpcErr != nil {
			return &MCPMessage{Jsonrpc: "2.0", Id: msg.Id, Error: rpcErr}
		}
		return NewResultMessage(msg.Id, result)
	default:
		return NewErrorMessage(msg.Id, MethodNotFound, fmt.Sprintf("Method not found: %s", msg.Method), nil)
	}
}

func (s *MCPServer) handleNotification(msg *MCPMessage) {
	switch msg.Method {
	case "notifications/initialized":
		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()
		s.logger.Info("Client initialized")
	case "notifications/cancelled":
		s.logger.Debug("Client cancelled a request", "params", msg.Params)
	default:
		s.logger.Debug("Unknown notification", "method", msg.Method)
	}
}

func (s *MCPServer) handleInitialize(params map[string]any) map[string]any {
	if info, ok := params["clientInfo"].(map[string]any); ok {
		if name, ok := info["name"].(string); ok {
			s.mu.Lock()
			s.clientName = name
			s.mu.Unlock()
			s.logger.Info("Client connected", "client", name, "protocolVersion", params["protocolVersion"])
		}
	}

	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		"serverInfo": map[string]any{
			"name":    "javaseeker",
			"version": s.version,
		},
	}
}

// handleCallTool runs a tool. Tool failures are reported inside the result
// with isError set; only protocol problems become JSON-RPC errors.
func (s *MCPServer) handleCallTool(ctx context.Context, params map[string]any) (*ToolResult, *MCPError) {
	name, ok := params["name"].(string)
	if !ok || name == "" {
		return nil, &MCPError{Code: InvalidParams, Message: "Invalid params: name is required"}
	}
	args, ok := params["arguments"].(map[string]any)
	if !ok {
		args = map[string]any{}
	}

	handler, exists := s.tools[name]
	if !exists {
		return nil, &MCPError{Code: InvalidParams, Message: fmt.Sprintf("Unknown tool: %s", name)}
	}

	s.logger.Info("Calling tool", "tool", name)
	out, err := handler(ctx, args)
	if err != nil {
		s.logger.Info("Tool failed", "tool", name, "code", seekerrors.CodeOf(err), "error", err)
		return errorResult(err), nil
	}

	text, err := json.Marshal(out)
	if err != nil {
		return errorResult(seekerrors.NewInternalError("marshal tool result", err)), nil
	}
	return &ToolResult{Content: []Content{{Type: "text", Text: string(text)}}}, nil
}

func errorResult(err error) *ToolResult {
	var se *seekerrors.SeekerError
	if !errors.As(err, &se) {
		se = seekerrors.NewInternalError(err.Error(), nil)
	}
	text, merr := json.Marshal(se)
	if merr != nil {
		text = []byte(err.Error())
	}
	return &ToolResult{Content: []Content{{Type: "text", Text: string(text)}}, IsError: true}
}

func paramsOf(msg *MCPMessage) map[string]any {
	if p, ok := msg.Params.(map[string]any); ok {
		return p
	}
	return map[string]any{}
}

package mcp

// MCPMessage represents a JSON-RPC 2.0 message for MCP
type MCPMessage struct {
	Jsonrpc string    `json:"jsonrpc"`
	Id      any       `json:"id,omitempty"`
	Method  string    `json:"method,omitempty"`
	Params  any       `json:"params,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *MCPError `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC 2.0 error
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *MCPError) Error() string {
	return e.Message
}

// Standard JSON-RPC error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// ProtocolVersion is the MCP revision the server speaks.
const ProtocolVersion = "2024-11-05"

func NewErrorMessage(id any, code int, message string, data any) *MCPMessage {
	return &MCPMessage{
		Jsonrpc: "2.0",
		Id:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

func NewResultMessage(id any, result any) *MCPMessage {
	return &MCPMessage{
		Jsonrpc: "2.0",
		Id:      id,
		Result:  result,
	}
}

// IsRequest checks if the message is a request
func (m *MCPMessage) IsRequest() bool {
	return m.Method != "" && m.Id != nil
}

// IsNotification checks if the message is a notification
func (m *MCPMessage) IsNotification() bool {
	return m.Method != "" && m.Id == nil
}

// IsResponse reports a client reply to a server request. The server sends
// none, so these are logged and dropped.
func (m *MCPMessage) IsResponse() bool {
	return m.Method == "" && m.Id != nil && (m.Result != nil || m.Error != nil)
}

// ToolResult is the tools/call result body.
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content is one block of tool output.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

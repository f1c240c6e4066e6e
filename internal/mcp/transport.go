package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// MaxMessageSize is the maximum size for a single MCP message (1MB).
const MaxMessageSize = 1024 * 1024

// readMessage reads one newline-delimited JSON-RPC message. A line that
// is not valid JSON returns a nil message and a parse error.
func (s *MCPServer) readMessage() (*MCPMessage, error) {
	if s.scanner == nil {
		s.scanner = bufio.NewScanner(s.stdin)
		s.scanner.Buffer(make([]byte, 64*1024), MaxMessageSize)
	}

	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return nil, fmt.Errorf("error reading from stdin: %w", err)
		}
		return nil, io.EOF
	}

	line := s.scanner.Bytes()
	s.logger.Debug("Received message", "raw", string(line))

	var msg MCPMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("error parsing JSON-RPC message: %w", err)
	}
	return &msg, nil
}

// writeMessage writes a JSON-RPC message to the output stream
func (s *MCPServer) writeMessage(msg *MCPMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("error marshaling JSON-RPC message: %w", err)
	}

	s.logger.Debug("Sending message", "raw", string(data))

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := fmt.Fprintf(s.stdout, "%s\n", data); err != nil {
		return fmt.Errorf("error writing to stdout: %w", err)
	}
	return nil
}

// Package mcp serves the analysis tools over the Model Context Protocol on
// stdin/stdout.
package mcp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"javaseeker/internal/analysis"
	"javaseeker/internal/projects"
)

// Analyzer runs analysis requests.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// Projects lists the configured projects.
type Projects interface {
	Get(name string) (projects.Descriptor, bool)
	List() []projects.Descriptor
}

// MCPServer represents the MCP server
type MCPServer struct {
	stdin   io.Reader
	stdout  io.Writer
	scanner *bufio.Scanner
	writeMu sync.Mutex
	logger  *slog.Logger
	version string

	analyzer Analyzer
	projects Projects
	tools    map[string]ToolHandler

	mu          sync.RWMutex
	initialized bool
	clientName  string
}

// NewMCPServer creates a server on os.Stdin and os.Stdout.
func NewMCPServer(version string, analyzer Analyzer, store Projects, logger *slog.Logger) *MCPServer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	server := &MCPServer{
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		logger:   logger,
		version:  version,
		analyzer: analyzer,
		projects: store,
		tools:    make(map[string]ToolHandler),
	}
	server.RegisterTools()
	return server
}

// Start processes messages until stdin is closed or ctx is done. Tool calls
// run with ctx, so cancelling it also stops a running analysis.
func (s *MCPServer) Start(ctx context.Context) error {
	s.logger.Info("MCP server starting", "version", s.version, "tools", len(s.tools))

	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("MCP server shutting down", "reason", err)
			return nil
		}

		msg, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("MCP server shutting down (EOF)")
				return nil
			}
			if msg == nil && s.scanner.Err() == nil {
				// the line was read but is not JSON
				s.logger.Warn("Discarding malformed message", "error", err)
				if werr := s.writeMessage(NewErrorMessage(nil, ParseError, err.Error(), nil)); werr != nil {
					return werr
				}
				continue
			}
			return err
		}

		if response := s.handleMessage(ctx, msg); response != nil {
			if err := s.writeMessage(response); err != nil {
				s.logger.Error("Error writing response", "error", err)
				return err
			}
		}
	}
}

// SetStdin sets the input stream (for testing)
func (s *MCPServer) SetStdin(r io.Reader) {
	s.stdin = r
	s.scanner = nil
}

// SetStdout sets the output stream (for testing)
func (s *MCPServer) SetStdout(w io.Writer) {
	s.stdout = w
}

// Initialized reports whether the client has completed the handshake.
func (s *MCPServer) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

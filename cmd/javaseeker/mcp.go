package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"javaseeker/internal/mcp"
	"javaseeker/internal/metrics"
	"javaseeker/internal/slogutil"
	"javaseeker/internal/version"
)

var mcpNoLifecycle bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: `Start the Model Context Protocol (MCP) server.

The server speaks JSON-RPC 2.0 over stdin/stdout and exposes these tools:
  - analyzeJavaCodeReferences: references to and from a class or method
  - listProjects: configured projects and their lifecycle status
  - getProjectStatus: status of one project

The lifecycle engine runs alongside so projects become ready while the
server is up; --no-lifecycle serves the projects as they are. Logs go to
<base>/logs/mcp.log only, since stdout carries the protocol.

This command is typically launched by an MCP client.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().BoolVar(&mcpNoLifecycle, "no-lifecycle", false, "Do not run the sync and build loop")
}

func runMCP(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	factory := slogutil.NewLoggerFactory(e.base, e.cfg, cliLevel(), nil)
	defer factory.Close()
	logger := factory.Logger("mcp")

	m := metrics.New()
	store, err := e.openProjects(logger)
	if err != nil {
		return err
	}
	analyzer, err := e.newAnalyzer(store, m, logger)
	if err != nil {
		return err
	}
	server := mcp.NewMCPServer(version.Version, analyzer, store, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if !mcpNoLifecycle {
		history, err := e.openHistory(logger)
		if err != nil {
			logger.Warn("Run history unavailable", "error", err)
		} else {
			defer history.Close()
		}
		orch := e.newOrchestrator(store, history, m, logger)
		g.Go(func() error {
			return orch.Run(gctx)
		})
	}
	g.Go(func() error {
		// EOF on stdin ends the session and with it the lifecycle loop
		defer cancel()
		return server.Start(gctx)
	})
	return g.Wait()
}

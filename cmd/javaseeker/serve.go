package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"javaseeker/internal/api"
	"javaseeker/internal/metrics"
	"javaseeker/internal/slogutil"
	"javaseeker/internal/version"
	"javaseeker/internal/watcher"
)

var (
	serveAddr      string
	serveNoWatcher bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the lifecycle engine and the HTTP API",
	Long: `Run the lifecycle orchestrator, the HTTP API and the descriptor file watcher
until interrupted.

The orchestrator syncs and builds every configured project in the background.
The HTTP API serves project status, run history, Prometheus metrics and
reference analysis (POST /v1/analyze, POST /v1/analyze/stream).

Examples:
  javaseeker serve
  javaseeker serve --addr 0.0.0.0:8090 -v`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default from settings)")
	serveCmd.Flags().BoolVar(&serveNoWatcher, "no-watch", false, "Do not watch the descriptor file for changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	factory := slogutil.NewLoggerFactory(e.base, e.cfg, cliLevel(), os.Stderr)
	defer factory.Close()
	logger := factory.Logger("lifecycle")

	m := metrics.New()
	store, err := e.openProjects(logger)
	if err != nil {
		return err
	}
	history, err := e.openHistory(logger)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer history.Close()

	orch := e.newOrchestrator(store, history, m, logger)
	analyzer, err := e.newAnalyzer(store, m, factory.Logger("analysis"))
	if err != nil {
		return err
	}

	addr := e.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	server := api.NewServer(api.Options{
		Addr:              addr,
		Version:           version.Version,
		Analyzer:          analyzer,
		Projects:          store,
		History:           history,
		Metrics:           m,
		Logger:            factory.Logger("api"),
		Ready:             orch.Ready,
		RequestsPerSecond: e.cfg.Server.RequestsPerSecond,
		Burst:             e.cfg.Server.Burst,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return orch.Run(gctx)
	})
	g.Go(func() error {
		return server.Run(gctx, e.cfg.Lifecycle.ShutdownGrace())
	})
	if e.cfg.Watcher.Enabled && !serveNoWatcher {
		w := watcher.New(store.Path(), time.Duration(e.cfg.Watcher.DebounceMs)*time.Millisecond,
			factory.Logger("watcher"), func(string, []watcher.Event) { orch.RequestReload() })
		g.Go(func() error {
			// a failed watch leaves the periodic mtime check in charge
			if err := w.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Descriptor watcher stopped", "error", err)
			}
			return nil
		})
	}

	fmt.Fprintf(os.Stderr, "javaseeker %s serving on http://%s (projects: %s)\n", version.Info(), addr, store.Path())
	err = g.Wait()
	logger.Info("Shutdown complete")
	return err
}

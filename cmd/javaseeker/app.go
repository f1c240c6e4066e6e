package main

import (
	"fmt"
	"log/slog"

	"javaseeker/internal/analysis"
	"javaseeker/internal/build"
	"javaseeker/internal/javamodel"
	"javaseeker/internal/jobs"
	"javaseeker/internal/lifecycle"
	"javaseeker/internal/metrics"
	"javaseeker/internal/paths"
	"javaseeker/internal/projects"
	"javaseeker/internal/source"
)

// openProjects loads the descriptor file named by the settings. Relative
// descriptor and cache paths are resolved against the working directory.
func (e *env) openProjects(logger *slog.Logger) (*projects.Store, error) {
	file, err := paths.Absolute(e.cfg.ProjectsFile, "")
	if err != nil {
		return nil, err
	}
	cacheRoot, err := paths.Absolute(e.cfg.CacheRoot, "")
	if err != nil {
		return nil, err
	}
	store := projects.NewStore(file, cacheRoot, logger)
	store.SetDefaultBranch(e.cfg.Git.DefaultBranch)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("load project descriptors: %w", err)
	}
	return store, nil
}

func (e *env) openHistory(logger *slog.Logger) (*jobs.Store, error) {
	return jobs.OpenStore(e.base, logger)
}

func (e *env) buildLogs() *build.LogArchive {
	return build.NewLogArchive(e.base, e.cfg.Build.KeepArchives)
}

// newAnalyzer wires the model builder and reference walker from the
// analysis settings.
func (e *env) newAnalyzer(store *projects.Store, m *metrics.Metrics, logger *slog.Logger) (*analysis.Service, error) {
	a := e.cfg.Analysis
	archives, err := javamodel.NewArchiveIndex(a.ArchiveCacheSize)
	if err != nil {
		return nil, err
	}
	builder := &javamodel.Builder{
		Archives:         archives,
		PlatformPrefixes: a.PlatformPrefixes,
		Workers:          a.ParseWorkers,
		RespectGitignore: a.RespectGitignore,
		Logger:           logger,
	}
	walker := &analysis.Walker{
		Classifier:      analysis.Classifier{PlatformPrefixes: a.PlatformPrefixes},
		MaxContext:      a.MaxContextChars,
		FallbackContext: a.ContextFallbackChars,
	}
	return analysis.NewService(analysis.Options{
		Projects:         store,
		Builder:          builder,
		Walker:           walker,
		AllowNoBuildFile: a.AllowNoBuildFile,
		Metrics:          m,
		Logger:           logger,
	}), nil
}

// newOrchestrator wires the lifecycle engine. history may be nil.
func (e *env) newOrchestrator(store *projects.Store, history *jobs.Store, m *metrics.Metrics, logger *slog.Logger) *lifecycle.Orchestrator {
	var archive *build.LogArchive
	if e.cfg.Build.ArchiveLogs {
		archive = e.buildLogs()
	}
	invoker := build.NewInvoker(e.cfg.Build.Timeout(), e.cfg.Build.LogHeadBytes, archive, logger)

	runner := jobs.NewRunner(history, logger, jobs.RunnerConfig{
		QueueSize:     e.cfg.Lifecycle.QueueSize,
		InFlightGuard: e.cfg.Lifecycle.InFlightGuard,
	})

	return lifecycle.New(lifecycle.Options{
		Store:   store,
		Sources: source.NewSources(source.NewGit(e.cfg.Git.Binary), logger),
		Builder: invoker,
		Runner:  runner,
		History: history,
		Metrics: m,
		Logger:  logger,
	}, lifecycle.Config{
		PollInterval:        e.cfg.Lifecycle.PollInterval(),
		InitialDelay:        e.cfg.Lifecycle.InitialDelay(),
		ConfigCheckInterval: e.cfg.Lifecycle.ConfigCheckInterval(),
		ShutdownGrace:       e.cfg.Lifecycle.ShutdownGrace(),
		HistoryRetention:    e.cfg.History.Retention(),
	})
}

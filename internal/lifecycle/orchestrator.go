// Package lifecycle drives configured projects through sync, build and ready.
//
// A poll loop submits one job per project with work due; the jobs runner
// executes them one at a time, so two projects never sync or build together.
// A second loop checks the descriptor file for changes.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"javaseeker/internal/build"
	"javaseeker/internal/jobs"
	"javaseeker/internal/metrics"
	"javaseeker/internal/projects"
	"javaseeker/internal/source"
)

// Config holds the loop intervals.
type Config struct {
	PollInterval        time.Duration
	InitialDelay        time.Duration
	ConfigCheckInterval time.Duration
	ShutdownGrace       time.Duration
	// HistoryRetention prunes finished history rows older than this; zero
	// keeps everything.
	HistoryRetention time.Duration
}

// DefaultConfig returns the default loop intervals.
func DefaultConfig() Config {
	return Config{
		PollInterval:        10 * time.Second,
		InitialDelay:        7 * time.Second,
		ConfigCheckInterval: 5 * time.Second,
		ShutdownGrace:       30 * time.Second,
	}
}

// Builder compiles a project directory.
type Builder interface {
	Build(ctx context.Context, project, dir string) build.Result
}

// Orchestrator owns the poll loop and the lifecycle job handler.
type Orchestrator struct {
	store   *projects.Store
	sources *source.Sources
	builder Builder
	runner  *jobs.Runner
	history *jobs.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	cfg     Config

	reload chan struct{}
}

// Options are the collaborators of an Orchestrator. History and Metrics may
// be nil.
type Options struct {
	Store   *projects.Store
	Sources *source.Sources
	Builder Builder
	Runner  *jobs.Runner
	History *jobs.Store
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// New wires an orchestrator and registers its handler on the runner.
func New(opts Options, cfg Config) *Orchestrator {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.ConfigCheckInterval <= 0 {
		cfg.ConfigCheckInterval = def.ConfigCheckInterval
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = def.ShutdownGrace
	}
	if cfg.InitialDelay < 0 {
		cfg.InitialDelay = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	o := &Orchestrator{
		store:   opts.Store,
		sources: opts.Sources,
		builder: opts.Builder,
		runner:  opts.Runner,
		history: opts.History,
		metrics: opts.Metrics,
		logger:  logger,
		cfg:     cfg,
		reload:  make(chan struct{}, 1),
	}
	o.runner.RegisterHandler(jobs.JobTypeProjectLifecycle, o.handle)
	o.store.SetObserver(func(_ string, from, to projects.Status) {
		o.metrics.StatusTransition(string(from), string(to))
	})
	return o
}

// RequestReload asks the config loop to check the descriptor file now.
// Calls made while a check is pending are coalesced.
func (o *Orchestrator) RequestReload() {
	select {
	case o.reload <- struct{}{}:
	default:
	}
}

// Ready reports an error until Run has started the worker, and again once
// shutdown has stopped it.
func (o *Orchestrator) Ready() error {
	if !o.runner.IsRunning() {
		return errors.New("lifecycle worker is not running")
	}
	return nil
}

// Run starts the worker, waits the initial delay and then polls until ctx is
// done. On return the worker has been given the shutdown grace period to
// finish its current job.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.history != nil {
		if n, err := o.history.AbandonUnfinished(); err != nil {
			o.logger.Warn("Failed to close out interrupted runs", "error", err)
		} else if n > 0 {
			o.logger.Info("Marked interrupted runs as cancelled", "count", n)
		}
	}

	o.runner.Start()
	o.logger.Info("Lifecycle orchestrator started",
		"pollInterval", o.cfg.PollInterval,
		"initialDelay", o.cfg.InitialDelay,
		"configCheckInterval", o.cfg.ConfigCheckInterval,
	)

	err := o.loop(ctx)

	o.logger.Info("Lifecycle orchestrator stopping", "grace", o.cfg.ShutdownGrace)
	if stopErr := o.runner.Stop(o.cfg.ShutdownGrace); stopErr != nil {
		o.logger.Warn("Worker did not stop cleanly", "error", stopErr)
	}
	return err
}

func (o *Orchestrator) loop(ctx context.Context) error {
	delay := time.NewTimer(o.cfg.InitialDelay)
	defer delay.Stop()

	configTicker := time.NewTicker(o.cfg.ConfigCheckInterval)
	defer configTicker.Stop()

	var pollC <-chan time.Time
	var pollTicker *time.Ticker
	defer func() {
		if pollTicker != nil {
			pollTicker.Stop()
		}
	}()

	var pruneC <-chan time.Time
	if o.history != nil && o.cfg.HistoryRetention > 0 {
		pruneTicker := time.NewTicker(time.Hour)
		defer pruneTicker.Stop()
		pruneC = pruneTicker.C
		o.prune()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-delay.C:
			o.Tick(jobs.TriggerPoll)
			pollTicker = time.NewTicker(o.cfg.PollInterval)
			pollC = pollTicker.C
		case <-pollC:
			o.Tick(jobs.TriggerPoll)
		case <-configTicker.C:
			o.CheckConfig()
		case <-o.reload:
			o.CheckConfig()
		case <-pruneC:
			o.prune()
		}
	}
}

// CheckConfig reloads the descriptor file when it changed on disk. A parse
// error leaves the previous projects in place.
func (o *Orchestrator) CheckConfig() {
	reloaded, err := o.store.CheckAndReload()
	if err != nil {
		o.metrics.ConfigReload(false)
		o.logger.Error("Failed to reload project descriptors", "path", o.store.Path(), "error", err)
		return
	}
	if reloaded {
		o.metrics.ConfigReload(true)
		o.logger.Info("Project descriptors reloaded", "projects", len(o.store.List()))
	}
}

// Tick submits a lifecycle job for every project with work due and returns
// how many were accepted.
func (o *Orchestrator) Tick(trigger jobs.Trigger) int {
	descriptors := o.store.List()
	counts := make(map[string]int)
	submitted := 0

	for _, d := range descriptors {
		counts[string(d.Status)]++

		src, err := o.sources.For(d.SourceKind)
		if err != nil {
			o.logger.Error("No source for project", "project", d.Name, "error", err)
			continue
		}
		if !src.Due(d) {
			continue
		}
		if err := o.Submit(d.Name, trigger); err != nil {
			continue
		}
		submitted++
	}

	o.metrics.ProjectCounts(counts)
	if submitted > 0 {
		o.logger.Debug("Poll tick", "projects", len(descriptors), "submitted", submitted)
	}
	return submitted
}

// Submit queues one lifecycle job for the named project.
func (o *Orchestrator) Submit(name string, trigger jobs.Trigger) error {
	err := o.runner.Submit(jobs.NewJob(jobs.JobTypeProjectLifecycle, name, trigger))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jobs.ErrAlreadyQueued):
		o.metrics.QueueRejected("in_flight")
		o.logger.Debug("Project already in flight, skipping", "project", name)
	case errors.Is(err, jobs.ErrQueueFull):
		o.metrics.QueueRejected("queue_full")
		o.logger.Warn("Lifecycle queue full", "project", name)
	default:
		o.metrics.QueueRejected("stopped")
	}
	return err
}

// handle adapts ProcessProject to the runner. A failed status is reported as
// a failed job so the run history shows it.
func (o *Orchestrator) handle(ctx context.Context, job *jobs.Job) (string, any, error) {
	outcome := o.ProcessProject(ctx, job.Project)
	return string(outcome.Status), outcome, outcome.Err
}

// Outcome is the result of processing one project.
type Outcome struct {
	Project string          `json:"project"`
	From    projects.Status `json:"from"`
	Status  projects.Status `json:"status"`
	Synced  bool            `json:"synced,omitempty"`
	Build   *BuildSummary   `json:"build,omitempty"`
	Err     error           `json:"-"`
}

// BuildSummary is the part of a build result kept in the run history.
type BuildSummary struct {
	Tool        string  `json:"tool,omitempty"`
	ExitCode    int     `json:"exitCode"`
	DurationSec float64 `json:"durationSec"`
	ArchivePath string  `json:"archivePath,omitempty"`
	OutputHead  string  `json:"outputHead,omitempty"`
}

// ProcessProject runs one sync and build cycle for a project. Failures are
// recorded as project status; a panic becomes FAILED_UNEXPECTED_ERROR and
// never escapes.
func (o *Orchestrator) ProcessProject(ctx context.Context, name string) (out Outcome) {
	out.Project = name
	logger := o.logger.With("project", name)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Unexpected error processing project", "panic", rec, "stack", string(debug.Stack()))
			out.Err = fmt.Errorf("unexpected error: %v", rec)
			out.Status = projects.StatusFailedUnexpectedError
			o.setStatus(name, out.Status)
		}
	}()

	d, ok := o.store.Get(name)
	if !ok {
		out.Err = fmt.Errorf("%w: %s", projects.ErrNotFound, name)
		logger.Info("Project removed before processing")
		return out
	}
	out.From = d.Status
	out.Status = d.Status

	src, err := o.sources.For(d.SourceKind)
	if err != nil {
		return o.unexpected(logger, out, err)
	}

	next, err := src.Acquire(ctx, d, func(st projects.Status) {
		o.setStatus(name, st)
	})
	if next != d.Status || d.Status.NeedsSync() {
		out.Synced = d.SourceKind == projects.SourceGit && next == projects.StatusCompiling
		o.metrics.SyncFinished(string(d.SourceKind), string(next))
	}
	if !o.setStatus(name, next) {
		out.Status = o.currentStatus(name, d.Status)
		return out
	}
	out.Status = next
	if err != nil {
		logger.Warn("Source acquisition failed", "status", next, "error", err)
		out.Err = err
		return out
	}

	// re-read: a reload may have replaced the descriptor meanwhile
	d, ok = o.store.Get(name)
	if !ok || d.Status != projects.StatusCompiling {
		if ok {
			out.Status = d.Status
		}
		return out
	}

	res := o.builder.Build(ctx, name, d.WorkDir())
	o.metrics.BuildFinished(string(res.Plan.Tool), string(res.Status), res.Duration)
	if res.Plan.Tool != "" {
		out.Build = &BuildSummary{
			Tool:        string(res.Plan.Tool),
			ExitCode:    res.ExitCode,
			DurationSec: res.Duration.Seconds(),
			ArchivePath: res.ArchivePath,
		}
		if res.Status != projects.StatusReady {
			out.Build.OutputHead = res.OutputHead
		}
	}
	o.setStatus(name, res.Status)
	out.Status = o.currentStatus(name, res.Status)
	out.Err = res.Err
	return out
}

func (o *Orchestrator) unexpected(logger *slog.Logger, out Outcome, err error) Outcome {
	logger.Error("Unexpected error processing project", "error", err)
	out.Err = err
	out.Status = projects.StatusFailedUnexpectedError
	o.setStatus(out.Project, out.Status)
	return out
}

// setStatus applies a status and reports whether it stuck. A project that
// disappeared in a reload is not an error.
func (o *Orchestrator) setStatus(name string, st projects.Status) bool {
	if err := o.store.SetStatus(name, st); err != nil {
		if !errors.Is(err, projects.ErrNotFound) {
			o.logger.Warn("Failed to update project status", "project", name, "status", st, "error", err)
		}
		return false
	}
	return true
}

func (o *Orchestrator) currentStatus(name string, fallback projects.Status) projects.Status {
	if d, ok := o.store.Get(name); ok {
		return d.Status
	}
	return fallback
}

func (o *Orchestrator) prune() {
	n, err := o.history.CleanupOldJobs(o.cfg.HistoryRetention)
	if err != nil {
		o.logger.Warn("Failed to prune run history", "error", err)
		return
	}
	if n > 0 {
		o.logger.Info("Pruned run history", "removed", n)
	}
}

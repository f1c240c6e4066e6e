package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrAlreadyQueued is returned by Submit when the in-flight guard finds
	// a queued or running job for the same project.
	ErrAlreadyQueued = errors.New("project already has a queued or running job")
	// ErrQueueFull is returned when the queue has no room.
	ErrQueueFull = errors.New("job queue full")
	// ErrStopped is returned once Stop has been called.
	ErrStopped = errors.New("runner is shutting down")
)

// Handler executes one job and returns the project status it left behind
// plus an optional JSON-encodable detail.
type Handler func(ctx context.Context, job *Job) (projectStatus string, detail any, err error)

// Runner executes jobs on a single worker, strictly one at a time.
type Runner struct {
	store    *Store
	logger   *slog.Logger
	handlers map[JobType]Handler

	queue     chan *Job
	queueSize int
	guard     bool

	baseCtx   context.Context
	cancelAll context.CancelFunc
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	started   atomic.Bool

	mu       sync.Mutex
	inFlight map[string]int
	running  *Job

	processedCount atomic.Int64
	failedCount    atomic.Int64
	rejectedCount  atomic.Int64
}

// RunnerConfig contains configuration for the job runner.
type RunnerConfig struct {
	QueueSize int
	// InFlightGuard rejects a submission while the same project already
	// has a queued or running job.
	InFlightGuard bool
}

// DefaultRunnerConfig returns the default runner configuration.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		QueueSize:     100,
		InFlightGuard: true,
	}
}

// NewRunner creates a new job runner. store may be nil to run without history.
func NewRunner(store *Store, logger *slog.Logger, config RunnerConfig) *Runner {
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		store:     store,
		logger:    logger,
		handlers:  make(map[JobType]Handler),
		queue:     make(chan *Job, config.QueueSize),
		queueSize: config.QueueSize,
		guard:     config.InFlightGuard,
		baseCtx:   ctx,
		cancelAll: cancel,
		done:      make(chan struct{}),
		inFlight:  make(map[string]int),
	}
}

// RegisterHandler registers a handler for a job type.
func (r *Runner) RegisterHandler(jobType JobType, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = handler
	r.logger.Debug("Registered job handler", "type", jobType)
}

// Start launches the worker.
func (r *Runner) Start() {
	r.logger.Info("Starting job runner", "queueSize", r.queueSize, "inFlightGuard", r.guard)
	r.started.Store(true)
	r.wg.Add(1)
	go r.worker()
}

// Submit enqueues a job without blocking.
func (r *Runner) Submit(job *Job) error {
	select {
	case <-r.done:
		return ErrStopped
	default:
	}

	r.mu.Lock()
	if r.guard && r.inFlight[job.Project] > 0 {
		r.mu.Unlock()
		r.rejectedCount.Add(1)
		return fmt.Errorf("%w: %s", ErrAlreadyQueued, job.Project)
	}
	r.inFlight[job.Project]++
	r.mu.Unlock()

	r.persist(job, true)

	select {
	case r.queue <- job:
		r.logger.Debug("Job queued", "jobId", job.ID, "project", job.Project)
		return nil
	default:
		r.release(job)
		r.rejectedCount.Add(1)
		job.MarkCancelled("queue full")
		r.persist(job, false)
		r.logger.Warn("Job queue full, dropping job", "jobId", job.ID, "project", job.Project)
		return ErrQueueFull
	}
}

// Stop stops accepting work, lets the running job finish within grace and
// then cancels it. Jobs still queued are marked cancelled.
func (r *Runner) Stop(grace time.Duration) error {
	r.stopOnce.Do(func() {
		r.logger.Info("Stopping job runner", "grace", grace)
		close(r.done)
	})

	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		r.cancelAll()
		r.logger.Info("Job runner stopped cleanly")
		return nil
	case <-time.After(grace):
	}

	r.logger.Warn("Grace period over, cancelling running job")
	r.cancelAll()

	select {
	case <-finished:
		return fmt.Errorf("job runner cancelled running work after %v", grace)
	case <-time.After(10 * time.Second):
		return fmt.Errorf("job runner shutdown timed out after %v", grace)
	}
}

// InFlight reports whether project has a queued or running job.
func (r *Runner) InFlight(project string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight[project] > 0
}

// Stats is a snapshot of runner counters.
type Stats struct {
	QueueLength    int    `json:"queueLength"`
	QueueCapacity  int    `json:"queueCapacity"`
	RunningProject string `json:"runningProject,omitempty"`
	ProcessedTotal int64  `json:"processedTotal"`
	FailedTotal    int64  `json:"failedTotal"`
	RejectedTotal  int64  `json:"rejectedTotal"`
}

// Stats returns runner statistics.
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	running := ""
	if r.running != nil {
		running = r.running.Project
	}
	r.mu.Unlock()

	return Stats{
		QueueLength:    len(r.queue),
		QueueCapacity:  r.queueSize,
		RunningProject: running,
		ProcessedTotal: r.processedCount.Load(),
		FailedTotal:    r.failedCount.Load(),
		RejectedTotal:  r.rejectedCount.Load(),
	}
}

// IsRunning reports whether Start was called and Stop was not.
func (r *Runner) IsRunning() bool {
	if !r.started.Load() {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()

	for {
		// stop takes priority over queued work
		select {
		case <-r.done:
			r.drain()
			return
		default:
		}

		select {
		case <-r.done:
			r.drain()
			return
		case job := <-r.queue:
			r.processJob(job)
		}
	}
}

func (r *Runner) drain() {
	for {
		select {
		case job := <-r.queue:
			job.MarkCancelled("runner stopped before job started")
			r.persist(job, false)
			r.release(job)
		default:
			return
		}
	}
}

func (r *Runner) processJob(job *Job) {
	defer r.release(job)

	r.mu.Lock()
	handler, ok := r.handlers[job.Type]
	r.running = job
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = nil
		r.mu.Unlock()
	}()

	if !ok {
		r.logger.Error("No handler for job type", "jobId", job.ID, "type", job.Type)
		job.MarkFailed("", fmt.Errorf("no handler for job type: %s", job.Type))
		r.persist(job, false)
		return
	}

	ctx, cancel := context.WithCancel(r.baseCtx)
	defer cancel()

	job.MarkStarted()
	r.persist(job, false)
	r.logger.Debug("Processing job", "jobId", job.ID, "project", job.Project)

	projectStatus, detail, err := runHandler(ctx, handler, job)

	failed := false
	switch {
	case err != nil && ctx.Err() != nil:
		job.MarkCancelled(err.Error())
		job.ProjectStatus = projectStatus
		r.logger.Info("Job cancelled", "jobId", job.ID, "project", job.Project)
	case err != nil:
		job.MarkFailed(projectStatus, err)
		if derr := job.SetDetail(detail); derr != nil {
			r.logger.Debug("Job detail not recorded", "jobId", job.ID, "error", derr)
		}
		failed = true
		r.logger.Warn("Job failed", "jobId", job.ID, "project", job.Project, "error", err, "duration", job.Duration())
	default:
		if merr := job.MarkCompleted(projectStatus, detail); merr != nil {
			job.MarkFailed(projectStatus, merr)
			failed = true
		} else {
			r.logger.Debug("Job completed", "jobId", job.ID, "project", job.Project, "duration", job.Duration())
		}
	}

	// counters move only after the history row is final
	r.persist(job, false)
	if failed {
		r.failedCount.Add(1)
	} else if job.Status == JobCompleted {
		r.processedCount.Add(1)
	}
}

// runHandler turns a handler panic into an error so the worker survives.
func runHandler(ctx context.Context, h Handler, job *Job) (status string, detail any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in job handler: %v", rec)
		}
	}()
	return h(ctx, job)
}

func (r *Runner) release(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[job.Project] <= 1 {
		delete(r.inFlight, job.Project)
	} else {
		r.inFlight[job.Project]--
	}
}

func (r *Runner) persist(job *Job, create bool) {
	if r.store == nil {
		return
	}
	var err error
	if create {
		err = r.store.CreateJob(job)
	} else {
		err = r.store.UpdateJob(job)
	}
	if err != nil {
		r.logger.Warn("Failed to record job", "jobId", job.ID, "error", err)
	}
}

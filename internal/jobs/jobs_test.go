package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewJob(t *testing.T) {
	job := NewJob(JobTypeProjectLifecycle, "app", TriggerPoll)
	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}
	if job.Type != JobTypeProjectLifecycle {
		t.Errorf("Type = %v, want %v", job.Type, JobTypeProjectLifecycle)
	}
	if job.Project != "app" {
		t.Errorf("Project = %q, want app", job.Project)
	}
	if job.Status != JobQueued {
		t.Errorf("Status = %v, want %v", job.Status, JobQueued)
	}
	if other := NewJob(JobTypeProjectLifecycle, "app", TriggerPoll); other.ID == job.ID {
		t.Error("job IDs should be unique")
	}
}

func TestJobIsTerminal(t *testing.T) {
	tests := []struct {
		status   JobStatus
		terminal bool
	}{
		{JobQueued, false},
		{JobRunning, false},
		{JobCompleted, true},
		{JobFailed, true},
		{JobCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			job := &Job{Status: tt.status}
			if got := job.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}

func TestJobTransitions(t *testing.T) {
	job := NewJob(JobTypeProjectLifecycle, "app", TriggerManual)
	job.MarkStarted()
	if job.Status != JobRunning || job.StartedAt == nil {
		t.Fatalf("MarkStarted: status=%v startedAt=%v", job.Status, job.StartedAt)
	}

	if err := job.MarkCompleted("READY", map[string]int{"exitCode": 0}); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	if job.Status != JobCompleted || job.ProjectStatus != "READY" {
		t.Errorf("MarkCompleted: status=%v projectStatus=%v", job.Status, job.ProjectStatus)
	}
	if job.Detail != `{"exitCode":0}` {
		t.Errorf("Detail = %q", job.Detail)
	}
	if job.Duration() < 0 {
		t.Error("Duration should not be negative")
	}

	failed := NewJob(JobTypeProjectLifecycle, "app", TriggerPoll)
	failed.MarkFailed("FAILED_UNEXPECTED_ERROR", errors.New("boom"))
	if failed.Status != JobFailed || failed.Error != "boom" {
		t.Errorf("MarkFailed: status=%v error=%q", failed.Status, failed.Error)
	}

	cancelled := NewJob(JobTypeProjectLifecycle, "app", TriggerPoll)
	cancelled.MarkCancelled("stopped")
	if cancelled.Status != JobCancelled || cancelled.CompletedAt == nil {
		t.Errorf("MarkCancelled: status=%v", cancelled.Status)
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)

	job := NewJob(JobTypeProjectLifecycle, "app", TriggerReload)
	if err := store.CreateJob(job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	job.MarkStarted()
	if err := job.MarkCompleted("READY", nil); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateJob(job); err != nil {
		t.Fatalf("UpdateJob() error = %v", err)
	}

	got, err := store.GetJob(job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetJob() returned nil")
	}
	if got.Project != "app" || got.Trigger != TriggerReload || got.Status != JobCompleted || got.ProjectStatus != "READY" {
		t.Errorf("GetJob() = %+v", got)
	}
	if got.StartedAt == nil || got.CompletedAt == nil {
		t.Error("timestamps should survive the round trip")
	}

	missing, err := store.GetJob("nope")
	if err != nil || missing != nil {
		t.Errorf("GetJob(missing) = %v, %v", missing, err)
	}

	if err := store.UpdateJob(&Job{ID: "nope"}); err == nil {
		t.Error("UpdateJob() of unknown job should fail")
	}
}

func TestStoreListJobs(t *testing.T) {
	store := openTestStore(t)

	for i, project := range []string{"a", "b", "a", "a"} {
		job := NewJob(JobTypeProjectLifecycle, project, TriggerPoll)
		job.CreatedAt = job.CreatedAt.Add(time.Duration(i) * time.Second)
		if i == 0 {
			job.MarkFailed("FAILED_BUILD", errors.New("exit 1"))
		}
		if err := store.CreateJob(job); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.ListJobs(ListJobsOptions{})
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if all.TotalCount != 4 || len(all.Jobs) != 4 {
		t.Fatalf("ListJobs() = %d/%d, want 4", len(all.Jobs), all.TotalCount)
	}
	for i := 1; i < len(all.Jobs); i++ {
		if all.Jobs[i].CreatedAt.After(all.Jobs[i-1].CreatedAt) {
			t.Error("jobs should be listed newest first")
		}
	}

	onlyA, _ := store.ListJobs(ListJobsOptions{Project: "a", Limit: 2})
	if onlyA.TotalCount != 3 || len(onlyA.Jobs) != 2 {
		t.Errorf("ListJobs(project=a, limit=2) = %d/%d", len(onlyA.Jobs), onlyA.TotalCount)
	}

	failed, _ := store.ListJobs(ListJobsOptions{Status: []JobStatus{JobFailed}})
	if failed.TotalCount != 1 || failed.Jobs[0].ProjectStatus != "FAILED_BUILD" {
		t.Errorf("ListJobs(status=failed) = %+v", failed)
	}
}

func TestStoreAbandonAndCleanup(t *testing.T) {
	store := openTestStore(t)

	queued := NewJob(JobTypeProjectLifecycle, "a", TriggerPoll)
	running := NewJob(JobTypeProjectLifecycle, "b", TriggerPoll)
	running.MarkStarted()
	old := NewJob(JobTypeProjectLifecycle, "c", TriggerPoll)
	old.MarkCancelled("old")
	past := time.Now().UTC().Add(-48 * time.Hour)
	old.CompletedAt = &past

	for _, j := range []*Job{queued, running, old} {
		if err := store.CreateJob(j); err != nil {
			t.Fatal(err)
		}
	}

	n, err := store.AbandonUnfinished()
	if err != nil || n != 2 {
		t.Fatalf("AbandonUnfinished() = %d, %v; want 2", n, err)
	}
	got, _ := store.GetJob(running.ID)
	if got.Status != JobCancelled {
		t.Errorf("running job status = %v, want cancelled", got.Status)
	}

	removed, err := store.CleanupOldJobs(24 * time.Hour)
	if err != nil || removed != 1 {
		t.Errorf("CleanupOldJobs() = %d, %v; want 1", removed, err)
	}
}

func newTestRunner(t *testing.T, cfg RunnerConfig, h Handler) (*Runner, *Store) {
	t.Helper()
	store := openTestStore(t)
	r := NewRunner(store, nil, cfg)
	r.RegisterHandler(JobTypeProjectLifecycle, h)
	r.Start()
	t.Cleanup(func() { _ = r.Stop(time.Second) })
	return r, store
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRunnerProcessesSequentially(t *testing.T) {
	var mu sync.Mutex
	active, maxActive := 0, 0
	var order []string

	r, store := newTestRunner(t, DefaultRunnerConfig(), func(ctx context.Context, job *Job) (string, any, error) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		order = append(order, job.Project)
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return "READY", nil, nil
	})

	for _, p := range []string{"a", "b", "c"} {
		if err := r.Submit(NewJob(JobTypeProjectLifecycle, p, TriggerPoll)); err != nil {
			t.Fatalf("Submit(%s) error = %v", p, err)
		}
	}

	waitFor(t, func() bool { return r.Stats().ProcessedTotal == 3 })

	mu.Lock()
	defer mu.Unlock()
	if maxActive != 1 {
		t.Errorf("max concurrent jobs = %d, want 1", maxActive)
	}
	if len(order) != 3 || order[0] != "a" || order[2] != "c" {
		t.Errorf("order = %v, want submission order", order)
	}

	done, _ := store.ListJobs(ListJobsOptions{Status: []JobStatus{JobCompleted}})
	if done.TotalCount != 3 {
		t.Errorf("completed jobs in history = %d, want 3", done.TotalCount)
	}
}

func TestRunnerInFlightGuard(t *testing.T) {
	release := make(chan struct{})
	r, _ := newTestRunner(t, DefaultRunnerConfig(), func(ctx context.Context, job *Job) (string, any, error) {
		<-release
		return "READY", nil, nil
	})

	if err := r.Submit(NewJob(JobTypeProjectLifecycle, "app", TriggerPoll)); err != nil {
		t.Fatal(err)
	}
	err := r.Submit(NewJob(JobTypeProjectLifecycle, "app", TriggerPoll))
	if !errors.Is(err, ErrAlreadyQueued) {
		t.Fatalf("second Submit() error = %v, want ErrAlreadyQueued", err)
	}
	if !r.InFlight("app") {
		t.Error("app should be in flight")
	}
	if err := r.Submit(NewJob(JobTypeProjectLifecycle, "other", TriggerPoll)); err != nil {
		t.Errorf("other project should be accepted: %v", err)
	}

	close(release)
	waitFor(t, func() bool { return !r.InFlight("app") && !r.InFlight("other") })

	if err := r.Submit(NewJob(JobTypeProjectLifecycle, "app", TriggerPoll)); err != nil {
		t.Errorf("Submit after completion error = %v", err)
	}
	if r.Stats().RejectedTotal != 1 {
		t.Errorf("RejectedTotal = %d, want 1", r.Stats().RejectedTotal)
	}
}

func TestRunnerWithoutGuardQueuesDuplicates(t *testing.T) {
	release := make(chan struct{})
	r, _ := newTestRunner(t, RunnerConfig{QueueSize: 10}, func(ctx context.Context, job *Job) (string, any, error) {
		<-release
		return "READY", nil, nil
	})

	for i := 0; i < 3; i++ {
		if err := r.Submit(NewJob(JobTypeProjectLifecycle, "app", TriggerPoll)); err != nil {
			t.Fatalf("Submit #%d error = %v", i, err)
		}
	}
	close(release)
	waitFor(t, func() bool { return r.Stats().ProcessedTotal == 3 })
}

func TestRunnerQueueFull(t *testing.T) {
	release := make(chan struct{})
	r, _ := newTestRunner(t, RunnerConfig{QueueSize: 1, InFlightGuard: true}, func(ctx context.Context, job *Job) (string, any, error) {
		<-release
		return "READY", nil, nil
	})
	defer close(release)

	if err := r.Submit(NewJob(JobTypeProjectLifecycle, "a", TriggerPoll)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return r.Stats().RunningProject == "a" })

	if err := r.Submit(NewJob(JobTypeProjectLifecycle, "b", TriggerPoll)); err != nil {
		t.Fatal(err)
	}
	if err := r.Submit(NewJob(JobTypeProjectLifecycle, "c", TriggerPoll)); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Submit() error = %v, want ErrQueueFull", err)
	}
	if r.InFlight("c") {
		t.Error("rejected job must not stay in flight")
	}
}

func TestRunnerHandlerPanicAndError(t *testing.T) {
	r, store := newTestRunner(t, DefaultRunnerConfig(), func(ctx context.Context, job *Job) (string, any, error) {
		if job.Project == "panics" {
			panic("unexpected")
		}
		return "FAILED_SYNC", nil, errors.New("network down")
	})

	_ = r.Submit(NewJob(JobTypeProjectLifecycle, "panics", TriggerPoll))
	_ = r.Submit(NewJob(JobTypeProjectLifecycle, "errors", TriggerPoll))
	waitFor(t, func() bool { return r.Stats().FailedTotal == 2 })

	list, _ := store.ListJobs(ListJobsOptions{Project: "errors"})
	if len(list.Jobs) != 1 || list.Jobs[0].ProjectStatus != "FAILED_SYNC" || list.Jobs[0].Error != "network down" {
		t.Errorf("history = %+v", list.Jobs)
	}
}

func TestRunnerStopWaitsForRunningJob(t *testing.T) {
	started := make(chan struct{})
	r, store := newTestRunner(t, DefaultRunnerConfig(), func(ctx context.Context, job *Job) (string, any, error) {
		if job.Project == "slow" {
			close(started)
			time.Sleep(100 * time.Millisecond)
		}
		return "READY", nil, nil
	})

	slow := NewJob(JobTypeProjectLifecycle, "slow", TriggerPoll)
	queued := NewJob(JobTypeProjectLifecycle, "queued", TriggerPoll)
	_ = r.Submit(slow)
	<-started
	_ = r.Submit(queued)

	if err := r.Stop(5 * time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if r.IsRunning() {
		t.Error("runner should not be running after Stop")
	}
	if err := r.Submit(NewJob(JobTypeProjectLifecycle, "late", TriggerPoll)); !errors.Is(err, ErrStopped) {
		t.Errorf("Submit after Stop error = %v, want ErrStopped", err)
	}

	got, _ := store.GetJob(slow.ID)
	if got.Status != JobCompleted {
		t.Errorf("in-flight job status = %v, want completed", got.Status)
	}
	got, _ = store.GetJob(queued.ID)
	if got.Status != JobCancelled {
		t.Errorf("queued job status = %v, want cancelled", got.Status)
	}
}

func TestRunnerStopCancelsAfterGrace(t *testing.T) {
	started := make(chan struct{})
	r, store := newTestRunner(t, DefaultRunnerConfig(), func(ctx context.Context, job *Job) (string, any, error) {
		close(started)
		<-ctx.Done()
		return "FAILED_BUILD_EXCEPTION", nil, ctx.Err()
	})

	job := NewJob(JobTypeProjectLifecycle, "stuck", TriggerPoll)
	_ = r.Submit(job)
	<-started

	if err := r.Stop(50 * time.Millisecond); err == nil {
		t.Error("Stop() should report that running work was cancelled")
	}

	got, _ := store.GetJob(job.ID)
	if got.Status != JobCancelled {
		t.Errorf("job status = %v, want cancelled", got.Status)
	}
}

func TestRunnerIsRunningOnlyBetweenStartAndStop(t *testing.T) {
	r := NewRunner(nil, nil, DefaultRunnerConfig())
	if r.IsRunning() {
		t.Error("runner should not report running before Start")
	}
	r.Start()
	if !r.IsRunning() {
		t.Error("runner should report running after Start")
	}
	if err := r.Stop(time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if r.IsRunning() {
		t.Error("runner should not report running after Stop")
	}
}

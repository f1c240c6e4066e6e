package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"javaseeker/internal/projects"
)

const (
	DefaultTimeout      = 10 * time.Minute
	DefaultLogHeadBytes = 2048
)

// Result describes one build attempt.
type Result struct {
	Status      projects.Status `json:"status"`
	Plan        Plan            `json:"plan"`
	ExitCode    int             `json:"exitCode"`
	PID         int             `json:"pid,omitempty"`
	Duration    time.Duration   `json:"duration"`
	OutputHead  string          `json:"outputHead,omitempty"`
	ArchivePath string          `json:"archivePath,omitempty"`
	Err         error           `json:"-"`
}

// Invoker runs the detected build command for a project directory.
type Invoker struct {
	Timeout      time.Duration
	LogHeadBytes int
	Archive      *LogArchive
	Logger       *slog.Logger

	// detect is replaced in tests to force a platform.
	detect func(dir string) (Plan, bool)
}

// NewInvoker creates an invoker with the given timeout and log head size.
// archive may be nil to skip archiving the full output.
func NewInvoker(timeout time.Duration, logHeadBytes int, archive *LogArchive, logger *slog.Logger) *Invoker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logHeadBytes <= 0 {
		logHeadBytes = DefaultLogHeadBytes
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Invoker{
		Timeout:      timeout,
		LogHeadBytes: logHeadBytes,
		Archive:      archive,
		Logger:       logger,
		detect:       Detect,
	}
}

// Build compiles the project in dir and maps the outcome to a status:
// READY_NO_BUILD_FILE without a build file, READY on exit 0, FAILED_BUILD on
// a nonzero exit, FAILED_BUILD_TIMEOUT when the timeout kills the process and
// FAILED_BUILD_EXCEPTION when it cannot be started or read.
func (inv *Invoker) Build(ctx context.Context, project, dir string) (res Result) {
	logger := inv.Logger.With("project", project)

	plan, ok := inv.detect(dir)
	if !ok {
		logger.Info("No build file found, skipping build", "dir", dir)
		return Result{Status: projects.StatusReadyNoBuildFile}
	}

	res = Result{Plan: plan, ExitCode: -1}
	started := time.Now()
	defer func() { res.Duration = time.Since(started) }()

	head := &headBuffer{limit: inv.LogHeadBytes}
	var out io.Writer = head
	var archive *ArchiveWriter
	if inv.Archive != nil {
		w, err := inv.Archive.Create(project, started)
		if err != nil {
			logger.Warn("Build log archive unavailable", "error", err)
		} else {
			archive = w
			res.ArchivePath = w.Path
			out = io.MultiWriter(head, w)
		}
	}
	defer func() {
		if archive != nil {
			if err := archive.Close(); err != nil {
				logger.Warn("Failed to close build log archive", "error", err)
			}
		}
	}()

	cmd := exec.Command(plan.Executable, plan.Args...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = 5 * time.Second
	setProcessGroup(cmd)

	logger.Info("Starting build", "tool", plan.Tool, "command", plan.Executable+" "+strings.Join(plan.Args, " "))
	if err := cmd.Start(); err != nil {
		logger.Error("Failed to start build", "error", err)
		res.Status = projects.StatusFailedBuildException
		res.Err = fmt.Errorf("start %s: %w", plan.Executable, err)
		return res
	}
	res.PID = cmd.Process.Pid

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(inv.Timeout)
	defer timer.Stop()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-timer.C:
		_ = killTree(cmd)
		<-done
		res.Status = projects.StatusFailedBuildTimeout
		res.Err = fmt.Errorf("build exceeded %s", inv.Timeout)
		res.OutputHead = head.String()
		logger.Error("Build timed out, process killed", "timeout", inv.Timeout, "pid", res.PID)
		return res
	case <-ctx.Done():
		_ = killTree(cmd)
		<-done
		res.Status = projects.StatusFailedBuildException
		res.Err = fmt.Errorf("build cancelled: %w", ctx.Err())
		res.OutputHead = head.String()
		logger.Warn("Build cancelled, process killed", "pid", res.PID)
		return res
	}

	res.OutputHead = head.String()
	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		res.ExitCode = 0
		res.Status = projects.StatusReady
		logger.Info("Build succeeded", "duration", time.Since(started).Round(time.Millisecond))
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		res.Status = projects.StatusFailedBuild
		res.Err = waitErr
		logger.Error("Build failed", "exitCode", res.ExitCode, "output", res.OutputHead, "truncated", head.truncated)
	default:
		res.Status = projects.StatusFailedBuildException
		res.Err = waitErr
		logger.Error("Build output could not be read", "error", waitErr)
	}
	return res
}

// headBuffer keeps the first limit bytes written and discards the rest.
type headBuffer struct {
	limit     int
	buf       bytes.Buffer
	truncated bool
}

func (h *headBuffer) Write(p []byte) (int, error) {
	if room := h.limit - h.buf.Len(); room > 0 {
		if len(p) > room {
			h.buf.Write(p[:room])
			h.truncated = true
		} else {
			h.buf.Write(p)
		}
	} else if len(p) > 0 {
		h.truncated = true
	}
	return len(p), nil
}

func (h *headBuffer) String() string {
	return h.buf.String()
}

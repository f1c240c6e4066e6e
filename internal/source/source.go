// Package source acquires project sources: git projects are cloned or pulled
// into their cache directory, local projects are only checked for existence.
package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"javaseeker/internal/paths"
	"javaseeker/internal/projects"
)

// Source brings a project's working directory up to date.
//
// Acquire returns the status the project should move to. Returning the
// project's current status means nothing was due. progress is called with
// intermediate statuses (SYNCING) before long-running work starts.
//
// Due is a cheap check the poll loop uses to skip projects with nothing to do.
type Source interface {
	Due(d projects.Descriptor) bool
	Acquire(ctx context.Context, d projects.Descriptor, progress func(projects.Status)) (projects.Status, error)
}

// Sources selects the variant for a descriptor.
type Sources struct {
	Git   *GitSource
	Local *LocalSource
}

// NewSources wires both variants to one git binary.
func NewSources(git *Git, logger *slog.Logger) *Sources {
	return &Sources{
		Git:   &GitSource{Git: git, Logger: logger},
		Local: &LocalSource{},
	}
}

// For returns the source for the descriptor's kind.
func (s *Sources) For(kind projects.SourceKind) (Source, error) {
	switch kind {
	case projects.SourceGit:
		return s.Git, nil
	case projects.SourceLocal:
		return s.Local, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
}

// GitSource clones or pulls git projects into their cache directory.
type GitSource struct {
	Git    *Git
	Logger *slog.Logger
}

// Due reports a sync-eligible status or a pending build.
func (s *GitSource) Due(d projects.Descriptor) bool {
	return d.Status.NeedsSync() || d.Status == projects.StatusCompiling
}

// Acquire syncs the project when its status is sync-eligible.
func (s *GitSource) Acquire(ctx context.Context, d projects.Descriptor, progress func(projects.Status)) (projects.Status, error) {
	if !d.Status.NeedsSync() {
		return d.Status, nil
	}
	if progress != nil {
		progress(projects.StatusSyncing)
	}
	return s.Sync(ctx, d)
}

// Sync pulls an existing clone or clones afresh. A cache directory that is
// not a repository is wiped before cloning.
func (s *GitSource) Sync(ctx context.Context, d projects.Descriptor) (projects.Status, error) {
	dir := d.CachePath
	branch := d.TargetBranch()
	logger := s.logger().With("project", d.Name, "branch", branch)

	if s.Git.IsRepo(ctx, dir) {
		current, err := s.Git.CurrentBranch(ctx, dir)
		if err != nil {
			return projects.StatusFailedSync, err
		}
		if current != branch {
			logger.Info("Switching branch", "from", current)
			if err := s.Git.Checkout(ctx, dir, branch); err != nil {
				return projects.StatusFailedSync, err
			}
		}

		logger.Info("Pulling")
		if err := s.Git.Pull(ctx, dir, branch); err != nil {
			conflicts, cerr := s.Git.UnmergedPaths(ctx, dir)
			if cerr == nil && len(conflicts) > 0 {
				logger.Error("Merge conflict, manual resolution required", "paths", conflicts)
				return projects.StatusFailedMergeConflict, err
			}
			return projects.StatusFailedSync, err
		}
		return projects.StatusCompiling, nil
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		logger.Warn("Cache directory is not a git repository, wiping", "path", dir)
		if err := os.RemoveAll(dir); err != nil {
			return projects.StatusFailedSync, fmt.Errorf("wipe cache directory: %w", err)
		}
	}

	logger.Info("Cloning", "url", d.Location, "path", dir)
	if err := s.Git.Clone(ctx, d.Location, branch, dir); err != nil {
		return projects.StatusFailedSync, err
	}
	return projects.StatusCompiling, nil
}

func (s *GitSource) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

// LocalSource checks that a local project's directory exists.
type LocalSource struct{}

// Due reports a pending build or a status Acquire would change.
func (l LocalSource) Due(d projects.Descriptor) bool {
	if d.Status == projects.StatusCompiling {
		return true
	}
	next, _ := l.Acquire(context.Background(), d, nil)
	return next != d.Status
}

// Acquire fails with FAILED_INVALID_PATH when the directory is missing and
// otherwise schedules a build for any project not ready or compiling,
// including one whose last build failed.
func (LocalSource) Acquire(_ context.Context, d projects.Descriptor, _ func(projects.Status)) (projects.Status, error) {
	dir := d.WorkDir()
	if !paths.IsDir(dir) {
		return projects.StatusFailedInvalidPath, fmt.Errorf("not a directory: %s", dir)
	}
	switch {
	case d.Status.IsReady(), d.Status == projects.StatusCompiling:
		return d.Status, nil
	default:
		return projects.StatusCompiling, nil
	}
}

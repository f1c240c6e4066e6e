// Package projects holds the configured projects and their lifecycle status.
// The Store is the only owner of descriptor state; the orchestrator and the
// request handlers share it by reference.
package projects

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"javaseeker/internal/paths"
)

// ErrNotFound is returned for unknown project names.
var ErrNotFound = errors.New("project not found")

// StatusObserver is notified after every applied status change.
type StatusObserver func(name string, from, to Status)

// Store loads project descriptors from a YAML or TOML file and keeps their
// runtime status. A single mutex guards the modification-time check, the
// reload and status updates.
type Store struct {
	path          string
	cacheRoot     string
	defaultBranch string
	codec         codec
	logger        *slog.Logger

	mu       sync.Mutex
	projects map[string]*Descriptor
	lastMod  time.Time
	observer StatusObserver
}

// NewStore creates a store for the descriptor file at path. Projects without
// a localCachePath are cached under cacheRoot/<name>; relative paths resolve
// against the working directory.
func NewStore(path, cacheRoot string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if abs, err := paths.Absolute(cacheRoot, ""); err == nil {
		cacheRoot = abs
	}
	return &Store{
		path:      path,
		cacheRoot: cacheRoot,
		codec:     codecFor(path),
		logger:    logger,
		projects:  make(map[string]*Descriptor),
	}
}

// Path returns the descriptor file path.
func (s *Store) Path() string {
	return s.path
}

// SetDefaultBranch sets the branch given to git projects that name none.
// It applies from the next load.
func (s *Store) SetDefaultBranch(branch string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultBranch = branch
}

// SetObserver registers fn to be called after each status change.
func (s *Store) SetObserver(fn StatusObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// Load parses the descriptor file, creating an empty one when it is missing.
// On a parse error the in-memory state is left untouched.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.createEmpty(); err != nil {
			return err
		}
		info, err = os.Stat(s.path)
	}
	if err != nil {
		return fmt.Errorf("stat descriptor file: %w", err)
	}

	return s.reloadLocked(info.ModTime())
}

// CheckAndReload re-parses the descriptor file when its modification time is
// newer than the last one seen. It reports whether a reload happened.
func (s *Store) CheckAndReload() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Descriptor file disappeared, keeping current projects", "path", s.path)
			return false, nil
		}
		return false, fmt.Errorf("stat descriptor file: %w", err)
	}
	if !info.ModTime().After(s.lastMod) {
		return false, nil
	}

	s.logger.Info("Descriptor file changed, reloading", "path", s.path)
	if err := s.reloadLocked(info.ModTime()); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) createEmpty() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create descriptor directory: %w", err)
	}
	if err := os.WriteFile(s.path, s.codec.empty(), 0644); err != nil {
		return fmt.Errorf("create descriptor file: %w", err)
	}
	s.logger.Info("Created empty descriptor file", "path", s.path)
	return nil
}

// reloadLocked builds the complete new map before swapping it in, so a
// failure never leaves a partial replacement behind.
func (s *Store) reloadLocked(modTime time.Time) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read descriptor file: %w", err)
	}

	entries, err := s.codec.decode(data)
	if err != nil {
		var unknown *unknownKeysError
		if !errors.As(err, &unknown) {
			s.logger.Error("Failed to parse descriptor file, keeping previous state", "path", s.path, "error", err)
			return err
		}
		s.logger.Warn("Ignoring unknown descriptor keys", "path", s.path, "error", err)
	}

	next := make(map[string]*Descriptor, len(entries))
	for _, e := range entries {
		d, explicit, err := s.toDescriptor(e)
		if err != nil {
			s.logger.Warn("Skipping invalid project entry", "name", e.Name, "error", err)
			continue
		}
		if _, dup := next[d.Name]; dup {
			s.logger.Warn("Skipping duplicate project entry", "name", d.Name)
			continue
		}

		if prev, ok := s.projects[d.Name]; ok {
			if !explicit {
				d.Status = prev.Status
			}
			if !prev.sameIdentity(*d) {
				s.logger.Info("Project descriptor replaced", "project", d.Name, "status", d.Status)
			}
		}

		if _, err := paths.EnsureDir(d.CachePath); err != nil {
			s.logger.Warn("Skipping project, cache directory not creatable", "project", d.Name, "path", d.CachePath, "error", err)
			continue
		}
		next[d.Name] = d
	}

	for name := range s.projects {
		if _, ok := next[name]; !ok {
			s.logger.Info("Project removed", "project", name)
		}
	}

	s.projects = next
	s.lastMod = modTime
	s.logger.Info("Loaded project descriptors", "path", s.path, "count", len(next))
	return nil
}

// toDescriptor normalizes and validates one file entry. explicit reports
// whether the entry carried a usable status.
func (s *Store) toDescriptor(e entry) (*Descriptor, bool, error) {
	d := &Descriptor{
		Name:       e.Name,
		SourceKind: SourceKind(e.SourceType),
		Location:   e.Location,
		Branch:     e.Branch,
		Status:     StatusNotSynced,
	}
	if d.SourceKind == "" {
		d.SourceKind = inferKind(e.Location)
	}
	if d.SourceKind == SourceGit && d.Branch == "" {
		d.Branch = s.defaultBranch
	}
	if err := d.Validate(); err != nil {
		return nil, false, err
	}

	if e.LocalCachePath == "" {
		d.CachePath = paths.DefaultCachePath(s.cacheRoot, d.Name)
	} else {
		abs, err := paths.Absolute(e.LocalCachePath, "")
		if err != nil {
			return nil, false, fmt.Errorf("resolve cache path: %w", err)
		}
		d.CachePath = abs
	}

	if d.SourceKind == SourceLocal {
		loc, err := paths.Absolute(d.Location, filepath.Dir(s.path))
		if err != nil {
			return nil, false, fmt.Errorf("resolve location: %w", err)
		}
		d.Location = loc
	}

	explicit := false
	if e.Status != nil {
		st, err := ParseStatus(*e.Status)
		if err != nil {
			s.logger.Warn("Ignoring unknown status", "project", d.Name, "status", *e.Status)
		} else {
			d.Status = st
			explicit = true
		}
	}
	return d, explicit, nil
}

// Get returns a copy of the named descriptor.
func (s *Store) Get(name string) (Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.projects[name]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

// List returns a copy of every descriptor, sorted by name.
func (s *Store) List() []Descriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Descriptor, 0, len(s.projects))
	for _, d := range s.projects {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SetStatus updates the in-memory status of a project. Transitions outside
// the lifecycle table are rejected.
func (s *Store) SetStatus(name string, status Status) error {
	s.mu.Lock()
	d, ok := s.projects[name]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if !status.Valid() {
		s.mu.Unlock()
		return fmt.Errorf("unknown project status %q", status)
	}
	from := d.Status
	if !from.CanTransition(status) {
		s.mu.Unlock()
		s.logger.Warn("Rejected status transition", "project", name, "from", from, "to", status)
		return fmt.Errorf("project %s: transition %s -> %s not allowed", name, from, status)
	}
	d.Status = status
	observer := s.observer
	s.mu.Unlock()

	if from != status {
		s.logger.Info("Project status changed", "project", name, "from", from, "to", status)
		if observer != nil {
			observer(name, from, status)
		}
	}
	return nil
}

// ResetStatus writes an explicit status for the project into the descriptor
// file. A running store applies it on its next reload.
func (s *Store) ResetStatus(name string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("unknown project status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read descriptor file: %w", err)
	}
	updated, err := s.codec.setStatus(data, name, status)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, updated, 0644); err != nil {
		return fmt.Errorf("write descriptor file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace descriptor file: %w", err)
	}
	s.logger.Info("Wrote status reset to descriptor file", "project", name, "status", status)
	return nil
}

// Package watcher notices edits to the project descriptor file so the
// lifecycle loop can reload it without waiting for its next config check.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of file system event
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// Event is one change to the watched file.
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// ChangeHandler is called once per debounced batch.
type ChangeHandler func(path string, events []Event)

const defaultDebounce = 500 * time.Millisecond

// Watcher watches a single file. The parent directory is watched rather
// than the file itself, so editors that save by writing a new file and
// renaming it over the old one are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	handler  ChangeHandler

	ready     chan struct{}
	readyOnce sync.Once

	mu     sync.Mutex
	events int
	last   time.Time
}

// New creates a watcher for path. A non-positive debounce uses 500ms.
func New(path string, debounce time.Duration, logger *slog.Logger, handler ChangeHandler) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Watcher{
		path:     filepath.Clean(abs),
		debounce: debounce,
		logger:   logger,
		handler:  handler,
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the watch is registered.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is done. Pending events are dropped on return.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	batch := newChangeBatch(w.debounce, func(events []Event) {
		w.logger.Debug("Descriptor file changed", "path", w.path, "events", len(events))
		if w.handler != nil {
			w.handler(w.path, events)
		}
	})
	defer batch.discard()

	w.logger.Info("Watching descriptor file", "path", w.path, "debounce", w.debounce)
	w.readyOnce.Do(func() { close(w.ready) })

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Descriptor watcher stopped", "path", w.path)
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			typ, ok := eventType(ev.Op)
			if !ok {
				continue
			}
			w.record()
			batch.add(Event{Type: typ, Path: w.path, Timestamp: time.Now()})
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "path", w.path, "error", err)
		}
	}
}

func eventType(op fsnotify.Op) (EventType, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreate, true
	case op.Has(fsnotify.Write):
		return EventModify, true
	case op.Has(fsnotify.Remove):
		return EventDelete, true
	case op.Has(fsnotify.Rename):
		return EventRename, true
	}
	return 0, false
}

func (w *Watcher) record() {
	w.mu.Lock()
	w.events++
	w.last = time.Now()
	w.mu.Unlock()
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Stats returns watcher statistics
func (w *Watcher) Stats() map[string]any {
	w.mu.Lock()
	defer w.mu.Unlock()

	stats := map[string]any{
		"path":       w.path,
		"debounceMs": w.debounce.Milliseconds(),
		"events":     w.events,
	}
	if !w.last.IsZero() {
		stats["lastEvent"] = w.last
	}
	return stats
}

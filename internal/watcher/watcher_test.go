package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{EventCreate, "create"},
		{EventModify, "modify"},
		{EventDelete, "delete"},
		{EventRename, "rename"},
		{EventType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := tt.eventType.String()
			if got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventTypeFromOp(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want EventType
		ok   bool
	}{
		{fsnotify.Create, EventCreate, true},
		{fsnotify.Write, EventModify, true},
		{fsnotify.Remove, EventDelete, true},
		{fsnotify.Rename, EventRename, true},
		{fsnotify.Chmod, 0, false},
	}
	for _, tt := range tests {
		got, ok := eventType(tt.op)
		if ok != tt.ok || got != tt.want {
			t.Errorf("eventType(%v) = %v, %v; want %v, %v", tt.op, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	w := New("projects.yml", 0, nil, nil)

	if !filepath.IsAbs(w.Path()) {
		t.Errorf("Path() = %q, want absolute", w.Path())
	}
	if w.debounce != defaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, defaultDebounce)
	}
	stats := w.Stats()
	if stats["events"] != 0 {
		t.Errorf("events = %v, want 0", stats["events"])
	}
	if _, ok := stats["lastEvent"]; ok {
		t.Error("lastEvent should be absent before any event")
	}
}

func TestWatcherReportsDescriptorChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "projects.yml")
	if err := os.WriteFile(path, []byte("projects: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var batches [][]Event
	got := make(chan struct{}, 4)
	w := New(path, 50*time.Millisecond, nil, func(p string, events []Event) {
		if p != path {
			t.Errorf("handler path = %q, want %q", p, path)
		}
		mu.Lock()
		batches = append(batches, events)
		mu.Unlock()
		select {
		case got <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never became ready")
	}

	// unrelated files in the same directory are ignored
	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("projects: []\n# edit\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, batch := range batches {
		for _, ev := range batch {
			if ev.Path != path {
				t.Errorf("event for %q, want only %q", ev.Path, path)
			}
		}
	}
	if w.Stats()["events"].(int) == 0 {
		t.Error("events counter not updated")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope", "projects.yml"), time.Millisecond, nil, nil)
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("Run() should fail when the directory does not exist")
	}
}

func TestChangeBatchKeepsLatestPerType(t *testing.T) {
	var mu sync.Mutex
	var emitted [][]Event
	b := newChangeBatch(30*time.Millisecond, func(events []Event) {
		mu.Lock()
		emitted = append(emitted, events)
		mu.Unlock()
	})

	base := time.Now()
	// an editor save: temp write, rename over the original, recreate
	b.add(Event{Type: EventModify, Path: "/p", Timestamp: base})
	b.add(Event{Type: EventRename, Path: "/p", Timestamp: base.Add(time.Millisecond)})
	b.add(Event{Type: EventCreate, Path: "/p", Timestamp: base.Add(2 * time.Millisecond)})
	b.add(Event{Type: EventModify, Path: "/p", Timestamp: base.Add(3 * time.Millisecond)})
	if b.pending() != 3 {
		t.Errorf("pending() = %d, want 3", b.pending())
	}

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(emitted) != 1 {
		t.Fatalf("emitted %d batches, want 1", len(emitted))
	}
	got := emitted[0]
	want := []EventType{EventModify, EventRename, EventCreate}
	if len(got) != len(want) {
		t.Fatalf("batch = %v, want types %v", got, want)
	}
	for i, typ := range want {
		if got[i].Type != typ {
			t.Errorf("event %d type = %s, want %s", i, got[i].Type, typ)
		}
	}
	if !got[0].Timestamp.Equal(base.Add(3 * time.Millisecond)) {
		t.Errorf("modify event should carry the latest timestamp, got %v", got[0].Timestamp)
	}
}

func TestChangeBatchDiscard(t *testing.T) {
	var mu sync.Mutex
	called := false
	b := newChangeBatch(20*time.Millisecond, func([]Event) {
		mu.Lock()
		called = true
		mu.Unlock()
	})

	b.add(Event{Type: EventCreate})
	b.discard()
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if called {
		t.Error("emit should not run after discard")
	}
	if b.pending() != 0 {
		t.Errorf("pending() = %d, want 0", b.pending())
	}
}

func TestChangeBatchFlush(t *testing.T) {
	var got []Event
	b := newChangeBatch(time.Hour, func(events []Event) { got = events })

	b.flush()
	if got != nil {
		t.Error("flush with nothing pending should not emit")
	}

	b.add(Event{Type: EventDelete, Path: "/p"})
	b.flush()
	if len(got) != 1 || got[0].Type != EventDelete {
		t.Errorf("flush emitted %v", got)
	}
	if b.pending() != 0 {
		t.Errorf("pending() after flush = %d", b.pending())
	}
}

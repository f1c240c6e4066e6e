package watcher

import (
	"sync"
	"time"
)

// changeBatch coalesces bursts of descriptor file events. Editors save by
// writing a temp file and renaming it over the original, so one save can
// arrive as several events; within a quiet period only the latest event of
// each type is kept, in first-seen order.
type changeBatch struct {
	quiet time.Duration
	emit  func([]Event)

	mu      sync.Mutex
	latest  map[EventType]Event
	order   []EventType
	timer   *time.Timer
	version uint64 // bumped on every reset so a stale timer does nothing
}

func newChangeBatch(quiet time.Duration, emit func([]Event)) *changeBatch {
	return &changeBatch{
		quiet:  quiet,
		emit:   emit,
		latest: make(map[EventType]Event),
	}
}

// add records ev and restarts the quiet period.
func (b *changeBatch) add(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, seen := b.latest[ev.Type]; !seen {
		b.order = append(b.order, ev.Type)
	}
	b.latest[ev.Type] = ev

	if b.timer != nil {
		b.timer.Stop()
	}
	b.version++
	v := b.version
	b.timer = time.AfterFunc(b.quiet, func() { b.fire(v) })
}

func (b *changeBatch) fire(v uint64) {
	b.mu.Lock()
	if v != b.version {
		b.mu.Unlock()
		return
	}
	events := b.takeLocked()
	b.mu.Unlock()

	if len(events) > 0 && b.emit != nil {
		b.emit(events)
	}
}

// takeLocked empties the batch and returns its events.
func (b *changeBatch) takeLocked() []Event {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.version++
	if len(b.order) == 0 {
		return nil
	}
	events := make([]Event, 0, len(b.order))
	for _, typ := range b.order {
		events = append(events, b.latest[typ])
	}
	b.order = nil
	clear(b.latest)
	return events
}

// discard drops whatever is pending.
func (b *changeBatch) discard() {
	b.mu.Lock()
	b.takeLocked()
	b.mu.Unlock()
}

// flush emits pending events without waiting for the quiet period.
func (b *changeBatch) flush() {
	b.mu.Lock()
	events := b.takeLocked()
	b.mu.Unlock()

	if len(events) > 0 && b.emit != nil {
		b.emit(events)
	}
}

func (b *changeBatch) pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}

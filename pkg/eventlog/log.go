// Package eventlog provides the append-only, strictly ordered record of a game.
//
// The log is the single audit trail of the engine: every grimoire mutation, knowledge
// delivery, nomination, vote and phase transition is one entry. Participant histories
// are filtered views over it, never a separately maintained store.
package eventlog

import (
	"context"
	"sync"

	"github.com/aretw0/clocktower/pkg/domain"
)

// Observer is notified of every appended event, in order.
type Observer func(ctx context.Context, evt domain.Event)

// Log is an append-only sequence of events. Safe for concurrent readers.
type Log struct {
	mu        sync.RWMutex
	events    []domain.Event
	observers []Observer
}

// New creates an empty log.
func New() *Log {
	return &Log{}
}

// FromEvents rebuilds a log from a persisted sequence.
// The sequence must be gapless and start at 1.
func FromEvents(events []domain.Event) (*Log, error) {
	l := New()
	for i, evt := range events {
		if evt.Seq != uint64(i+1) {
			return nil, &SequenceError{Expected: uint64(i + 1), Got: evt.Seq}
		}
	}
	for _, evt := range events {
		l.events = append(l.events, evt.Clone())
	}
	return l, nil
}

// Subscribe registers an observer for future appends.
func (l *Log) Subscribe(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
}

// Append stamps the event with the next sequence number and records a deep copy.
// The stamped event is returned; callers may change it without touching the log.
func (l *Log) Append(ctx context.Context, evt domain.Event) domain.Event {
	l.mu.Lock()
	evt.Seq = uint64(len(l.events) + 1)
	l.events = append(l.events, evt.Clone())
	observers := l.observers
	l.mu.Unlock()

	for _, o := range observers {
		o(ctx, evt.Clone())
	}
	return evt.Clone()
}

// Len returns the number of recorded events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// Last returns the sequence number of the latest event (0 when empty).
func (l *Log) Last() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.events))
}

// Events returns a copy of the whole log.
func (l *Log) Events() []domain.Event {
	return l.Since(0)
}

// Since returns a copy of the events with Seq > seq.
func (l *Log) Since(seq uint64) []domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if seq >= uint64(len(l.events)) {
		return nil
	}
	out := make([]domain.Event, 0, len(l.events)-int(seq))
	for _, evt := range l.events[seq:] {
		out = append(out, evt.Clone())
	}
	return out
}

// Filter returns the events matching the predicate, in order.
func (l *Log) Filter(keep func(domain.Event) bool) []domain.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.Event
	for _, evt := range l.events {
		if keep(evt) {
			out = append(out, evt.Clone())
		}
	}
	return out
}

// OfType returns the events of the given type.
func (l *Log) OfType(t domain.EventType) []domain.Event {
	return l.Filter(func(evt domain.Event) bool { return evt.Type == t })
}

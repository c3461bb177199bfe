package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
)

// Store implements ports.EventStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]domain.Event
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]domain.Event),
	}
}

// Append adds events to the end of the game log.
func (s *Store) Append(ctx context.Context, gameID string, events ...domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.data[gameID]
	var last uint64
	if len(log) > 0 {
		last = log[len(log)-1].Seq
	}
	if err := ports.CheckSequence(gameID, last, events); err != nil {
		return err
	}
	for _, evt := range events {
		log = append(log, cloneEvent(evt))
	}
	s.data[gameID] = log
	return nil
}

// Load returns a copy of the game log so callers can't mutate the stored events.
func (s *Store) Load(ctx context.Context, gameID string) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.data[gameID]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	out := make([]domain.Event, len(log))
	for i, evt := range log {
		out[i] = cloneEvent(evt)
	}
	return out, nil
}

// Delete removes the game log.
func (s *Store) Delete(ctx context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, gameID)
	return nil
}

// List returns the stored games in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := make([]string, 0, len(s.data))
	for id := range s.data {
		games = append(games, id)
	}
	sort.Strings(games)
	return games, nil
}

// cloneEvent copies the slices an event shares with its producer. Pointer payloads
// are never mutated after emission and are shared.
func cloneEvent(evt domain.Event) domain.Event {
	evt.Recipients = slices.Clone(evt.Recipients)
	evt.Targets = slices.Clone(evt.Targets)
	return evt
}

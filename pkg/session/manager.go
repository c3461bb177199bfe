package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/clocktower/internal/logging"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed game lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serialises access to game logs. Local callers share a ref-counted
// mutex per game; an optional DistributedLocker extends this across replicas.
type Manager struct {
	store ports.EventStore

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active locks by game ID

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Manager over the given event store.
func NewManager(store ports.EventStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(gameID) after unlocking.
func (m *Manager) acquire(gameID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[gameID]
	if !exists {
		entry = &lockEntry{}
		m.locks[gameID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[gameID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, gameID)
	}
}

// Append adds events to the game log while holding the game lock.
func (m *Manager) Append(ctx context.Context, gameID string, events ...domain.Event) error {
	return m.WithLock(ctx, gameID, func(ctx context.Context) error {
		return m.store.Append(ctx, gameID, events...)
	})
}

// Load retrieves a game log.
func (m *Manager) Load(ctx context.Context, gameID string) ([]domain.Event, error) {
	var events []domain.Event
	err := m.WithLock(ctx, gameID, func(ctx context.Context) error {
		var err error
		events, err = m.store.Load(ctx, gameID)
		return err
	})
	return events, err
}

// Delete removes a game log.
func (m *Manager) Delete(ctx context.Context, gameID string) error {
	return m.WithLock(ctx, gameID, func(ctx context.Context) error {
		return m.store.Delete(ctx, gameID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying event store.
func (m *Manager) Store() ports.EventStore {
	return m.store
}

// WithLock executes fn while holding the lock for the game.
func (m *Manager) WithLock(ctx context.Context, gameID string, fn func(context.Context) error) error {
	entry := m.acquire(gameID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(gameID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, gameID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"game", gameID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

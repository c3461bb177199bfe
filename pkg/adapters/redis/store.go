package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// maxAppendRetries bounds the optimistic retries of Append under contention.
const maxAppendRetries = 5

// farFuture is the index score of games without expiration (2100-01-01).
const farFuture = 4102444800

// Store implements ports.EventStore using Redis. Each game log is a list of JSON
// events; a sorted set indexes the games by expiration.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for game logs. It is refreshed on every append.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for game logs.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "clocktower:game:",
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Locker returns a distributed locker sharing the store's client and prefix.
func (s *Store) Locker() *Locker {
	return NewLocker(s.client, s.prefix)
}

func (s *Store) key(gameID string) string {
	return s.prefix + gameID + ":events"
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Append pushes events onto the game log. The sequence check and the push run in
// one WATCH transaction, so concurrent writers cannot interleave.
func (s *Store) Append(ctx context.Context, gameID string, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	values := make([]any, len(events))
	for i, evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal event %d: %w", evt.Seq, err)
		}
		values[i] = data
	}

	key := s.key(gameID)
	txf := func(tx *backend.Tx) error {
		n, err := tx.LLen(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("failed to read log length: %w", err)
		}
		if err := ports.CheckSequence(gameID, uint64(n), events); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.RPush(ctx, key, values...)
			score := float64(farFuture)
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
				score = float64(time.Now().Add(s.ttl).Unix())
			}
			pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: gameID})
			return nil
		})
		return err
	}

	for i := 0; i < maxAppendRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, backend.TxFailedErr) {
			continue
		}
		var gap *ports.SequenceGapError
		if err != nil && !errors.As(err, &gap) {
			return fmt.Errorf("failed to append to redis: %w", err)
		}
		return err
	}
	return fmt.Errorf("failed to append to redis: %w", backend.TxFailedErr)
}

// Load retrieves the game log from Redis.
func (s *Store) Load(ctx context.Context, gameID string) ([]domain.Event, error) {
	vals, err := s.client.LRange(ctx, s.key(gameID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrGameNotFound
	}

	events := make([]domain.Event, len(vals))
	for i, val := range vals {
		if err := json.Unmarshal([]byte(val), &events[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event %d: %w", i+1, err)
		}
	}
	return events, nil
}

// Delete removes the game log.
func (s *Store) Delete(ctx context.Context, gameID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(gameID))
	pipe.ZRem(ctx, s.indexKey(), gameID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the stored games, pruning expired entries from the index first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired games: %w", err)
	}

	games, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

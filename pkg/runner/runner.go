package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/clocktower/internal/logging"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
	"github.com/aretw0/clocktower/pkg/session"
)

// Game is the part of an engine the runner drives.
type Game interface {
	ID() string
	Step(ctx context.Context) error
	Advance(ctx context.Context) error
	Result() (over bool, winner domain.Alignment, reason string)
	EventsSince(seq uint64) []domain.Event
}

// Runner plays a game to completion, persisting and narrating its log after every
// step. A game stopped by cancellation or an error still has every event it
// emitted persisted.
type Runner struct {
	// Store persists the log. If nil and Sessions is nil, games are ephemeral.
	Store ports.EventStore

	// Sessions, when set, takes precedence over Store and serialises writers per game.
	Sessions *session.Manager

	// Narrator receives every batch of new events. Optional.
	Narrator Narrator

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Signals makes the runner stop on SIGINT/SIGTERM.
	Signals bool

	persisted uint64
}

// NewRunner creates a Runner configured by opts.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{Logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Persisted returns the sequence number of the last event handed to the store.
func (r *Runner) Persisted() uint64 {
	return r.persisted
}

// Run steps and advances g until the game is over.
func (r *Runner) Run(ctx context.Context, g Game) error {
	if r.Signals {
		signals := NewSignalManager(ctx)
		defer signals.Stop()
		ctx = signals.Context()
	}
	logger := r.Logger.With("game", g.ID())
	logger.Info("game started")

	err := r.loop(ctx, g)
	if flushErr := r.flush(context.WithoutCancel(ctx), g); flushErr != nil {
		err = errors.Join(err, flushErr)
	}
	if err != nil {
		logger.Error("game stopped", "err", err, "persisted", r.persisted)
		return err
	}

	_, winner, reason := g.Result()
	logger.Info("game finished", "winner", winner, "reason", reason, "events", r.persisted)
	return nil
}

func (r *Runner) loop(ctx context.Context, g Game) error {
	for {
		if over, _, _ := g.Result(); over {
			return nil
		}
		if err := g.Step(ctx); err != nil {
			return fmt.Errorf("step: %w", err)
		}
		if err := r.flush(ctx, g); err != nil {
			return err
		}
		if over, _, _ := g.Result(); over {
			return nil
		}
		if err := g.Advance(ctx); err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		if err := r.flush(ctx, g); err != nil {
			return err
		}
	}
}

// flush persists and narrates the events emitted since the last flush.
func (r *Runner) flush(ctx context.Context, g Game) error {
	events := g.EventsSince(r.persisted)
	if len(events) == 0 {
		return nil
	}

	var err error
	switch {
	case r.Sessions != nil:
		err = r.Sessions.Append(ctx, g.ID(), events...)
	case r.Store != nil:
		err = r.Store.Append(ctx, g.ID(), events...)
	}
	if err != nil {
		return fmt.Errorf("critical persistence error: %w", err)
	}
	r.persisted = events[len(events)-1].Seq
	r.Logger.Debug("events persisted", "game", g.ID(), "count", len(events), "last_seq", r.persisted)

	if r.Narrator != nil {
		if err := r.Narrator.Narrate(ctx, events); err != nil {
			return fmt.Errorf("narration error: %w", err)
		}
	}
	return nil
}

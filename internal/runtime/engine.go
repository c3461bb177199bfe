// Package runtime implements the game state machine: setup, the night queue, the day
// protocol and the win checks. Every state change goes through a single emit point
// that appends to the event log and applies the event to the grimoire.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/aretw0/clocktower/internal/grimoire"
	"github.com/aretw0/clocktower/internal/logging"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/eventlog"
	"github.com/aretw0/clocktower/pkg/ports"
	"github.com/aretw0/clocktower/pkg/script"
	"github.com/google/uuid"
)

// Engine runs one game. Step and Advance must be called from a single goroutine;
// the read accessors are safe to call concurrently.
type Engine struct {
	script   *script.Script
	provider ports.DecisionProvider
	cfg      Config
	logger   *slog.Logger
	hooks    []domain.LifecycleHooks
	rng      *rand.Rand
	newID    func() string

	registration RegistrationPolicy
	fabrication  FabricationPolicy
	redirect     RedirectPolicy

	mu    sync.RWMutex
	grim  *grimoire.Grimoire
	log   *eventlog.Log
	fatal error

	// drained is set once the current phase has run its sub-protocol.
	drained bool
	// dayEnded is set when the Virgin ends the day early.
	dayEnded bool
	// cur is how far the current phase got; a Step cut short resumes from it.
	cur progress
}

// progress tracks the sub-protocol of the current phase. It is reset by Advance.
type progress struct {
	evilInfo bool
	slot     int
	// actors are fixed when their slot starts; nil until it does.
	actors []domain.Seat
	actor  int

	discussion  int
	opened      bool
	nominations int
}

// NewEngine creates an engine for the given script. The provider answers every
// decision request on behalf of the participants.
func NewEngine(s *script.Script, provider ports.DecisionProvider, opts ...EngineOption) *Engine {
	e := &Engine{
		script:       s,
		provider:     provider,
		cfg:          DefaultConfig(),
		logger:       logging.NewNop(),
		newID:        uuid.NewString,
		registration: MisregisterAlways,
		fabrication:  UniformFabrication,
		redirect:     NoRedirect,
		grim:         grimoire.New(),
		log:          eventlog.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.script == nil {
		e.script = script.TroubleBrewing()
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.cfg.MaxRetries < 0 {
		e.cfg.MaxRetries = 0
	}
	return e
}

// Script returns the script the game is played with.
func (e *Engine) Script() *script.Script {
	return e.script
}

// Phase returns the current phase.
func (e *Engine) Phase() domain.Phase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.grim.Phase
}

// Round returns the current round number (0 during setup).
func (e *Engine) Round() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.grim.Round
}

// Result reports whether the game ended, and how.
func (e *Engine) Result() (over bool, winner domain.Alignment, reason string) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.grim.Over, e.grim.Winner, e.grim.Reason
}

// Events returns a copy of the full event log.
func (e *Engine) Events() []domain.Event {
	return e.log.Events()
}

// EventsSince returns the events with a sequence number greater than seq.
func (e *Engine) EventsSince(seq uint64) []domain.Event {
	return e.log.Since(seq)
}

// Grimoire returns the storyteller's view of every seat.
func (e *Engine) Grimoire() []domain.GrimoireEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.grim.Entries()
}

// Err returns the fatal error that stopped the engine, if any.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fatal
}

// emit is the single serializing point of the engine: the event is applied to
// the grimoire, checked against the invariants, and only then recorded.
func (e *Engine) emit(ctx context.Context, evt domain.Event) (domain.Event, error) {
	e.mu.Lock()
	if e.fatal != nil {
		e.mu.Unlock()
		return evt, e.fatal
	}
	if evt.Phase == "" {
		evt.Phase = e.grim.Phase
		evt.Round = e.grim.Round
	}
	evt.Seq = e.log.Last() + 1

	err := e.grim.Apply(evt)
	if err == nil {
		err = e.grim.Check()
	}
	if err != nil {
		if !errors.Is(err, domain.ErrInvariantViolation) {
			err = fmt.Errorf("%w: %w", domain.ErrInvariantViolation, err)
		}
		e.fatal = err
		e.mu.Unlock()
		e.logger.Error("grimoire rejected event", "seq", evt.Seq, "type", evt.Type, "err", err)
		return evt, err
	}
	stamped := e.log.Append(ctx, evt)
	e.mu.Unlock()

	e.logger.Debug("event",
		"seq", stamped.Seq,
		"type", stamped.Type,
		"visibility", stamped.Visibility,
		"round", stamped.Round,
		"phase", stamped.Phase,
	)
	for _, h := range e.hooks {
		if h.OnEvent != nil {
			h.OnEvent(ctx, stamped)
		}
	}
	return stamped, nil
}

// emitAll emits events in order and stops at the first failure.
func (e *Engine) emitAll(ctx context.Context, events ...domain.Event) error {
	for _, evt := range events {
		if _, err := e.emit(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) participant(seat domain.Seat) *grimoire.Participant {
	return e.grim.Participant(seat)
}

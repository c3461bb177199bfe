package clocktower

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/aretw0/clocktower/internal/logging"
	"github.com/aretw0/clocktower/internal/runtime"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
	"github.com/aretw0/clocktower/pkg/runner"
	"github.com/aretw0/clocktower/pkg/script"
	"github.com/aretw0/clocktower/pkg/session"
	"github.com/google/uuid"
)

// Engine is one game, set up and ready to be played.
type Engine struct {
	id         string
	runtime    *runtime.Engine
	script     *script.Script
	characters []domain.Character
	provider   ports.DecisionProvider
	middleware []runner.Middleware
	seed       *uint64
	cfg        *Config
	hooks      []domain.LifecycleHooks
	store      ports.EventStore
	sessions   *session.Manager
	narrator   runner.Narrator
	logger     *slog.Logger
}

// Record is the terminal record of a played game.
type Record struct {
	ID     string           `json:"id"`
	Winner domain.Alignment `json:"winner,omitempty"`
	Reason string           `json:"reason"`
	Rounds int              `json:"rounds"`
	Events []domain.Event   `json:"events"`
}

// New seats the players and sets the game up.
func New(players []string, opts ...Option) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.id == "" {
		e.id = uuid.NewString()
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.script == nil {
		e.script = script.TroubleBrewing()
	}
	if e.seed == nil {
		seed := rand.Uint64()
		e.seed = &seed
	}
	if e.provider == nil {
		e.provider = runner.NewRandomProvider(*e.seed)
	}

	rtOpts := []runtime.EngineOption{
		runtime.WithSeed(*e.seed),
		runtime.WithLogger(e.logger.With("game", e.id)),
	}
	if e.cfg != nil {
		rtOpts = append(rtOpts, runtime.WithConfig(*e.cfg))
	}
	for _, h := range e.hooks {
		rtOpts = append(rtOpts, runtime.WithLifecycleHooks(h))
	}
	e.runtime = runtime.NewEngine(e.script, runner.Chain(e.provider, e.middleware...), rtOpts...)

	if err := e.runtime.Setup(context.Background(), players, e.characters); err != nil {
		return nil, fmt.Errorf("failed to set up game: %w", err)
	}
	return e, nil
}

// ID returns the game id.
func (e *Engine) ID() string { return e.id }

// Step resolves the rest of the current phase.
func (e *Engine) Step(ctx context.Context) error { return e.runtime.Step(ctx) }

// Advance moves to the next phase.
func (e *Engine) Advance(ctx context.Context) error { return e.runtime.Advance(ctx) }

// Result reports whether the game is over, who won and why.
func (e *Engine) Result() (over bool, winner domain.Alignment, reason string) {
	return e.runtime.Result()
}

// Phase returns the current phase.
func (e *Engine) Phase() domain.Phase { return e.runtime.Phase() }

// Round returns the current round.
func (e *Engine) Round() int { return e.runtime.Round() }

// Events returns a copy of the whole log.
func (e *Engine) Events() []domain.Event { return e.runtime.Events() }

// EventsSince returns the events with a sequence number greater than seq.
func (e *Engine) EventsSince(seq uint64) []domain.Event { return e.runtime.EventsSince(seq) }

// View returns what the participant in seat has observed so far.
func (e *Engine) View(seat domain.Seat) (domain.View, error) { return e.runtime.View(seat) }

// Grimoire returns the storyteller's ground truth.
func (e *Engine) Grimoire() []domain.GrimoireEntry { return e.runtime.Grimoire() }

// Play runs the game to completion. The log is persisted to the configured
// store as it is played, also when ctx is cancelled.
func (e *Engine) Play(ctx context.Context) (*Record, error) {
	opts := []runner.Option{runner.WithLogger(e.logger)}
	if e.sessions != nil {
		opts = append(opts, runner.WithSessions(e.sessions))
	} else if e.store != nil {
		opts = append(opts, runner.WithStore(e.store))
	}
	if e.narrator != nil {
		opts = append(opts, runner.WithNarrator(e.narrator))
	}
	if err := runner.NewRunner(opts...).Run(ctx, e); err != nil {
		return nil, err
	}
	return e.record(), nil
}

func (e *Engine) record() *Record {
	_, winner, reason := e.runtime.Result()
	return &Record{
		ID:     e.id,
		Winner: winner,
		Reason: reason,
		Rounds: e.runtime.Round(),
		Events: e.runtime.Events(),
	}
}

// Replay loads a stored game and rebuilds its record. The game need not be over.
func Replay(ctx context.Context, store ports.EventStore, id string) (*Record, error) {
	events, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := runtime.Replay(events)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", id, err)
	}
	return &Record{
		ID:     id,
		Winner: g.Winner,
		Reason: g.Reason,
		Rounds: g.Round,
		Events: events,
	}, nil
}

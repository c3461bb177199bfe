package clocktower

import (
	"log/slog"

	"github.com/aretw0/clocktower/internal/runtime"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
	"github.com/aretw0/clocktower/pkg/runner"
	"github.com/aretw0/clocktower/pkg/script"
	"github.com/aretw0/clocktower/pkg/session"
)

// Config holds the engine limits: decision timeout and retries, day rounds and
// the round limit.
type Config = runtime.Config

// VirginPolicy decides who is executed when the Virgin's ability triggers.
type VirginPolicy = runtime.VirginPolicy

const (
	ExecuteNominator = runtime.ExecuteNominator
	ExecuteNominee   = runtime.ExecuteNominee
)

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return runtime.DefaultConfig()
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithID sets the game id (default: a random UUID).
func WithID(id string) Option {
	return func(e *Engine) {
		e.id = id
	}
}

// WithProvider sets the agents answering decision requests.
func WithProvider(p ports.DecisionProvider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// WithMiddleware wraps the decision provider, outermost first.
func WithMiddleware(mws ...runner.Middleware) Option {
	return func(e *Engine) {
		e.middleware = append(e.middleware, mws...)
	}
}

// WithScript sets the script characters are dealt from (default: Trouble Brewing).
func WithScript(s *script.Script) Option {
	return func(e *Engine) {
		e.script = s
	}
}

// WithCharacters fixes the character of every seat instead of dealing them.
func WithCharacters(characters ...domain.Character) Option {
	return func(e *Engine) {
		e.characters = characters
	}
}

// WithSeed makes setup, storyteller choices and the default provider reproducible.
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.seed = &seed
	}
}

// WithConfig replaces the engine limits.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = &cfg
	}
}

// WithLifecycleHooks registers observability hooks. It can be used several times.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks)
	}
}

// WithStore persists the game log as it is played.
func WithStore(store ports.EventStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithSessions persists through a session manager, serialising writers per game.
func WithSessions(m *session.Manager) Option {
	return func(e *Engine) {
		e.sessions = m
	}
}

// WithNarrator receives every batch of new events while the game is played.
func WithNarrator(n runner.Narrator) Option {
	return func(e *Engine) {
		e.narrator = n
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

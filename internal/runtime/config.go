package runtime

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/aretw0/clocktower/pkg/domain"
)

// VirginPolicy decides who is executed when the Virgin's ability triggers.
type VirginPolicy string

const (
	// ExecuteNominee executes the Virgin herself. This is the default.
	ExecuteNominee VirginPolicy = "nominee"
	// ExecuteNominator executes the Townsfolk who nominated the Virgin, as in
	// the printed rules of the base edition.
	ExecuteNominator VirginPolicy = "nominator"
)

// Config holds the tunable limits of the engine.
type Config struct {
	// DecisionTimeout bounds every single decision request.
	DecisionTimeout time.Duration
	// MaxRetries is the number of extra attempts after an invalid or timed out decision.
	MaxRetries int
	// DiscussionRounds is the number of day-action rounds before nominations open.
	DiscussionRounds int
	// NominationRounds is the number of day-action rounds once nominations are open.
	NominationRounds int
	// MessagesPerDay caps the private messages a participant may send each day.
	MessagesPerDay int
	// MaxRounds ends the game without a winner after this many rounds.
	MaxRounds    int
	VirginPolicy VirginPolicy
}

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return Config{
		DecisionTimeout:  30 * time.Second,
		MaxRetries:       2,
		DiscussionRounds: 2,
		NominationRounds: 2,
		MessagesPerDay:   2,
		MaxRounds:        10,
		VirginPolicy:     ExecuteNominee,
	}
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithConfig replaces the engine limits.
func WithConfig(cfg Config) EngineOption {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks. It can be used several times.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks)
	}
}

// WithRand sets the randomness source used for setup, fabrication and chance registration.
func WithRand(rng *rand.Rand) EngineOption {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithSeed seeds a deterministic randomness source.
func WithSeed(seed uint64) EngineOption {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRegistrationPolicy decides how the Recluse and the Spy register.
func WithRegistrationPolicy(p RegistrationPolicy) EngineOption {
	return func(e *Engine) {
		e.registration = p
	}
}

// WithFabricationPolicy decides which false answer an impaired ability receives.
func WithFabricationPolicy(p FabricationPolicy) EngineOption {
	return func(e *Engine) {
		e.fabrication = p
	}
}

// WithRedirectPolicy decides whether a Demon kill on the Mayor lands elsewhere.
func WithRedirectPolicy(p RedirectPolicy) EngineOption {
	return func(e *Engine) {
		e.redirect = p
	}
}

// WithIDGenerator sets the generator of knowledge item identifiers.
func WithIDGenerator(next func() string) EngineOption {
	return func(e *Engine) {
		e.newID = next
	}
}

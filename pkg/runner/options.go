package runner

import (
	"log/slog"

	"github.com/aretw0/clocktower/pkg/ports"
	"github.com/aretw0/clocktower/pkg/session"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithStore configures the EventStore for persistence.
func WithStore(store ports.EventStore) Option {
	return func(r *Runner) {
		r.Store = store
	}
}

// WithSessions routes persistence through a session manager.
func WithSessions(m *session.Manager) Option {
	return func(r *Runner) {
		r.Sessions = m
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithNarrator configures the narrator.
func WithNarrator(n Narrator) Option {
	return func(r *Runner) {
		r.Narrator = n
	}
}

// WithSignals stops the game on SIGINT/SIGTERM.
func WithSignals(enabled bool) Option {
	return func(r *Runner) {
		r.Signals = enabled
	}
}

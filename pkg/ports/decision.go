package ports

import (
	"context"

	"github.com/aretw0/clocktower/pkg/domain"
)

// DecisionProvider is the boundary between the engine and whatever plays the
// participants (agents, humans, scripted bots).
//
// RequestAction may be called concurrently for different seats. Implementations
// should honor ctx: the engine stops waiting once it is done and discards any late answer.
type DecisionProvider interface {
	RequestAction(ctx context.Context, req domain.DecisionRequest) (domain.Decision, error)
}

// DecisionFunc adapts a function to the DecisionProvider interface.
type DecisionFunc func(ctx context.Context, req domain.DecisionRequest) (domain.Decision, error)

// RequestAction calls f.
func (f DecisionFunc) RequestAction(ctx context.Context, req domain.DecisionRequest) (domain.Decision, error) {
	return f(ctx, req)
}

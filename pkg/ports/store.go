package ports

import (
	"context"

	"github.com/aretw0/clocktower/pkg/domain"
)

// EventStore persists the event log of a game.
// This allows finished games to be replayed and running games to be audited.
type EventStore interface {
	// Append adds events to the end of the game log. The first event must carry the
	// sequence number following the last stored one; otherwise a *SequenceGapError is returned.
	Append(ctx context.Context, gameID string, events ...domain.Event) error

	// Load returns the full log of a game in sequence order.
	// Returns domain.ErrGameNotFound if the game does not exist.
	Load(ctx context.Context, gameID string) ([]domain.Event, error)

	// List returns the identifiers of every stored game.
	List(ctx context.Context) ([]string, error)

	// Delete removes the log of a game.
	Delete(ctx context.Context, gameID string) error
}

package runtime

import (
	"github.com/aretw0/clocktower/internal/grimoire"
	"github.com/aretw0/clocktower/pkg/domain"
)

// Replay rebuilds the grimoire from a recorded log. Every event is applied and
// checked exactly as it was during the live game, so the result equals the live
// state at the end of the log.
func Replay(events []domain.Event) (*grimoire.Grimoire, error) {
	g := grimoire.New()
	for _, evt := range events {
		if err := g.Apply(evt); err != nil {
			return nil, err
		}
		if err := g.Check(); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// ReplayView rebuilds what the participant in seat had observed at the end of the log.
func ReplayView(events []domain.Event, seat domain.Seat) (domain.View, error) {
	g, err := Replay(events)
	if err != nil {
		return domain.View{}, err
	}
	return BuildView(g, events, seat)
}

// Summarize replays a stored log into its public outcome.
func Summarize(id string, events []domain.Event) (domain.GameSummary, error) {
	g, err := Replay(events)
	if err != nil {
		return domain.GameSummary{}, err
	}
	return domain.GameSummary{
		ID:      id,
		Phase:   g.Phase,
		Round:   g.Round,
		Over:    g.Over,
		Winner:  g.Winner,
		Reason:  g.Reason,
		Events:  len(events),
		Players: g.Public(),
	}, nil
}

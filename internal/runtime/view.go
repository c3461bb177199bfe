package runtime

import (
	"github.com/aretw0/clocktower/internal/grimoire"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/eventlog"
)

// View returns what the participant in seat is allowed to observe.
func (e *Engine) View(seat domain.Seat) (domain.View, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return BuildView(e.grim, e.log.Events(), seat)
}

// BuildView projects a grimoire and its log onto one participant. It never reads
// another participant's character, statuses or private events.
func BuildView(g *grimoire.Grimoire, events []domain.Event, seat domain.Seat) (domain.View, error) {
	p := g.Participant(seat)
	if p == nil {
		return domain.View{}, domain.ErrUnknownParticipant
	}
	h := eventlog.HistoryOf(events, seat)
	return domain.View{
		Self:            p.Seat,
		Name:            p.Name,
		Character:       p.Believes,
		Alignment:       p.Believes.Alignment(),
		Phase:           g.Phase,
		Round:           g.Round,
		NominationsOpen: g.Day.NominationsOpen,
		Players:         g.Public(),
		Public:          h.Public,
		Private:         h.Private,
		Knowledge:       h.Knowledge,
		Notes:           h.Notes,
	}, nil
}

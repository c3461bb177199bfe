package eventlog

import "github.com/aretw0/clocktower/pkg/domain"

// History is the part of the log one participant has observed.
type History struct {
	Public    []domain.Event
	Private   []domain.Event
	Knowledge []domain.Clue
	Notes     string
}

// HistoryOf filters events down to what the participant in seat may observe.
// Knowledge items are returned as clues, stripped of storyteller-only fields, and
// removed from the private events that carried them.
func HistoryOf(events []domain.Event, seat domain.Seat) History {
	var h History
	for _, evt := range events {
		if !evt.VisibleTo(seat) {
			continue
		}
		if evt.Visibility == domain.VisibilityPublic {
			h.Public = append(h.Public, evt)
			continue
		}
		if evt.Knowledge != nil {
			h.Knowledge = append(h.Knowledge, evt.Knowledge.Clue())
			evt.Knowledge = nil
		}
		if evt.Type == domain.EventNotes && evt.Actor == seat {
			h.Notes = evt.Text
		}
		h.Private = append(h.Private, evt)
	}
	return h
}

// History filters the log for the participant in seat.
func (l *Log) History(seat domain.Seat) History {
	return HistoryOf(l.Events(), seat)
}

package grimoire

import (
	"fmt"

	"github.com/aretw0/clocktower/pkg/domain"
)

// InvariantError reports a broken ground-truth invariant. It wraps
// domain.ErrInvariantViolation.
type InvariantError struct {
	Seq    uint64
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated after event %d: %s", e.Seq, e.Reason)
}

func (e *InvariantError) Unwrap() error {
	return domain.ErrInvariantViolation
}

// Check verifies the invariants that must hold at every observation point.
func (g *Grimoire) Check() error {
	if g.Phase == domain.PhaseSetup {
		return nil
	}
	violation := func(format string, args ...any) error {
		return &InvariantError{Seq: g.LastSeq, Reason: fmt.Sprintf(format, args...)}
	}

	if demons := g.LivingDemons(); len(demons) > 1 {
		return violation("%d living demons", len(demons))
	}

	dead := 0
	for _, p := range g.Participants {
		if !p.Alive {
			dead++
		}
		if p.Alive && !p.DeadVote {
			return violation("living seat %d lost its dead vote", p.Seat)
		}
		if g.deadVoteSpent[p.Seat] && p.DeadVote {
			return violation("seat %d regained a spent dead vote", p.Seat)
		}
	}
	if dead != len(g.Deaths) {
		return violation("%d dead participants but %d recorded deaths", dead, len(g.Deaths))
	}

	for id, recipient := range g.knowledge {
		if g.Participant(recipient) == nil {
			return violation("knowledge item %s has unknown recipient %d", id, recipient)
		}
	}
	return nil
}

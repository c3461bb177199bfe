package grimoire

import (
	"fmt"
	"slices"

	"github.com/aretw0/clocktower/pkg/domain"
)

// ApplyError is returned when an event cannot be applied to the grimoire.
type ApplyError struct {
	Seq    uint64
	Type   domain.EventType
	Reason string
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("cannot apply event %d (%s): %s", e.Seq, e.Type, e.Reason)
}

// Apply mutates the grimoire according to a single event. Events that only carry
// communication (statements, rejections...) leave the state untouched.
func (g *Grimoire) Apply(evt domain.Event) error {
	if evt.Seq != g.LastSeq+1 {
		return &ApplyError{Seq: evt.Seq, Type: evt.Type, Reason: fmt.Sprintf("expected seq %d", g.LastSeq+1)}
	}
	if g.Over && evt.Type != domain.EventDecisionDiscarded {
		return &ApplyError{Seq: evt.Seq, Type: evt.Type, Reason: "game is over"}
	}
	if err := g.apply(evt); err != nil {
		return err
	}
	g.LastSeq = evt.Seq
	return nil
}

func (g *Grimoire) apply(evt domain.Event) error {
	fail := func(reason string) error {
		return &ApplyError{Seq: evt.Seq, Type: evt.Type, Reason: reason}
	}
	seat := func(s domain.Seat) (*Participant, error) {
		p := g.Participant(s)
		if p == nil {
			return nil, fail(fmt.Sprintf("seat %d: %v", s, domain.ErrUnknownParticipant))
		}
		return p, nil
	}

	switch evt.Type {
	case domain.EventGameSetup:
		if evt.Setup == nil {
			return fail("missing setup payload")
		}
		if len(g.Participants) > 0 {
			return fail("game already set up")
		}
		g.Script = evt.Setup.Script
		g.RedHerring = evt.Setup.RedHerring
		g.Bluffs = slices.Clone(evt.Setup.Bluffs)
		for i, a := range evt.Setup.Seats {
			if a.Seat != domain.Seat(i) {
				return fail(fmt.Sprintf("seat %d assigned out of order", a.Seat))
			}
			g.Participants = append(g.Participants, &Participant{
				Seat:      a.Seat,
				Name:      a.Name,
				Character: a.Character,
				Believes:  a.Believes,
				Alive:     true,
				DeadVote:  true,
				Spent:     make(map[domain.Character]bool),
			})
		}

	case domain.EventPhaseChanged:
		g.Phase = evt.Phase
		g.Round = evt.Round
		if evt.Phase == domain.PhaseDay {
			g.Day = newDay()
		}

	case domain.EventNominationsOpened:
		g.Day.NominationsOpen = true

	case domain.EventStatusApplied:
		if evt.Status == nil {
			return fail("missing status")
		}
		p, err := seat(evt.Status.Target)
		if err != nil {
			return err
		}
		p.Statuses = append(p.Statuses, *evt.Status)

	case domain.EventStatusCleared:
		if evt.Status == nil {
			return fail("missing status")
		}
		p, err := seat(evt.Status.Target)
		if err != nil {
			return err
		}
		idx := slices.Index(p.Statuses, *evt.Status)
		if idx < 0 {
			return fail(fmt.Sprintf("seat %d has no %s status", p.Seat, evt.Status.Kind))
		}
		p.Statuses = slices.Delete(p.Statuses, idx, idx+1)

	case domain.EventAbilitySpent:
		p, err := seat(evt.Actor)
		if err != nil {
			return err
		}
		p.Spent[evt.Ability] = true

	case domain.EventKnowledge:
		k := evt.Knowledge
		if k == nil {
			return fail("missing knowledge item")
		}
		if len(evt.Recipients) != 1 || evt.Recipients[0] != k.Recipient {
			return fail("knowledge item must have exactly one recipient")
		}
		if _, dup := g.knowledge[k.ID]; dup {
			return fail(fmt.Sprintf("knowledge item %s delivered twice", k.ID))
		}
		if _, err := seat(k.Recipient); err != nil {
			return err
		}
		g.knowledge[k.ID] = k.Recipient

	case domain.EventDeath:
		p, err := seat(evt.Target)
		if err != nil {
			return err
		}
		if !p.Alive {
			return fail(fmt.Sprintf("seat %d is already dead", p.Seat))
		}
		p.Alive = false
		g.Deaths = append(g.Deaths, Death{Seat: p.Seat, Cause: evt.Cause, Round: evt.Round, Phase: evt.Phase})

	case domain.EventExecution:
		p, err := seat(evt.Target)
		if err != nil {
			return err
		}
		if g.Day.Executed != domain.NoSeat {
			return fail("an execution already happened today")
		}
		g.Day.Executed = p.Seat
		g.Executions = append(g.Executions, Execution{Seat: p.Seat, Round: evt.Round, Reason: evt.Reason})
		// A dead nominee can still be executed; they just do not die again.
		if p.Alive {
			p.Alive = false
			g.Deaths = append(g.Deaths, Death{Seat: p.Seat, Cause: domain.CauseExecution, Round: evt.Round, Phase: evt.Phase})
		}

	case domain.EventCharacterChanged:
		p, err := seat(evt.Target)
		if err != nil {
			return err
		}
		if !evt.Character.Valid() {
			return fail(fmt.Sprintf("unknown character %q", evt.Character))
		}
		p.Character = evt.Character
		p.Believes = evt.Character

	case domain.EventNomination:
		n := evt.Nomination
		if n == nil {
			return fail("missing nomination")
		}
		if n.Index != len(g.Day.Nominations) {
			return fail(fmt.Sprintf("nomination index %d out of order", n.Index))
		}
		g.Day.Nominators[n.Nominator] = true
		g.Day.Nominees[n.Nominee] = true
		g.Day.Nominations = append(g.Day.Nominations, *n)

	case domain.EventVote:
		v := evt.Vote
		if v == nil {
			return fail("missing vote")
		}
		if v.Nomination < 0 || v.Nomination >= len(g.Day.Nominations) {
			return fail(fmt.Sprintf("unknown nomination %d", v.Nomination))
		}
		for _, prev := range g.Day.Votes[v.Nomination] {
			if prev.Voter == v.Voter {
				return fail(fmt.Sprintf("seat %d already voted", v.Voter))
			}
		}
		p, err := seat(v.Voter)
		if err != nil {
			return err
		}
		if evt.DeadVoteSpent {
			if p.Alive || !p.DeadVote {
				return fail(fmt.Sprintf("seat %d has no dead vote to spend", p.Seat))
			}
			p.DeadVote = false
			g.deadVoteSpent[p.Seat] = true
		}
		g.Day.Votes[v.Nomination] = append(g.Day.Votes[v.Nomination], *v)

	case domain.EventVoteClosed:
		if evt.Tally == nil {
			return fail("missing tally")
		}
		g.Day.Closed[evt.Tally.Nomination] = *evt.Tally

	case domain.EventStatement:
		if len(evt.Recipients) > 0 && evt.Visibility == domain.VisibilityPrivate {
			g.Day.Messages[evt.Actor]++
		}

	case domain.EventNotes:
		p, err := seat(evt.Actor)
		if err != nil {
			return err
		}
		p.Notes = evt.Text

	case domain.EventGameOver:
		g.Over = true
		g.Winner = evt.Winner
		g.Reason = evt.Reason
		g.Phase = domain.PhaseGameOver

	case domain.EventAbilityUsed, domain.EventSlayerShot, domain.EventActionRejected,
		domain.EventDecisionDegraded, domain.EventDecisionDiscarded:
		// Audit-only events.

	default:
		return fail("unknown event type")
	}
	return nil
}

// Package grimoire holds the ground-truth state of a game.
//
// The grimoire is only ever mutated by applying log events, so a live game and a
// replay of its log produce the same state.
package grimoire

import (
	"slices"

	"github.com/aretw0/clocktower/pkg/domain"
)

// Participant is one seat of the roster.
type Participant struct {
	Seat      domain.Seat
	Name      string
	Character domain.Character
	// Believes is the character the participant was told they are.
	Believes domain.Character
	Alive    bool
	// DeadVote is true while the participant still holds a vote for after death.
	DeadVote bool
	Statuses []domain.Status
	// Spent holds the one-time abilities already used.
	Spent map[domain.Character]bool
	Notes string
}

// Has reports whether the participant carries a status of the given kind.
func (p *Participant) Has(kind domain.StatusKind) bool {
	for _, s := range p.Statuses {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

// StatusOf returns the first status of the given kind.
func (p *Participant) StatusOf(kind domain.StatusKind) (domain.Status, bool) {
	for _, s := range p.Statuses {
		if s.Kind == kind {
			return s, true
		}
	}
	return domain.Status{}, false
}

// Impaired reports whether the participant's ability silently fails:
// the Drunk always, anyone else while poisoned.
func (p *Participant) Impaired() bool {
	return p.Character == domain.Drunk || p.Has(domain.StatusPoisoned)
}

// Death is one entry of the deaths-by-cause history.
type Death struct {
	Seat  domain.Seat
	Cause domain.DeathCause
	Round int
	Phase domain.Phase
}

// Execution is one entry of the executions history.
type Execution struct {
	Seat   domain.Seat
	Round  int
	Reason string
}

// Day is the protocol state of the current day. It is reset at every dawn.
type Day struct {
	NominationsOpen bool
	Nominators      map[domain.Seat]bool
	Nominees        map[domain.Seat]bool
	Nominations     []domain.Nomination
	Votes           map[int][]domain.Vote
	Closed          map[int]domain.Tally
	Executed        domain.Seat
	Messages        map[domain.Seat]int
}

func newDay() Day {
	return Day{
		Nominators: make(map[domain.Seat]bool),
		Nominees:   make(map[domain.Seat]bool),
		Votes:      make(map[int][]domain.Vote),
		Closed:     make(map[int]domain.Tally),
		Executed:   domain.NoSeat,
		Messages:   make(map[domain.Seat]int),
	}
}

// Grimoire is the singular ground-truth aggregate of a game.
type Grimoire struct {
	Script       string
	Participants []*Participant
	Phase        domain.Phase
	Round        int
	RedHerring   domain.Seat
	Bluffs       []domain.Character

	Deaths     []Death
	Executions []Execution
	Day        Day

	Over   bool
	Winner domain.Alignment
	Reason string

	// LastSeq is the sequence number of the last applied event.
	LastSeq uint64

	knowledge     map[string]domain.Seat
	deadVoteSpent map[domain.Seat]bool
}

// New returns an empty grimoire waiting for its setup event.
func New() *Grimoire {
	return &Grimoire{
		Phase:         domain.PhaseSetup,
		RedHerring:    domain.NoSeat,
		Day:           newDay(),
		knowledge:     make(map[string]domain.Seat),
		deadVoteSpent: make(map[domain.Seat]bool),
	}
}

// Participant returns the participant in seat, or nil when the seat does not exist.
func (g *Grimoire) Participant(seat domain.Seat) *Participant {
	if seat < 0 || int(seat) >= len(g.Participants) {
		return nil
	}
	return g.Participants[seat]
}

// Size is the number of seats.
func (g *Grimoire) Size() int {
	return len(g.Participants)
}

// Living returns the living participants in seating order.
func (g *Grimoire) Living() []*Participant {
	var out []*Participant
	for _, p := range g.Participants {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

// LivingCount is the number of living participants.
func (g *Grimoire) LivingCount() int {
	n := 0
	for _, p := range g.Participants {
		if p.Alive {
			n++
		}
	}
	return n
}

// LivingSeats returns the seats of the living participants.
func (g *Grimoire) LivingSeats() []domain.Seat {
	var out []domain.Seat
	for _, p := range g.Participants {
		if p.Alive {
			out = append(out, p.Seat)
		}
	}
	return out
}

// Seats returns every seat.
func (g *Grimoire) Seats() []domain.Seat {
	out := make([]domain.Seat, len(g.Participants))
	for i := range g.Participants {
		out[i] = domain.Seat(i)
	}
	return out
}

// WithCharacter returns the participants whose true character is c.
func (g *Grimoire) WithCharacter(c domain.Character) []*Participant {
	var out []*Participant
	for _, p := range g.Participants {
		if p.Character == c {
			out = append(out, p)
		}
	}
	return out
}

// LivingDemons returns the living Demon-type holders.
func (g *Grimoire) LivingDemons() []*Participant {
	var out []*Participant
	for _, p := range g.Participants {
		if p.Alive && p.Character.Kind() == domain.Demon {
			out = append(out, p)
		}
	}
	return out
}

// InPlay reports whether any participant truly holds c.
func (g *Grimoire) InPlay(c domain.Character) bool {
	return len(g.WithCharacter(c)) > 0
}

// Neighbours returns the closest living participants on each side of seat,
// skipping the dead. Either result may be nil, and both may be the same participant.
func (g *Grimoire) Neighbours(seat domain.Seat) (left, right *Participant) {
	n := len(g.Participants)
	for i := 1; i < n; i++ {
		p := g.Participants[(int(seat)-i+n)%n]
		if p.Alive && p.Seat != seat {
			left = p
			break
		}
	}
	for i := 1; i < n; i++ {
		p := g.Participants[(int(seat)+i)%n]
		if p.Alive && p.Seat != seat {
			right = p
			break
		}
	}
	return left, right
}

// DiedTonight reports whether the participant was killed by the Demon in the current night.
func (g *Grimoire) DiedTonight(seat domain.Seat) bool {
	for _, d := range g.Deaths {
		if d.Seat == seat && d.Cause == domain.CauseDemon && d.Round == g.Round && d.Phase.IsNight() {
			return true
		}
	}
	return false
}

// ExecutedOn returns the participant executed during the day of the given round.
func (g *Grimoire) ExecutedOn(round int) (Execution, bool) {
	for _, e := range g.Executions {
		if e.Round == round {
			return e, true
		}
	}
	return Execution{}, false
}

// DeadVoteSpent reports whether the participant already used their dead vote.
func (g *Grimoire) DeadVoteSpent(seat domain.Seat) bool {
	return g.deadVoteSpent[seat]
}

// Entries renders the grimoire as the rows shown to the Spy.
func (g *Grimoire) Entries() []domain.GrimoireEntry {
	out := make([]domain.GrimoireEntry, 0, len(g.Participants))
	for _, p := range g.Participants {
		var statuses []domain.StatusKind
		for _, s := range p.Statuses {
			if !slices.Contains(statuses, s.Kind) {
				statuses = append(statuses, s.Kind)
			}
		}
		out = append(out, domain.GrimoireEntry{
			Seat:      p.Seat,
			Name:      p.Name,
			Character: p.Character,
			Alive:     p.Alive,
			Statuses:  statuses,
		})
	}
	return out
}

// Public renders the table every participant can see.
func (g *Grimoire) Public() []domain.PublicPlayer {
	out := make([]domain.PublicPlayer, 0, len(g.Participants))
	for _, p := range g.Participants {
		out = append(out, domain.PublicPlayer{
			Seat:     p.Seat,
			Name:     p.Name,
			Alive:    p.Alive,
			DeadVote: p.DeadVote,
		})
	}
	return out
}

package domain

import (
	"context"
	"slices"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventGameSetup         EventType = "game_setup"
	EventPhaseChanged      EventType = "phase_changed"
	EventNominationsOpened EventType = "nominations_opened"
	EventStatusApplied     EventType = "status_applied"
	EventStatusCleared     EventType = "status_cleared"
	EventAbilityUsed       EventType = "ability_used"
	EventAbilitySpent      EventType = "ability_spent"
	EventKnowledge         EventType = "knowledge"
	EventDeath             EventType = "death"
	EventExecution         EventType = "execution"
	EventCharacterChanged  EventType = "character_changed"
	EventNomination        EventType = "nomination"
	EventVote              EventType = "vote"
	EventVoteClosed        EventType = "vote_closed"
	EventSlayerShot        EventType = "slayer_shot"
	EventStatement         EventType = "statement"
	EventNotes             EventType = "notes"
	EventActionRejected    EventType = "action_rejected"
	EventDecisionDegraded  EventType = "decision_degraded"
	EventDecisionDiscarded EventType = "decision_discarded"
	EventGameOver          EventType = "game_over"
)

// Visibility decides which participants may observe an event.
type Visibility string

const (
	// VisibilityPublic events are seen by everyone.
	VisibilityPublic Visibility = "public"
	// VisibilityPrivate events are seen by the listed recipients only.
	VisibilityPrivate Visibility = "private"
	// VisibilityStoryteller events are only in the grimoire.
	VisibilityStoryteller Visibility = "storyteller"
)

// SeatAssignment is the setup record of one seat.
type SeatAssignment struct {
	Seat      Seat      `json:"seat"`
	Name      string    `json:"name"`
	Character Character `json:"character"`
	// Believes is the character the participant is told they are (differs for the Drunk).
	Believes Character `json:"believes"`
}

// Setup is the payload of the game_setup event.
type Setup struct {
	Script     string           `json:"script"`
	Seats      []SeatAssignment `json:"seats"`
	RedHerring Seat             `json:"red_herring"`
	Bluffs     []Character      `json:"bluffs,omitempty"`
}

// Tally is the result of a closed vote.
type Tally struct {
	Nomination int  `json:"nomination"`
	For        int  `json:"for"`
	Living     int  `json:"living"`
	Threshold  int  `json:"threshold"`
	Executed   bool `json:"executed"`
}

// Event is an immutable, sequenced record of a state change or communication.
// Seq, Round and Phase are stamped by the log on append.
type Event struct {
	Seq        uint64     `json:"seq"`
	Round      int        `json:"round"`
	Phase      Phase      `json:"phase"`
	Type       EventType  `json:"type"`
	Visibility Visibility `json:"visibility"`
	Recipients []Seat     `json:"recipients,omitempty"`

	Actor   Seat   `json:"actor"`
	Target  Seat   `json:"target"`
	Targets []Seat `json:"targets,omitempty"`

	Ability       Character      `json:"ability,omitempty"`
	Character     Character      `json:"character,omitempty"`
	Status        *Status        `json:"status,omitempty"`
	Cause         DeathCause     `json:"cause,omitempty"`
	Nomination    *Nomination    `json:"nomination,omitempty"`
	Vote          *Vote          `json:"vote,omitempty"`
	DeadVoteSpent bool           `json:"dead_vote_spent,omitempty"`
	Tally         *Tally         `json:"tally,omitempty"`
	Knowledge     *KnowledgeItem `json:"knowledge,omitempty"`
	Setup         *Setup         `json:"setup,omitempty"`
	Winner        Alignment      `json:"winner,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Text          string         `json:"text,omitempty"`
}

// NewEvent returns an event of the given type with no actor or target.
func NewEvent(t EventType, v Visibility) Event {
	return Event{Type: t, Visibility: v, Actor: NoSeat, Target: NoSeat}
}

// Clone returns a deep copy of the event: no slice or payload is shared with e.
func (e Event) Clone() Event {
	e.Recipients = slices.Clone(e.Recipients)
	e.Targets = slices.Clone(e.Targets)
	if e.Status != nil {
		s := *e.Status
		e.Status = &s
	}
	if e.Nomination != nil {
		n := *e.Nomination
		e.Nomination = &n
	}
	if e.Vote != nil {
		v := *e.Vote
		e.Vote = &v
	}
	if e.Tally != nil {
		t := *e.Tally
		e.Tally = &t
	}
	if e.Knowledge != nil {
		k := *e.Knowledge
		k.Content = k.Content.Clone()
		e.Knowledge = &k
	}
	if e.Setup != nil {
		s := *e.Setup
		s.Seats = slices.Clone(s.Seats)
		s.Bluffs = slices.Clone(s.Bluffs)
		e.Setup = &s
	}
	return e
}

// VisibleTo reports whether the participant in seat may observe the event.
func (e Event) VisibleTo(seat Seat) bool {
	switch e.Visibility {
	case VisibilityPublic:
		return true
	case VisibilityPrivate:
		return slices.Contains(e.Recipients, seat)
	default:
		return false
	}
}

// DecisionOutcome classifies how a decision request ended.
type DecisionOutcome string

const (
	DecisionAccepted DecisionOutcome = "accepted"
	DecisionInvalid  DecisionOutcome = "invalid"
	DecisionTimeout  DecisionOutcome = "timeout"
	DecisionFailed   DecisionOutcome = "failed"
)

// DecisionEvent describes one round-trip to the decision provider.
type DecisionEvent struct {
	Seat     Seat            `json:"seat"`
	Kind     ActionKind      `json:"kind"`
	Attempt  int             `json:"attempt"`
	Outcome  DecisionOutcome `json:"outcome"`
	Duration time.Duration   `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnEvent    func(context.Context, Event)
	OnDecision func(context.Context, DecisionEvent)
}

package domain

// Seat is the stable index of a participant around the table.
// Every cross reference between participants, votes and events uses seats.
type Seat int

// NoSeat marks the absence of a participant reference.
const NoSeat Seat = -1

// Phase is a step of the game state machine.
type Phase string

const (
	PhaseSetup      Phase = "setup"
	PhaseFirstNight Phase = "first_night"
	PhaseDay        Phase = "day"
	PhaseNight      Phase = "night"
	PhaseGameOver   Phase = "game_over"
)

// IsNight reports whether abilities of the night queue resolve in this phase.
func (p Phase) IsNight() bool {
	return p == PhaseFirstNight || p == PhaseNight
}

// StatusKind names a transient effect on a participant.
type StatusKind string

const (
	StatusPoisoned  StatusKind = "poisoned"
	StatusProtected StatusKind = "protected"
	StatusMaster    StatusKind = "butler_master"
)

// Expiry is the transition at which the engine clears a status.
type Expiry string

const (
	// ExpiresAtDawn is cleared when the following day starts.
	ExpiresAtDawn Expiry = "dawn"
	// ExpiresAtDusk is cleared when the following night starts.
	ExpiresAtDusk Expiry = "dusk"
)

// Status is a transient effect placed on a participant by an ability.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Source  Seat       `json:"source"`
	Target  Seat       `json:"target"`
	Expires Expiry     `json:"expires"`
}

// DeathCause explains why a participant died.
type DeathCause string

const (
	CauseDemon     DeathCause = "demon"
	CauseExecution DeathCause = "execution"
	CauseSlayer    DeathCause = "slayer"
)

// VoteChoice is a participant's hand on a nomination.
type VoteChoice string

const (
	VoteFor     VoteChoice = "for"
	VoteAgainst VoteChoice = "against"
)

// Nomination is a single accepted nomination of the day.
type Nomination struct {
	Index     int  `json:"index"`
	Nominator Seat `json:"nominator"`
	Nominee   Seat `json:"nominee"`
	Day       int  `json:"day"`
}

// Vote is one participant's vote on a nomination.
type Vote struct {
	Voter      Seat       `json:"voter"`
	Nomination int        `json:"nomination"`
	Choice     VoteChoice `json:"choice"`
}

package domain

// ActionKind identifies what an external agent is asked to decide.
type ActionKind string

const (
	// ActionChooseTargets asks for the targets of an ability.
	ActionChooseTargets ActionKind = "choose_targets"
	// ActionVote asks for a hand on a nomination.
	ActionVote ActionKind = "vote"
	// ActionDay asks for the participant's next move in the day protocol.
	ActionDay ActionKind = "day_action"
)

// DayActionType is one of the moves available during a day.
type DayActionType string

const (
	DayPass     DayActionType = "pass"
	DaySay      DayActionType = "say"
	DayMessage  DayActionType = "message"
	DayNominate DayActionType = "nominate"
	DaySlayer   DayActionType = "slayer"
)

// ActionSchema describes the legal answers to a decision request.
type ActionSchema struct {
	Kind    ActionKind `json:"kind"`
	Ability Character  `json:"ability,omitempty"`

	// Target constraints (choose_targets, nominate, slayer, message).
	MinTargets int    `json:"min_targets,omitempty"`
	MaxTargets int    `json:"max_targets,omitempty"`
	Candidates []Seat `json:"candidates,omitempty"`

	// Day constraints.
	Allowed    []DayActionType `json:"allowed,omitempty"`
	Recipients []Seat          `json:"recipients,omitempty"`

	// Vote context.
	Nomination *Nomination  `json:"nomination,omitempty"`
	Choices    []VoteChoice `json:"choices,omitempty"`
}

// DecisionRequest is what the engine sends to the decision provider.
type DecisionRequest struct {
	Seat    Seat         `json:"seat"`
	View    View         `json:"view"`
	Schema  ActionSchema `json:"schema"`
	Attempt int          `json:"attempt"`
}

// Decision is the raw, tool-call style answer of a provider. The engine decodes
// and validates it against the request schema before applying anything.
type Decision map[string]any

// TargetAction is the decoded answer to ActionChooseTargets.
type TargetAction struct {
	Targets []Seat `mapstructure:"targets" json:"targets"`
}

// VoteAction is the decoded answer to ActionVote.
type VoteAction struct {
	Vote VoteChoice `mapstructure:"vote" json:"vote"`
}

// DayAction is the decoded answer to ActionDay.
type DayAction struct {
	Action     DayActionType `mapstructure:"action" json:"action"`
	Target     Seat          `mapstructure:"target" json:"target"`
	Recipients []Seat        `mapstructure:"recipients" json:"recipients,omitempty"`
	Text       string        `mapstructure:"text" json:"text,omitempty"`
	Notes      string        `mapstructure:"notes" json:"notes,omitempty"`
}

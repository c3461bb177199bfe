package domain

// PublicPlayer is the part of a participant every other participant can see.
type PublicPlayer struct {
	Seat     Seat   `json:"seat"`
	Name     string `json:"name"`
	Alive    bool   `json:"alive"`
	DeadVote bool   `json:"dead_vote"`
}

// View is the projection of the game a single participant is allowed to observe.
type View struct {
	Self Seat   `json:"self"`
	Name string `json:"name"`

	// Character is the character the participant believes they hold.
	Character Character `json:"character"`
	Alignment Alignment `json:"alignment"`

	Phase           Phase          `json:"phase"`
	Round           int            `json:"round"`
	NominationsOpen bool           `json:"nominations_open"`
	Players         []PublicPlayer `json:"players"`

	Public    []Event `json:"public"`
	Private   []Event `json:"private"`
	Knowledge []Clue  `json:"knowledge"`
	Notes     string  `json:"notes,omitempty"`
}

// Living returns the seats of the living players in seating order.
func (v View) Living() []Seat {
	var seats []Seat
	for _, p := range v.Players {
		if p.Alive {
			seats = append(seats, p.Seat)
		}
	}
	return seats
}

// GameSummary is the public outcome of a stored game.
type GameSummary struct {
	ID      string         `json:"id"`
	Phase   Phase          `json:"phase"`
	Round   int            `json:"round"`
	Over    bool           `json:"over"`
	Winner  Alignment      `json:"winner,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Events  int            `json:"events"`
	Players []PublicPlayer `json:"players"`
}

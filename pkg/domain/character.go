package domain

// Alignment is the team a participant plays for.
type Alignment string

const (
	Good Alignment = "good"
	Evil Alignment = "evil"
)

// Kind is the character type group.
type Kind string

const (
	Townsfolk Kind = "townsfolk"
	Outsider  Kind = "outsider"
	Minion    Kind = "minion"
	Demon     Kind = "demon"
)

// Alignment returns the team the kind belongs to.
func (k Kind) Alignment() Alignment {
	if k == Minion || k == Demon {
		return Evil
	}
	return Good
}

// Character identifies one character of the Trouble Brewing script.
type Character string

// Townsfolk
const (
	Washerwoman   Character = "washerwoman"
	Librarian     Character = "librarian"
	Investigator  Character = "investigator"
	Chef          Character = "chef"
	Empath        Character = "empath"
	FortuneTeller Character = "fortune_teller"
	Undertaker    Character = "undertaker"
	Monk          Character = "monk"
	Ravenkeeper   Character = "ravenkeeper"
	Virgin        Character = "virgin"
	Slayer        Character = "slayer"
	Soldier       Character = "soldier"
	Mayor         Character = "mayor"
)

// Outsiders
const (
	Butler  Character = "butler"
	Drunk   Character = "drunk"
	Recluse Character = "recluse"
	Saint   Character = "saint"
)

// Minions
const (
	Poisoner     Character = "poisoner"
	Spy          Character = "spy"
	ScarletWoman Character = "scarlet_woman"
	Baron        Character = "baron"
)

// Demons
const (
	Imp Character = "imp"
)

var characterKinds = map[Character]Kind{
	Washerwoman:   Townsfolk,
	Librarian:     Townsfolk,
	Investigator:  Townsfolk,
	Chef:          Townsfolk,
	Empath:        Townsfolk,
	FortuneTeller: Townsfolk,
	Undertaker:    Townsfolk,
	Monk:          Townsfolk,
	Ravenkeeper:   Townsfolk,
	Virgin:        Townsfolk,
	Slayer:        Townsfolk,
	Soldier:       Townsfolk,
	Mayor:         Townsfolk,
	Butler:        Outsider,
	Drunk:         Outsider,
	Recluse:       Outsider,
	Saint:         Outsider,
	Poisoner:      Minion,
	Spy:           Minion,
	ScarletWoman:  Minion,
	Baron:         Minion,
	Imp:           Demon,
}

// Kind returns the character type. Unknown characters return the empty Kind.
func (c Character) Kind() Kind {
	return characterKinds[c]
}

// Alignment returns the team the character starts on.
func (c Character) Alignment() Alignment {
	return c.Kind().Alignment()
}

// Valid reports whether the character belongs to the known roster.
func (c Character) Valid() bool {
	_, ok := characterKinds[c]
	return ok
}

// Registration is how a participant presents to another character's detection
// ability. It may differ from the participant's true character.
type Registration struct {
	Alignment Alignment `json:"alignment"`
	Kind      Kind      `json:"kind"`
	Character Character `json:"character"`
}

// TrueRegistration is the registration of a character that never misregisters.
func TrueRegistration(c Character) Registration {
	return Registration{Alignment: c.Alignment(), Kind: c.Kind(), Character: c}
}

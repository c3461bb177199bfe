package domain

import "slices"

// Info is the content of a knowledge item. Every item uses the same shape, whatever the
// producing ability and whether or not the content is true.
//
// For the first-night evil team information, Players[0] is the Demon and Characters
// holds the Demon's bluffs.
type Info struct {
	Players    []Seat          `json:"players"`
	Character  Character       `json:"character"`
	Characters []Character     `json:"characters,omitempty"`
	Number     int             `json:"number"`
	Yes        bool            `json:"yes"`
	Grimoire   []GrimoireEntry `json:"grimoire,omitempty"`
}

// GrimoireEntry is one row of the storyteller's grimoire, as shown to the Spy.
type GrimoireEntry struct {
	Seat      Seat         `json:"seat"`
	Name      string       `json:"name"`
	Character Character    `json:"character"`
	Alive     bool         `json:"alive"`
	Statuses  []StatusKind `json:"statuses,omitempty"`
}

// KnowledgeItem is a single piece of information delivered to exactly one participant.
// Truthful is storyteller-only data; participants only ever see the Clue projection.
type KnowledgeItem struct {
	ID        string    `json:"id"`
	Recipient Seat      `json:"recipient"`
	Ability   Character `json:"ability"`
	Phase     Phase     `json:"phase"`
	Round     int       `json:"round"`
	Content   Info      `json:"content"`
	Truthful  bool      `json:"truthful"`
}

// Clue is the recipient-facing projection of a KnowledgeItem.
type Clue struct {
	ID      string    `json:"id"`
	Ability Character `json:"ability"`
	Phase   Phase     `json:"phase"`
	Round   int       `json:"round"`
	Content Info      `json:"content"`
}

// Clue strips the storyteller-only fields.
func (k KnowledgeItem) Clue() Clue {
	return Clue{
		ID:      k.ID,
		Ability: k.Ability,
		Phase:   k.Phase,
		Round:   k.Round,
		Content: k.Content.Clone(),
	}
}

// Clone returns a copy of the info that shares no slices with i.
func (i Info) Clone() Info {
	i.Players = slices.Clone(i.Players)
	i.Characters = slices.Clone(i.Characters)
	if i.Grimoire != nil {
		grim := make([]GrimoireEntry, len(i.Grimoire))
		for n, entry := range i.Grimoire {
			entry.Statuses = slices.Clone(entry.Statuses)
			grim[n] = entry
		}
		i.Grimoire = grim
	}
	return i
}

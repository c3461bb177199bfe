package loam

import (
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/script"
)

// ScriptMetadata is the frontmatter of a script document. The markdown body is
// the script's description.
type ScriptMetadata struct {
	Name      string   `json:"name" mapstructure:"name"`
	Townsfolk []string `json:"townsfolk" mapstructure:"townsfolk"`
	Outsiders []string `json:"outsiders" mapstructure:"outsiders"`
	Minions   []string `json:"minions" mapstructure:"minions"`
	Demons    []string `json:"demons" mapstructure:"demons"`

	FirstNight  []string `json:"first_night" mapstructure:"first_night"`
	OtherNights []string `json:"other_nights" mapstructure:"other_nights"`

	// Rule overrides; zero keeps the script default.
	BaronOutsiders       int  `json:"baron_outsiders" mapstructure:"baron_outsiders"`
	ScarletWomanMinAlive int  `json:"scarlet_woman_min_alive" mapstructure:"scarlet_woman_min_alive"`
	EvilInfoMinPlayers   int  `json:"evil_info_min_players" mapstructure:"evil_info_min_players"`
	AllowSelfNomination  bool `json:"allow_self_nomination" mapstructure:"allow_self_nomination"`
}

func characters(names []string) []domain.Character {
	out := make([]domain.Character, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Character(n))
	}
	return out
}

// toScript builds a validated script from a document.
func (m ScriptMetadata) toScript(id, description string) (*script.Script, error) {
	s := &script.Script{
		Name:                 m.Name,
		Description:          description,
		Townsfolk:            characters(m.Townsfolk),
		Outsiders:            characters(m.Outsiders),
		Minions:              characters(m.Minions),
		Demons:               characters(m.Demons),
		FirstNight:           characters(m.FirstNight),
		OtherNights:          characters(m.OtherNights),
		BaronOutsiders:       2,
		ScarletWomanMinAlive: 5,
		EvilInfoMinPlayers:   7,
		AllowSelfNomination:  m.AllowSelfNomination,
	}
	if s.Name == "" {
		s.Name = id
	}
	if m.BaronOutsiders > 0 {
		s.BaronOutsiders = m.BaronOutsiders
	}
	if m.ScarletWomanMinAlive > 0 {
		s.ScarletWomanMinAlive = m.ScarletWomanMinAlive
	}
	if m.EvilInfoMinPlayers > 0 {
		s.EvilInfoMinPlayers = m.EvilInfoMinPlayers
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

package script

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"

	"github.com/aretw0/clocktower/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed trouble_brewing.yaml
var troubleBrewing []byte

// MinPlayers and MaxPlayers bound the supported table sizes.
const (
	MinPlayers = 5
	MaxPlayers = 15
)

// Script is the set of characters a game is dealt from.
type Script struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	Townsfolk []domain.Character `yaml:"townsfolk" json:"townsfolk"`
	Outsiders []domain.Character `yaml:"outsiders" json:"outsiders"`
	Minions   []domain.Character `yaml:"minions" json:"minions"`
	Demons    []domain.Character `yaml:"demons" json:"demons"`

	// FirstNight and OtherNights are the wake orders of the night queue.
	FirstNight  []domain.Character `yaml:"first_night" json:"first_night"`
	OtherNights []domain.Character `yaml:"other_nights" json:"other_nights"`

	// BaronOutsiders is how many Townsfolk the Baron turns into Outsiders.
	BaronOutsiders int `yaml:"baron_outsiders" json:"baron_outsiders"`
	// ScarletWomanMinAlive is the living count, before the Demon died,
	// from which the Scarlet Woman takes over.
	ScarletWomanMinAlive int `yaml:"scarlet_woman_min_alive" json:"scarlet_woman_min_alive"`
	// EvilInfoMinPlayers is the table size from which the evil team learns each other.
	EvilInfoMinPlayers  int  `yaml:"evil_info_min_players" json:"evil_info_min_players"`
	AllowSelfNomination bool `yaml:"allow_self_nomination" json:"allow_self_nomination"`
}

// Counts is the number of characters of each kind dealt to a table.
type Counts struct {
	Townsfolk int
	Outsiders int
	Minions   int
	Demons    int
}

// Total is the table size the counts cover.
func (c Counts) Total() int {
	return c.Townsfolk + c.Outsiders + c.Minions + c.Demons
}

// Distribution returns the standard character counts for n players.
func Distribution(n int) (Counts, error) {
	if n < MinPlayers || n > MaxPlayers {
		return Counts{}, fmt.Errorf("%d players: supported table sizes are %d-%d", n, MinPlayers, MaxPlayers)
	}
	if n < 7 {
		return Counts{Townsfolk: 3, Outsiders: n - 5, Minions: 1, Demons: 1}, nil
	}
	// From 7 players on, the counts cycle every three seats.
	minions := min((n-7)/3+1, 3)
	outsiders := (n - 7) % 3
	return Counts{Townsfolk: n - 1 - minions - outsiders, Outsiders: outsiders, Minions: minions, Demons: 1}, nil
}

// TroubleBrewing returns the embedded default script.
func TroubleBrewing() *Script {
	s, err := Parse(troubleBrewing)
	if err != nil {
		panic(fmt.Sprintf("embedded script is invalid: %v", err))
	}
	return s
}

// Load reads and validates a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a YAML script and validates it.
func Parse(data []byte) (*Script, error) {
	s := &Script{
		BaronOutsiders:       2,
		ScarletWomanMinAlive: 5,
		EvilInfoMinPlayers:   7,
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Characters returns every character of the script, grouped by kind.
func (s *Script) Characters() []domain.Character {
	out := slices.Clone(s.Townsfolk)
	out = append(out, s.Outsiders...)
	out = append(out, s.Minions...)
	return append(out, s.Demons...)
}

// Contains reports whether c belongs to the script.
func (s *Script) Contains(c domain.Character) bool {
	return slices.Contains(s.Characters(), c)
}

// OfKind returns the script characters of kind k.
func (s *Script) OfKind(k domain.Kind) []domain.Character {
	switch k {
	case domain.Townsfolk:
		return s.Townsfolk
	case domain.Outsider:
		return s.Outsiders
	case domain.Minion:
		return s.Minions
	case domain.Demon:
		return s.Demons
	}
	return nil
}

// NightOrder returns the wake order for the first or any later night.
func (s *Script) NightOrder(first bool) []domain.Character {
	if first {
		return s.FirstNight
	}
	return s.OtherNights
}

// Deal draws a character for each of n seats, following the standard distribution
// and the Baron's setup modification. The result is shuffled.
func (s *Script) Deal(rng *rand.Rand, n int) ([]domain.Character, error) {
	counts, err := Distribution(n)
	if err != nil {
		return nil, err
	}

	minions := draw(rng, s.Minions, counts.Minions)
	if slices.Contains(minions, domain.Baron) {
		shift := min(s.BaronOutsiders, counts.Townsfolk)
		counts.Outsiders += shift
		counts.Townsfolk -= shift
	}
	if counts.Outsiders > len(s.Outsiders) || counts.Townsfolk > len(s.Townsfolk) ||
		counts.Minions > len(s.Minions) || counts.Demons > len(s.Demons) {
		return nil, fmt.Errorf("script %s cannot fill a table of %d", s.Name, n)
	}

	dealt := draw(rng, s.Townsfolk, counts.Townsfolk)
	dealt = append(dealt, draw(rng, s.Outsiders, counts.Outsiders)...)
	dealt = append(dealt, minions...)
	dealt = append(dealt, draw(rng, s.Demons, counts.Demons)...)
	rng.Shuffle(len(dealt), func(i, j int) { dealt[i], dealt[j] = dealt[j], dealt[i] })
	return dealt, nil
}

func draw(rng *rand.Rand, from []domain.Character, k int) []domain.Character {
	pool := slices.Clone(from)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:min(k, len(pool))]
}

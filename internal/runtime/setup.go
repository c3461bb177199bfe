package runtime

import (
	"context"
	"fmt"
	"slices"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/script"
)

const bluffCount = 3

// Setup seats the players and deals their characters. When characters is nil the
// engine deals from the script; otherwise characters[i] goes to seat i.
func (e *Engine) Setup(ctx context.Context, players []string, characters []domain.Character) error {
	if e.grim.Phase != domain.PhaseSetup || e.grim.Size() > 0 {
		return fmt.Errorf("%w: game already set up", domain.ErrConstraintViolation)
	}
	if len(players) < script.MinPlayers || len(players) > script.MaxPlayers {
		return fmt.Errorf("%w: %d players, want %d-%d",
			domain.ErrConstraintViolation, len(players), script.MinPlayers, script.MaxPlayers)
	}

	if characters == nil {
		dealt, err := e.script.Deal(e.rng, len(players))
		if err != nil {
			return err
		}
		characters = dealt
	} else if err := e.checkAssignment(players, characters); err != nil {
		return err
	}

	setup := &domain.Setup{
		Script:     e.script.Name,
		RedHerring: domain.NoSeat,
	}
	inPlay := func(c domain.Character) bool { return slices.Contains(characters, c) }

	for i, name := range players {
		c := characters[i]
		believes := c
		if c == domain.Drunk {
			believes = e.pick(e.notInPlay(e.script.Townsfolk, inPlay, nil))
			if believes == "" {
				return fmt.Errorf("%w: no townsfolk left for the drunk to believe in", domain.ErrConstraintViolation)
			}
		}
		setup.Seats = append(setup.Seats, domain.SeatAssignment{
			Seat:      domain.Seat(i),
			Name:      name,
			Character: c,
			Believes:  believes,
		})
	}

	// The red herring is only needed when someone wakes as the Fortune Teller.
	for _, a := range setup.Seats {
		if a.Believes == domain.FortuneTeller {
			var good []domain.Seat
			for _, b := range setup.Seats {
				if b.Character.Alignment() == domain.Good {
					good = append(good, b.Seat)
				}
			}
			if len(good) > 0 {
				setup.RedHerring = good[e.rng.IntN(len(good))]
			}
			break
		}
	}

	var believed []domain.Character
	for _, a := range setup.Seats {
		believed = append(believed, a.Believes)
	}
	candidates := e.notInPlay(append(slices.Clone(e.script.Townsfolk), e.script.Outsiders...), inPlay, believed)
	e.rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	setup.Bluffs = candidates[:min(bluffCount, len(candidates))]

	evt := domain.NewEvent(domain.EventGameSetup, domain.VisibilityStoryteller)
	evt.Setup = setup
	if _, err := e.emit(ctx, evt); err != nil {
		return err
	}
	e.drained = true
	e.logger.Info("game set up", "players", len(players), "script", e.script.Name)
	return nil
}

func (e *Engine) checkAssignment(players []string, characters []domain.Character) error {
	if len(characters) != len(players) {
		return fmt.Errorf("%w: %d characters for %d players",
			domain.ErrConstraintViolation, len(characters), len(players))
	}
	demons := 0
	for _, c := range characters {
		if !e.script.Contains(c) {
			return fmt.Errorf("%w: %s is not in script %s", domain.ErrConstraintViolation, c, e.script.Name)
		}
		if c.Kind() == domain.Demon {
			demons++
		}
	}
	if demons != 1 {
		return fmt.Errorf("%w: a game needs exactly one demon, got %d", domain.ErrConstraintViolation, demons)
	}
	return nil
}

// notInPlay filters from down to the characters nobody holds or believes to hold.
func (e *Engine) notInPlay(from []domain.Character, inPlay func(domain.Character) bool, believed []domain.Character) []domain.Character {
	var out []domain.Character
	for _, c := range from {
		if !inPlay(c) && !slices.Contains(believed, c) {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) pick(from []domain.Character) domain.Character {
	if len(from) == 0 {
		return ""
	}
	return from[e.rng.IntN(len(from))]
}

package script

import (
	"errors"
	"fmt"

	"github.com/aretw0/clocktower/pkg/domain"
)

// ValidationError lists every problem found in a script.
type ValidationError struct {
	Script   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("script %q is invalid: %v", e.Script, e.Problems)
}

// Validate checks that every character exists, sits in the right kind group and
// appears at most once, and that the night orders only reference script characters.
func (s *Script) Validate() error {
	if s == nil {
		return errors.New("nil script")
	}
	var problems []string
	seen := make(map[domain.Character]bool)

	check := func(group []domain.Character, kind domain.Kind) {
		for _, c := range group {
			switch {
			case !c.Valid():
				problems = append(problems, fmt.Sprintf("unknown character %q", c))
			case c.Kind() != kind:
				problems = append(problems, fmt.Sprintf("%s is a %s, not a %s", c, c.Kind(), kind))
			case seen[c]:
				problems = append(problems, fmt.Sprintf("%s listed twice", c))
			}
			seen[c] = true
		}
	}
	check(s.Townsfolk, domain.Townsfolk)
	check(s.Outsiders, domain.Outsider)
	check(s.Minions, domain.Minion)
	check(s.Demons, domain.Demon)

	if s.Name == "" {
		problems = append(problems, "missing name")
	}
	if len(s.Demons) == 0 {
		problems = append(problems, "at least one demon is required")
	}
	if len(s.Minions) == 0 {
		problems = append(problems, "at least one minion is required")
	}
	if len(s.Townsfolk) < 3 {
		problems = append(problems, "at least three townsfolk are required")
	}
	for _, order := range [][]domain.Character{s.FirstNight, s.OtherNights} {
		for _, c := range order {
			if !seen[c] {
				problems = append(problems, fmt.Sprintf("night order references %s, which is not in the script", c))
			}
		}
	}
	if s.BaronOutsiders < 0 {
		problems = append(problems, "baron_outsiders must not be negative")
	}

	if len(problems) > 0 {
		return &ValidationError{Script: s.Name, Problems: problems}
	}
	return nil
}

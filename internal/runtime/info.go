package runtime

import (
	"context"
	"slices"

	"github.com/aretw0/clocktower/internal/grimoire"
	"github.com/aretw0/clocktower/pkg/domain"
)

// inform delivers the result of an information ability. An impaired holder
// receives an answer chosen by the fabrication policy instead of the truth.
func (e *Engine) inform(ctx context.Context, p *grimoire.Participant, truth domain.Info, alternatives func() []domain.Info) error {
	content, truthful := truth, true
	if p.Impaired() {
		var legal []domain.Info
		for _, alt := range alternatives() {
			if !sameInfo(alt, truth) {
				legal = append(legal, alt)
			}
		}
		if len(legal) > 0 {
			content, truthful = e.fabrication(e.rng, truth, legal), false
		}
	}
	return e.deliver(ctx, p, p.Believes, content, truthful)
}

// deliver records a knowledge item for exactly one recipient.
func (e *Engine) deliver(ctx context.Context, p *grimoire.Participant, source domain.Character, content domain.Info, truthful bool) error {
	item := &domain.KnowledgeItem{
		ID:        e.newID(),
		Recipient: p.Seat,
		Ability:   source,
		Phase:     e.grim.Phase,
		Round:     e.grim.Round,
		Content:   content,
		Truthful:  truthful,
	}
	evt := domain.NewEvent(domain.EventKnowledge, domain.VisibilityPrivate)
	evt.Recipients = []domain.Seat{p.Seat}
	evt.Actor = p.Seat
	evt.Ability = source
	evt.Knowledge = item
	_, err := e.emit(ctx, evt)
	return err
}

// registrations asks the registration policy once per seat for a whole resolution,
// so one answer never sees the same player register two ways.
func (e *Engine) registrations(asker domain.Character) []domain.Registration {
	out := make([]domain.Registration, e.grim.Size())
	for i := range out {
		out[i] = e.register(domain.Seat(i), asker)
	}
	return out
}

// learnPair builds the Washerwoman, Librarian and Investigator abilities: one of
// two players is a given character of the wanted kind.
func learnPair(kind domain.Kind) resolveFunc {
	return func(e *Engine, ctx context.Context, p *grimoire.Participant, _ []domain.Seat) error {
		regs := e.registrations(p.Believes)
		var matches []domain.Seat
		for seat, r := range regs {
			if domain.Seat(seat) != p.Seat && r.Kind == kind {
				matches = append(matches, domain.Seat(seat))
			}
		}

		truth := domain.Info{}
		if len(matches) > 0 {
			m := matches[e.rng.IntN(len(matches))]
			var decoys []domain.Seat
			for _, s := range e.grim.Seats() {
				if s != p.Seat && s != m {
					decoys = append(decoys, s)
				}
			}
			players := []domain.Seat{m, decoys[e.rng.IntN(len(decoys))]}
			slices.Sort(players)
			truth = domain.Info{Players: players, Character: regs[m].Character}
		}

		return e.inform(ctx, p, truth, func() []domain.Info {
			var alts []domain.Info
			if kind == domain.Outsider && len(truth.Players) > 0 {
				alts = append(alts, domain.Info{})
			}
			seats := e.grim.Seats()
			for _, c := range e.script.OfKind(kind) {
				for i, a := range seats {
					for _, b := range seats[i+1:] {
						if a == p.Seat || b == p.Seat {
							continue
						}
						if e.participant(a).Character == c || e.participant(b).Character == c {
							continue
						}
						alts = append(alts, domain.Info{Players: []domain.Seat{a, b}, Character: c})
					}
				}
			}
			return alts
		})
	}
}

// learnChef counts the pairs of neighbouring seats that both register as evil.
func (e *Engine) learnChef(ctx context.Context, p *grimoire.Participant, _ []domain.Seat) error {
	regs := e.registrations(p.Believes)
	n, pairs, evil := len(regs), 0, 0
	for i := range regs {
		if regs[i].Alignment == domain.Evil {
			evil++
			if regs[(i+1)%n].Alignment == domain.Evil {
				pairs++
			}
		}
	}
	return e.inform(ctx, p, domain.Info{Number: pairs}, func() []domain.Info {
		return numbers(0, max(evil, 1))
	})
}

// learnEmpath counts the evil players among the closest living neighbours.
func (e *Engine) learnEmpath(ctx context.Context, p *grimoire.Participant, _ []domain.Seat) error {
	regs := e.registrations(p.Believes)
	left, right := e.grim.Neighbours(p.Seat)
	var neighbours []*grimoire.Participant
	for _, q := range []*grimoire.Participant{left, right} {
		if q != nil && !slices.Contains(neighbours, q) {
			neighbours = append(neighbours, q)
		}
	}
	count := 0
	for _, q := range neighbours {
		if regs[q.Seat].Alignment == domain.Evil {
			count++
		}
	}
	return e.inform(ctx, p, domain.Info{Number: count}, func() []domain.Info {
		return numbers(0, len(neighbours))
	})
}

func (e *Engine) learnFortune(ctx context.Context, p *grimoire.Participant, targets []domain.Seat) error {
	regs := e.registrations(p.Believes)
	yes := false
	for _, t := range targets {
		if regs[t].Kind == domain.Demon || t == e.grim.RedHerring {
			yes = true
		}
	}
	players := slices.Clone(targets)
	return e.inform(ctx, p, domain.Info{Players: players, Yes: yes}, func() []domain.Info {
		return []domain.Info{{Players: players, Yes: !yes}}
	})
}

func (e *Engine) learnUndertaker(ctx context.Context, p *grimoire.Participant, _ []domain.Seat) error {
	ex, ok := e.grim.ExecutedOn(e.grim.Round - 1)
	if !ok {
		return nil
	}
	return e.learnCharacter(ctx, p, ex.Seat)
}

func (e *Engine) learnRavenkeeper(ctx context.Context, p *grimoire.Participant, targets []domain.Seat) error {
	return e.learnCharacter(ctx, p, targets[0])
}

func (e *Engine) learnCharacter(ctx context.Context, p *grimoire.Participant, seat domain.Seat) error {
	r := e.register(seat, p.Believes)
	players := []domain.Seat{seat}
	return e.inform(ctx, p, domain.Info{Players: players, Character: r.Character}, func() []domain.Info {
		var alts []domain.Info
		for _, c := range e.script.Characters() {
			alts = append(alts, domain.Info{Players: players, Character: c})
		}
		return alts
	})
}

// learnGrimoire shows the Spy the whole grimoire. An impaired Spy sees the
// characters shifted by one seat.
func (e *Engine) learnGrimoire(ctx context.Context, p *grimoire.Participant, _ []domain.Seat) error {
	entries := e.grim.Entries()
	return e.inform(ctx, p, domain.Info{Grimoire: entries}, func() []domain.Info {
		shifted := slices.Clone(e.grim.Entries())
		for i := range shifted {
			shifted[i].Character = entries[(i+1)%len(entries)].Character
		}
		return []domain.Info{{Grimoire: shifted}}
	})
}

// evilInfo tells the Minions who the Demon is and the Demon who its Minions are,
// along with the bluffs.
func (e *Engine) evilInfo(ctx context.Context) error {
	if e.grim.Size() < e.script.EvilInfoMinPlayers {
		return nil
	}
	demons := e.grim.LivingDemons()
	if len(demons) == 0 {
		return nil
	}
	demon := demons[0]
	var minions []domain.Seat
	for _, q := range e.grim.Participants {
		if q.Character.Kind() == domain.Minion {
			minions = append(minions, q.Seat)
		}
	}
	for _, seat := range minions {
		players := []domain.Seat{demon.Seat}
		for _, other := range minions {
			if other != seat {
				players = append(players, other)
			}
		}
		m := e.participant(seat)
		if err := e.deliver(ctx, m, m.Character, domain.Info{Players: players, Character: demon.Character}, true); err != nil {
			return err
		}
	}
	return e.deliver(ctx, demon, demon.Character, domain.Info{
		Players:    minions,
		Characters: slices.Clone(e.grim.Bluffs),
	}, true)
}

func numbers(from, to int) []domain.Info {
	var out []domain.Info
	for n := from; n <= to; n++ {
		out = append(out, domain.Info{Number: n})
	}
	return out
}

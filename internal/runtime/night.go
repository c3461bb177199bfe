package runtime

import (
	"context"

	"github.com/aretw0/clocktower/internal/grimoire"
	"github.com/aretw0/clocktower/pkg/domain"
)

// runNight resolves the night queue in script order, from the slot and actor
// the previous Step reached.
func (e *Engine) runNight(ctx context.Context) error {
	first := e.grim.Phase == domain.PhaseFirstNight
	if first && !e.cur.evilInfo {
		if err := e.evilInfo(ctx); err != nil {
			return err
		}
		e.cur.evilInfo = true
	}

	order := e.script.NightOrder(first)
	for ; e.cur.slot < len(order); e.cur.slot++ {
		c := order[e.cur.slot]
		ab, ok := abilities[c]
		if !ok {
			continue
		}
		// Actors are fixed when their slot starts, so a Demon promoted tonight
		// does not act again.
		if e.cur.actors == nil {
			e.cur.actors = []domain.Seat{}
			for _, p := range e.grim.Participants {
				if p.Believes == c {
					e.cur.actors = append(e.cur.actors, p.Seat)
				}
			}
		}
		for ; e.cur.actor < len(e.cur.actors); e.cur.actor++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := e.participant(e.cur.actors[e.cur.actor])
			if !e.wakes(p, ab, first) {
				continue
			}
			if err := e.resolve(ctx, p, ab); err != nil {
				return err
			}
			if over, err := e.checkWin(ctx); err != nil || over {
				return err
			}
		}
		e.cur.actors, e.cur.actor = nil, 0
	}
	return nil
}

// resolve asks for targets when the ability needs them, records the use and applies the effect.
func (e *Engine) resolve(ctx context.Context, p *grimoire.Participant, ab ability) error {
	var targets []domain.Seat
	if ab.arity > 0 {
		schema := domain.ActionSchema{
			Kind:       domain.ActionChooseTargets,
			Ability:    ab.character,
			MinTargets: ab.arity,
			MaxTargets: ab.arity,
			Candidates: e.candidates(p, ab),
		}
		if len(schema.Candidates) < ab.arity {
			e.logger.Debug("ability has no legal targets", "seat", p.Seat, "ability", ab.character)
			return nil
		}
		var err error
		if targets, err = e.chooseTargets(ctx, p.Seat, schema); err != nil {
			if ctx.Err() != nil {
				if discardErr := e.discard(context.WithoutCancel(ctx), p.Seat, schema.Kind, err.Error()); discardErr != nil {
					return discardErr
				}
			}
			return err
		}
	}

	used := domain.NewEvent(domain.EventAbilityUsed, domain.VisibilityPrivate)
	used.Recipients = []domain.Seat{p.Seat}
	used.Actor = p.Seat
	used.Targets = targets
	used.Ability = ab.character
	if _, err := e.emit(ctx, used); err != nil {
		return err
	}
	if ab.oneTime {
		if err := e.spend(ctx, p.Seat, ab.character); err != nil {
			return err
		}
	}
	return ab.resolve(e, ctx, p, targets)
}

func (e *Engine) spend(ctx context.Context, seat domain.Seat, c domain.Character) error {
	evt := domain.NewEvent(domain.EventAbilitySpent, domain.VisibilityStoryteller)
	evt.Actor = seat
	evt.Ability = c
	_, err := e.emit(ctx, evt)
	return err
}

package runtime

import (
	"context"

	"github.com/aretw0/clocktower/internal/grimoire"
	"github.com/aretw0/clocktower/pkg/domain"
)

type nightGate int

const (
	anyNight nightGate = iota
	firstNightOnly
	notFirstNight
)

type resolveFunc func(e *Engine, ctx context.Context, p *grimoire.Participant, targets []domain.Seat) error

// ability describes how a night ability wakes, what it targets and what it does.
type ability struct {
	character domain.Character
	night     nightGate
	arity     int
	allowSelf bool
	allowDead bool
	oneTime   bool
	// onDeath abilities wake only on the night their holder was killed by the Demon.
	onDeath bool
	wakes   func(e *Engine, p *grimoire.Participant) bool
	resolve resolveFunc
}

// abilities is the night ability table. Characters without an entry have a
// passive, setup or day ability and never wake.
var abilities = map[domain.Character]ability{
	domain.Washerwoman:  {character: domain.Washerwoman, night: firstNightOnly, resolve: learnPair(domain.Townsfolk)},
	domain.Librarian:    {character: domain.Librarian, night: firstNightOnly, resolve: learnPair(domain.Outsider)},
	domain.Investigator: {character: domain.Investigator, night: firstNightOnly, resolve: learnPair(domain.Minion)},
	domain.Chef:         {character: domain.Chef, night: firstNightOnly, resolve: (*Engine).learnChef},
	domain.Empath:       {character: domain.Empath, night: anyNight, resolve: (*Engine).learnEmpath},
	domain.FortuneTeller: {
		character: domain.FortuneTeller,
		night:     anyNight,
		arity:     2,
		allowSelf: true,
		allowDead: true,
		resolve:   (*Engine).learnFortune,
	},
	domain.Undertaker: {
		character: domain.Undertaker,
		night:     notFirstNight,
		wakes:     (*Engine).executedYesterday,
		resolve:   (*Engine).learnUndertaker,
	},
	domain.Ravenkeeper: {
		character: domain.Ravenkeeper,
		night:     notFirstNight,
		arity:     1,
		allowSelf: true,
		allowDead: true,
		oneTime:   true,
		onDeath:   true,
		resolve:   (*Engine).learnRavenkeeper,
	},
	domain.Monk:     {character: domain.Monk, night: notFirstNight, arity: 1, resolve: (*Engine).protect},
	domain.Butler:   {character: domain.Butler, night: anyNight, arity: 1, resolve: (*Engine).chooseMaster},
	domain.Poisoner: {character: domain.Poisoner, night: anyNight, arity: 1, allowSelf: true, resolve: (*Engine).poison},
	domain.Spy:      {character: domain.Spy, night: anyNight, resolve: (*Engine).learnGrimoire},
	domain.Imp:      {character: domain.Imp, night: notFirstNight, arity: 1, allowSelf: true, resolve: (*Engine).demonKill},
}

// wakes reports whether the participant's ability resolves in this night.
func (e *Engine) wakes(p *grimoire.Participant, ab ability, first bool) bool {
	if ab.onDeath {
		if p.Alive || !e.grim.DiedTonight(p.Seat) {
			return false
		}
	} else if !p.Alive {
		return false
	}
	if ab.oneTime && p.Spent[ab.character] {
		return false
	}
	if (first && ab.night == notFirstNight) || (!first && ab.night == firstNightOnly) {
		return false
	}
	return ab.wakes == nil || ab.wakes(e, p)
}

func (e *Engine) candidates(p *grimoire.Participant, ab ability) []domain.Seat {
	var out []domain.Seat
	for _, q := range e.grim.Participants {
		if q.Seat == p.Seat && !ab.allowSelf {
			continue
		}
		if !q.Alive && !ab.allowDead {
			continue
		}
		out = append(out, q.Seat)
	}
	return out
}

func (e *Engine) executedYesterday(*grimoire.Participant) bool {
	_, ok := e.grim.ExecutedOn(e.grim.Round - 1)
	return ok
}

func (e *Engine) poison(ctx context.Context, p *grimoire.Participant, targets []domain.Seat) error {
	if p.Impaired() {
		return nil
	}
	return e.applyStatus(ctx, domain.Status{
		Kind:    domain.StatusPoisoned,
		Source:  p.Seat,
		Target:  targets[0],
		Expires: domain.ExpiresAtDusk,
	})
}

func (e *Engine) protect(ctx context.Context, p *grimoire.Participant, targets []domain.Seat) error {
	if p.Impaired() {
		return nil
	}
	return e.applyStatus(ctx, domain.Status{
		Kind:    domain.StatusProtected,
		Source:  p.Seat,
		Target:  targets[0],
		Expires: domain.ExpiresAtDawn,
	})
}

// chooseMaster places the Butler's master token on the chosen player.
func (e *Engine) chooseMaster(ctx context.Context, p *grimoire.Participant, targets []domain.Seat) error {
	if p.Impaired() {
		return nil
	}
	return e.applyStatus(ctx, domain.Status{
		Kind:    domain.StatusMaster,
		Source:  p.Seat,
		Target:  targets[0],
		Expires: domain.ExpiresAtDusk,
	})
}

// masterOf returns the Butler's master for today, or NoSeat.
func (e *Engine) masterOf(butler domain.Seat) domain.Seat {
	for _, q := range e.grim.Participants {
		for _, s := range q.Statuses {
			if s.Kind == domain.StatusMaster && s.Source == butler {
				return q.Seat
			}
		}
	}
	return domain.NoSeat
}

func (e *Engine) demonKill(ctx context.Context, p *grimoire.Participant, targets []domain.Seat) error {
	if p.Impaired() {
		return nil
	}
	if targets[0] == p.Seat {
		if p.Has(domain.StatusProtected) {
			return nil
		}
		return e.passDemon(ctx, p)
	}

	t := e.participant(targets[0])
	if !t.Alive || e.safeFromDemon(t) {
		return nil
	}
	if t.Character == domain.Mayor && !t.Impaired() {
		var others []domain.Seat
		for _, q := range e.grim.Living() {
			if q.Seat != t.Seat && q.Seat != p.Seat {
				others = append(others, q.Seat)
			}
		}
		if alt := e.redirect(e.rng, t.Seat, others); alt != domain.NoSeat {
			t = e.participant(alt)
			if t == nil || !t.Alive || e.safeFromDemon(t) {
				return nil
			}
		}
	}
	return e.kill(ctx, t, domain.CauseDemon)
}

func (e *Engine) safeFromDemon(t *grimoire.Participant) bool {
	return t.Has(domain.StatusProtected) || (t.Character == domain.Soldier && !t.Impaired())
}

// passDemon resolves the Demon killing itself: it dies, and a living Minion
// becomes the Demon. A working Scarlet Woman takes precedence, then the Minion
// in the lowest seat.
func (e *Engine) passDemon(ctx context.Context, demon *grimoire.Participant) error {
	livingBefore := e.grim.LivingCount()
	if err := e.recordDeath(ctx, demon, domain.CauseDemon); err != nil {
		return err
	}
	took, err := e.scarletWoman(ctx, demon, livingBefore)
	if err != nil || took {
		return err
	}
	for _, q := range e.grim.Living() {
		if q.Character.Kind() == domain.Minion {
			return e.promote(ctx, q, demon.Character, "demon_passed")
		}
	}
	return nil
}

// kill records a death and resolves what the death triggers.
func (e *Engine) kill(ctx context.Context, t *grimoire.Participant, cause domain.DeathCause) error {
	livingBefore := e.grim.LivingCount()
	if err := e.recordDeath(ctx, t, cause); err != nil {
		return err
	}
	return e.afterDeath(ctx, t, livingBefore)
}

func (e *Engine) recordDeath(ctx context.Context, t *grimoire.Participant, cause domain.DeathCause) error {
	evt := domain.NewEvent(domain.EventDeath, domain.VisibilityPublic)
	evt.Target = t.Seat
	evt.Cause = cause
	if _, err := e.emit(ctx, evt); err != nil {
		return err
	}
	e.logger.Info("player died", "seat", t.Seat, "cause", cause)
	return nil
}

func (e *Engine) afterDeath(ctx context.Context, dead *grimoire.Participant, livingBefore int) error {
	if dead.Character == domain.Poisoner {
		err := e.clearStatuses(ctx, func(s domain.Status) bool {
			return s.Kind == domain.StatusPoisoned && s.Source == dead.Seat
		})
		if err != nil {
			return err
		}
	}
	if dead.Character.Kind() == domain.Demon {
		_, err := e.scarletWoman(ctx, dead, livingBefore)
		return err
	}
	return nil
}

func (e *Engine) scarletWoman(ctx context.Context, demon *grimoire.Participant, livingBefore int) (bool, error) {
	if livingBefore < e.script.ScarletWomanMinAlive {
		return false, nil
	}
	for _, sw := range e.grim.WithCharacter(domain.ScarletWoman) {
		if sw.Alive && !sw.Impaired() {
			return true, e.promote(ctx, sw, demon.Character, "scarlet_woman")
		}
	}
	return false, nil
}

// promote turns a Minion into the Demon. Only the promoted participant learns it.
func (e *Engine) promote(ctx context.Context, p *grimoire.Participant, demon domain.Character, reason string) error {
	evt := domain.NewEvent(domain.EventCharacterChanged, domain.VisibilityPrivate)
	evt.Recipients = []domain.Seat{p.Seat}
	evt.Target = p.Seat
	evt.Character = demon
	evt.Reason = reason
	if _, err := e.emit(ctx, evt); err != nil {
		return err
	}
	e.logger.Info("demon promoted", "seat", p.Seat, "reason", reason)
	return nil
}

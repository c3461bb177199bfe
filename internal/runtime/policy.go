package runtime

import (
	"math/rand/v2"
	"reflect"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/script"
)

// RegistrationQuery describes one detection: which character is being looked at,
// and which ability is looking.
type RegistrationQuery struct {
	Target domain.Character
	Asker  domain.Character
	Script *script.Script
	InPlay func(domain.Character) bool
	Rand   *rand.Rand
}

// RegistrationPolicy decides how a character registers to a detection ability.
// Only characters that may misregister are affected; everyone else always
// registers as their true character.
type RegistrationPolicy func(q RegistrationQuery) domain.Registration

// MisregisterAlways makes the Recluse register as evil and the Spy as good every time.
func MisregisterAlways(q RegistrationQuery) domain.Registration {
	if r, ok := misregistration(q); ok {
		return r
	}
	return domain.TrueRegistration(q.Target)
}

// NeverMisregister makes everyone register as their true character.
func NeverMisregister(q RegistrationQuery) domain.Registration {
	return domain.TrueRegistration(q.Target)
}

// MisregisterChance misregisters with probability p.
func MisregisterChance(p float64) RegistrationPolicy {
	return func(q RegistrationQuery) domain.Registration {
		if r, ok := misregistration(q); ok && q.Rand.Float64() < p {
			return r
		}
		return domain.TrueRegistration(q.Target)
	}
}

func misregistration(q RegistrationQuery) (domain.Registration, bool) {
	switch q.Target {
	case domain.Recluse:
		// Demon detectors see a Demon, everyone else sees a Minion.
		if q.Asker == domain.FortuneTeller || q.Asker == domain.Slayer {
			return domain.Registration{Alignment: domain.Evil, Kind: domain.Demon, Character: firstOf(q.Script.Demons, nil)}, true
		}
		return domain.Registration{Alignment: domain.Evil, Kind: domain.Minion, Character: firstOf(q.Script.Minions, q.InPlay)}, true
	case domain.Spy:
		return domain.Registration{Alignment: domain.Good, Kind: domain.Townsfolk, Character: firstOf(q.Script.Townsfolk, q.InPlay)}, true
	}
	return domain.Registration{}, false
}

// firstOf returns the first character not in play, or the first one when all are.
func firstOf(from []domain.Character, inPlay func(domain.Character) bool) domain.Character {
	for _, c := range from {
		if inPlay == nil || !inPlay(c) {
			return c
		}
	}
	if len(from) > 0 {
		return from[0]
	}
	return ""
}

// FabricationPolicy picks the false answer delivered to an impaired ability.
// Alternatives never contains the true answer and is never empty.
type FabricationPolicy func(rng *rand.Rand, truth domain.Info, alternatives []domain.Info) domain.Info

// UniformFabrication picks uniformly among the alternatives.
func UniformFabrication(rng *rand.Rand, _ domain.Info, alternatives []domain.Info) domain.Info {
	return alternatives[rng.IntN(len(alternatives))]
}

// FirstFabrication always picks the first alternative, which makes games reproducible
// without a seeded randomness source.
func FirstFabrication(_ *rand.Rand, _ domain.Info, alternatives []domain.Info) domain.Info {
	return alternatives[0]
}

// RedirectPolicy is consulted when the Demon attacks a working Mayor. It returns the
// seat that dies instead, or domain.NoSeat to let the Mayor die.
type RedirectPolicy func(rng *rand.Rand, mayor domain.Seat, candidates []domain.Seat) domain.Seat

// NoRedirect lets the Mayor die.
func NoRedirect(*rand.Rand, domain.Seat, []domain.Seat) domain.Seat {
	return domain.NoSeat
}

// RandomRedirect sends the kill to a random living player other than the Mayor.
func RandomRedirect(rng *rand.Rand, _ domain.Seat, candidates []domain.Seat) domain.Seat {
	if len(candidates) == 0 {
		return domain.NoSeat
	}
	return candidates[rng.IntN(len(candidates))]
}

// register returns how the participant in seat registers to the asking ability.
func (e *Engine) register(seat domain.Seat, asker domain.Character) domain.Registration {
	p := e.participant(seat)
	return e.registration(RegistrationQuery{
		Target: p.Character,
		Asker:  asker,
		Script: e.script,
		InPlay: e.grim.InPlay,
		Rand:   e.rng,
	})
}

func sameInfo(a, b domain.Info) bool {
	return reflect.DeepEqual(a, b)
}

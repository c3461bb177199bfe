package runner

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/aretw0/clocktower/pkg/domain"
)

// RandomProvider answers every request with a uniformly random legal decision.
// It is safe for concurrent use. Each seat draws from its own stream, so a game
// is reproducible for a given seed whatever order concurrent requests arrive in.
type RandomProvider struct {
	mu    sync.Mutex
	seed  uint64
	calls map[domain.Seat]uint64

	// VoteRate is the probability of a "for" hand.
	VoteRate float64
	// NominateRate is the probability of nominating when it is allowed.
	NominateRate float64
	// TalkRate is the probability of speaking when nothing else is chosen.
	TalkRate float64
}

// NewRandomProvider creates a provider seeded with seed.
func NewRandomProvider(seed uint64) *RandomProvider {
	return &RandomProvider{
		seed:         seed,
		calls:        make(map[domain.Seat]uint64),
		VoteRate:     0.5,
		NominateRate: 0.3,
		TalkRate:     0.3,
	}
}

var chatter = []string{
	"I have nothing to share yet.",
	"Someone is lying and I intend to find out who.",
	"My information checks out so far.",
	"I trust my neighbours, for now.",
	"Let's not rush to an execution.",
}

// RequestAction implements ports.DecisionProvider.
func (p *RandomProvider) RequestAction(ctx context.Context, req domain.DecisionRequest) (domain.Decision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rng := p.stream(req.Seat)

	switch req.Schema.Kind {
	case domain.ActionChooseTargets:
		return domain.Decision{"targets": targets(rng, req.Schema)}, nil
	case domain.ActionVote:
		vote := domain.VoteAgainst
		if rng.Float64() < p.VoteRate {
			vote = domain.VoteFor
		}
		return domain.Decision{"vote": string(vote)}, nil
	case domain.ActionDay:
		return p.day(rng, req), nil
	default:
		return nil, fmt.Errorf("unsupported action kind %q", req.Schema.Kind)
	}
}

// stream returns the generator for the next request of seat.
func (p *RandomProvider) stream(seat domain.Seat) *rand.Rand {
	p.mu.Lock()
	n := p.calls[seat]
	p.calls[seat]++
	p.mu.Unlock()
	return rand.New(rand.NewPCG(p.seed, uint64(seat)<<32|n))
}

func targets(rng *rand.Rand, schema domain.ActionSchema) []int {
	n := schema.MinTargets
	if schema.MaxTargets > n {
		n += rng.IntN(schema.MaxTargets - n + 1)
	}
	n = min(n, len(schema.Candidates))
	out := make([]int, 0, n)
	for _, i := range rng.Perm(len(schema.Candidates))[:n] {
		out = append(out, int(schema.Candidates[i]))
	}
	return out
}

func (p *RandomProvider) day(rng *rand.Rand, req domain.DecisionRequest) domain.Decision {
	allowed := req.Schema.Allowed
	switch {
	case slices.Contains(allowed, domain.DaySlayer) && req.View.Character == domain.Slayer && rng.Float64() < 0.5:
		living := slices.DeleteFunc(req.View.Living(), func(s domain.Seat) bool { return s == req.Seat })
		if len(living) > 0 {
			return domain.Decision{"action": string(domain.DaySlayer), "target": int(living[rng.IntN(len(living))])}
		}
	case slices.Contains(allowed, domain.DayNominate) && rng.Float64() < p.NominateRate:
		c := req.Schema.Candidates
		return domain.Decision{"action": string(domain.DayNominate), "target": int(c[rng.IntN(len(c))])}
	case slices.Contains(allowed, domain.DayMessage) && len(req.Schema.Recipients) > 0 && rng.Float64() < p.TalkRate:
		to := req.Schema.Recipients[rng.IntN(len(req.Schema.Recipients))]
		return domain.Decision{
			"action":     string(domain.DayMessage),
			"recipients": []int{int(to)},
			"text":       fmt.Sprintf("I am the %s.", req.View.Character),
		}
	}
	if rng.Float64() < p.TalkRate {
		return domain.Decision{"action": string(domain.DaySay), "text": chatter[rng.IntN(len(chatter))]}
	}
	return domain.Decision{"action": string(domain.DayPass)}
}

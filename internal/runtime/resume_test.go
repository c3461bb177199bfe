package runtime

import (
	"context"
	"testing"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRound(events []domain.Event, round int, keep func(domain.Event) bool) int {
	n := 0
	for _, evt := range events {
		if evt.Round == round && (keep == nil || keep(evt)) {
			n++
		}
	}
	return n
}

func TestNight_ResumesAfterCancellation(t *testing.T) {
	tb := newTable()
	tb.targets[0] = []int{1, 2} // fortune teller
	tb.targets[1] = []int{4}    // imp -> empath
	tb.targets[2] = []int{6}    // poisoner -> washerwoman
	tb.targets[3] = []int{5}    // monk -> chef
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := &interrupter{table: tb, cancel: cancel}

	chars := []domain.Character{domain.FortuneTeller, domain.Imp, domain.Poisoner, domain.Monk, domain.Empath, domain.Chef, domain.Washerwoman}
	e := newGameOn(t, script.TroubleBrewing(), in, chars)
	toDay(t, e)
	toNight(t, e)

	// The fortune teller wakes after the imp has already killed.
	in.arm(func(req domain.DecisionRequest) bool {
		return req.Seat == 0 && req.Schema.Ability == domain.FortuneTeller
	})
	err := e.Step(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, e.participant(4).Alive)

	discarded := eventsOf(e, domain.EventDecisionDiscarded)
	require.Len(t, discarded, 1)
	assert.Equal(t, domain.Seat(0), discarded[0].Actor)
	assert.Equal(t, string(domain.ActionChooseTargets), discarded[0].Text)
	assert.ErrorIs(t, e.Advance(context.Background()), domain.ErrPhaseNotComplete)

	require.NoError(t, e.Step(context.Background()))
	require.NoError(t, e.Advance(context.Background()))

	events := e.Events()
	assert.Len(t, e.grim.Deaths, 1, "the demon kills once")
	assert.Equal(t, 1, countRound(events, 2, func(evt domain.Event) bool {
		return evt.Type == domain.EventAbilityUsed && evt.Ability == domain.Imp
	}))
	assert.Equal(t, 1, countRound(events, 2, func(evt domain.Event) bool {
		return evt.Type == domain.EventStatusApplied && evt.Status.Kind == domain.StatusPoisoned
	}))
	assert.Len(t, knowledgeFor(e, 0, domain.FortuneTeller), 2, "one reading per night")
}

func TestDay_ResumesAfterCancellation(t *testing.T) {
	tb := newTable()
	tb.day = func(domain.DecisionRequest) domain.Decision {
		return domain.Decision{"action": "say", "text": "nothing to report"}
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := &interrupter{table: tb, cancel: cancel}

	cfg := DefaultConfig()
	cfg.DiscussionRounds = 2
	cfg.NominationRounds = 1
	e := newGameOn(t, script.TroubleBrewing(), in, fiveBasic, WithConfig(cfg))
	toDay(t, e)

	// The first request of the second discussion round cancels the day.
	var asked int
	in.arm(func(req domain.DecisionRequest) bool {
		if req.Schema.Kind != domain.ActionDay {
			return false
		}
		asked++
		return asked > len(fiveBasic)
	})
	err := e.Step(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, eventsOf(e, domain.EventDecisionDiscarded), len(fiveBasic))
	assert.Empty(t, eventsOf(e, domain.EventNominationsOpened))

	require.NoError(t, e.Step(context.Background()))
	assert.Len(t, eventsOf(e, domain.EventNominationsOpened), 1)
	assert.Len(t, eventsOf(e, domain.EventStatement), 3*len(fiveBasic), "every round is played exactly once")
	require.NoError(t, e.Advance(context.Background()))
	assert.Equal(t, domain.PhaseNight, e.Phase())
}

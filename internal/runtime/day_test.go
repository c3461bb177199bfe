package runtime

import (
	"context"
	"testing"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sevenBasic = []domain.Character{
	domain.Washerwoman, domain.Librarian, domain.Investigator, domain.Chef, domain.Empath, domain.Poisoner, domain.Imp,
}

func sevenPlayerDay(t *testing.T, tb *table) *Engine {
	t.Helper()
	tb.targets[5] = []int{3}
	e := newGame(t, tb, sevenBasic)
	toDay(t, e)
	openNominations(t, e)
	return e
}

func TestVote_MajorityExecutes(t *testing.T) {
	tb := newTable()
	for _, seat := range []domain.Seat{1, 2, 3, 4} {
		tb.votes[seat] = domain.VoteFor
	}
	e := sevenPlayerDay(t, tb)

	tally, err := e.Nominate(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.Tally{Nomination: 0, For: 4, Living: 7, Threshold: 3, Executed: true}, tally)
	assert.False(t, e.participant(0).Alive)
	require.Len(t, e.grim.Executions, 1)
	assert.Equal(t, domain.Seat(0), e.grim.Executions[0].Seat)
}

func TestVote_HalfDoesNotExecute(t *testing.T) {
	tb := newTable()
	for _, seat := range []domain.Seat{1, 2, 3} {
		tb.votes[seat] = domain.VoteFor
	}
	e := sevenPlayerDay(t, tb)

	tally, err := e.Nominate(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, tally.For)
	assert.False(t, tally.Executed)
	assert.True(t, e.participant(0).Alive)
	assert.Empty(t, e.grim.Executions)
}

func TestVote_ClockwiseFromNominee(t *testing.T) {
	e := sevenPlayerDay(t, newTable())

	_, err := e.Nominate(context.Background(), 0, 4)
	require.NoError(t, err)

	var voters []domain.Seat
	for _, evt := range eventsOf(e, domain.EventVote) {
		voters = append(voters, evt.Vote.Voter)
	}
	assert.Equal(t, []domain.Seat{5, 6, 0, 1, 2, 3, 4}, voters)
}

func TestVote_ExecutionLocksTheDay(t *testing.T) {
	ctx := context.Background()
	tb := newTable()
	for _, seat := range []domain.Seat{0, 1, 2, 3, 4} {
		tb.votes[seat] = domain.VoteFor
	}
	e := sevenPlayerDay(t, tb)

	_, err := e.Nominate(ctx, 1, 0)
	require.NoError(t, err)

	before := e.log.Len()
	_, err = e.Nominate(ctx, 2, 3)
	require.ErrorIs(t, err, domain.ErrConstraintViolation)
	assert.Equal(t, before+1, e.log.Len(), "only the rejection is recorded")
	assert.Len(t, e.grim.Executions, 1)
}

func TestNominate_DoubleNominationRejected(t *testing.T) {
	ctx := context.Background()
	e := sevenPlayerDay(t, newTable())

	_, err := e.Nominate(ctx, 1, 0)
	require.NoError(t, err)

	before := e.log.Len()
	_, err = e.Nominate(ctx, 1, 2)
	require.ErrorIs(t, err, domain.ErrConstraintViolation)
	var ae *ActionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, domain.Seat(1), ae.Actor)

	events := e.log.Since(uint64(before))
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventActionRejected, events[0].Type)
	assert.Equal(t, []domain.Seat{1}, events[0].Recipients)

	_, err = e.Nominate(ctx, 2, 0)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation, "a player can only be nominated once per day")
	assert.Len(t, e.grim.Day.Nominations, 1)
}

func TestNominate_Rejections(t *testing.T) {
	ctx := context.Background()
	tb := newTable()
	tb.targets[5] = []int{3}
	e := newGame(t, tb, sevenBasic)
	toDay(t, e)

	_, err := e.Nominate(ctx, 1, 0)
	assert.ErrorIs(t, err, domain.ErrConstraintViolation, "nominations are not open yet")

	openNominations(t, e)
	_, err = e.Nominate(ctx, 1, 42)
	assert.ErrorIs(t, err, domain.ErrUnknownParticipant)
	_, err = e.Nominate(ctx, 42, 1)
	assert.ErrorIs(t, err, domain.ErrUnknownParticipant)

	require.NoError(t, e.kill(ctx, e.participant(2), domain.CauseDemon))
	_, err = e.Nominate(ctx, 2, 1)
	assert.ErrorIs(t, err, domain.ErrDeadActorIneligible)
	_, err = e.Nominate(ctx, 1, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidTarget)
}

func TestDeadVote_SpentOnlyOnce(t *testing.T) {
	ctx := context.Background()
	tb := newTable()
	tb.votes[3] = domain.VoteFor
	e := sevenPlayerDay(t, tb)
	require.NoError(t, e.kill(ctx, e.participant(3), domain.CauseDemon))

	_, err := e.Nominate(ctx, 0, 1)
	require.NoError(t, err)
	p := e.participant(3)
	assert.False(t, p.DeadVote)

	_, err = e.Nominate(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, p.DeadVote, "a spent dead vote never comes back")

	var spent []domain.Event
	var third domain.Event
	for _, evt := range eventsOf(e, domain.EventVote) {
		if evt.Vote.Voter != 3 {
			continue
		}
		if evt.DeadVoteSpent {
			spent = append(spent, evt)
		}
		third = evt
	}
	assert.Len(t, spent, 1)
	assert.Equal(t, domain.VoteAgainst, third.Vote.Choice, "a dead player without a vote abstains")

	var asked int
	for _, r := range tb.requestsOf(domain.ActionVote) {
		if r.Seat == 3 {
			asked++
		}
	}
	assert.Equal(t, 1, asked, "the dead without a vote are not asked")
}

func TestVirgin(t *testing.T) {
	cases := []struct {
		name      string
		nominator domain.Character
		policy    VirginPolicy
		executed  domain.Seat
	}{
		{name: "townsfolk nominator executes the virgin", nominator: domain.Chef, executed: 0},
		{name: "nominator policy executes the townsfolk", nominator: domain.Chef, policy: ExecuteNominator, executed: 1},
		{name: "spy registers good but is a minion", nominator: domain.Spy, executed: domain.NoSeat},
		{name: "drunk is an outsider", nominator: domain.Drunk, executed: domain.NoSeat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			chars := []domain.Character{domain.Virgin, tc.nominator, domain.Imp, domain.Empath, domain.Soldier}
			if tc.nominator != domain.Spy {
				chars[3] = domain.Baron
			}
			cfg := DefaultConfig()
			if tc.policy != "" {
				cfg.VirginPolicy = tc.policy
			}
			e := newGame(t, newTable(), chars, WithConfig(cfg))
			toDay(t, e)
			openNominations(t, e)

			_, err := e.Nominate(ctx, 1, 0)
			require.NoError(t, err)
			assert.True(t, e.participant(0).Spent[domain.Virgin], "the virgin is spent either way")

			if tc.executed != domain.NoSeat {
				assert.False(t, e.participant(tc.executed).Alive)
				assert.True(t, e.participant(1-tc.executed).Alive)
				require.Len(t, e.grim.Executions, 1)
				assert.Equal(t, tc.executed, e.grim.Executions[0].Seat)
				assert.Equal(t, "virgin", e.grim.Executions[0].Reason)
				assert.Empty(t, eventsOf(e, domain.EventVoteClosed), "no vote happens")
				_, err = e.Nominate(ctx, 3, 4)
				assert.ErrorIs(t, err, domain.ErrConstraintViolation)
				return
			}
			assert.True(t, e.participant(0).Alive)
			assert.True(t, e.participant(1).Alive)
			assert.Len(t, eventsOf(e, domain.EventVoteClosed), 1, "the nomination goes to a vote")
		})
	}
}

func TestSaint_ExecutionLosesTheGame(t *testing.T) {
	tb := newTable()
	for _, seat := range []domain.Seat{1, 2, 3} {
		tb.votes[seat] = domain.VoteFor
	}
	chars := []domain.Character{domain.Saint, domain.Imp, domain.Baron, domain.Chef, domain.Empath}
	e := newGame(t, tb, chars)
	toDay(t, e)
	openNominations(t, e)

	_, err := e.Nominate(context.Background(), 3, 0)
	require.NoError(t, err)
	over, winner, reason := e.Result()
	assert.True(t, over)
	assert.Equal(t, domain.Evil, winner)
	assert.Equal(t, ReasonSaintExecuted, reason)
}

func TestButler_VotesOnlyWithMaster(t *testing.T) {
	tb := newTable()
	chars := []domain.Character{domain.Butler, domain.Imp, domain.Poisoner, domain.Chef, domain.Empath}
	tb.targets[0] = []int{3} // master: chef
	tb.targets[2] = []int{4}
	tb.votes[0] = domain.VoteFor
	e := newGame(t, tb, chars)
	toDay(t, e)
	openNominations(t, e)

	_, err := e.Nominate(context.Background(), 3, 1)
	require.NoError(t, err)
	for _, evt := range eventsOf(e, domain.EventVote) {
		if evt.Vote.Voter == 0 {
			assert.Equal(t, domain.VoteAgainst, evt.Vote.Choice)
		}
	}

	tb.votes[3] = domain.VoteFor
	_, err = e.Nominate(context.Background(), 4, 2)
	require.NoError(t, err)
	closed := eventsOf(e, domain.EventVoteClosed)
	require.Len(t, closed, 2)
	assert.Equal(t, 2, closed[1].Tally.For, "the butler follows the master's raised hand")
}

func TestSlayer(t *testing.T) {
	ctx := context.Background()

	t.Run("hits the demon", func(t *testing.T) {
		chars := []domain.Character{domain.Slayer, domain.Imp, domain.Baron, domain.Chef, domain.Empath}
		e := newGame(t, newTable(), chars)
		toDay(t, e)

		require.NoError(t, e.Slay(ctx, 0, 1))
		over, winner, _ := e.Result()
		assert.True(t, over)
		assert.Equal(t, domain.Good, winner)
	})

	t.Run("misses anyone else and is spent", func(t *testing.T) {
		chars := []domain.Character{domain.Slayer, domain.Imp, domain.Baron, domain.Chef, domain.Empath}
		e := newGame(t, newTable(), chars)
		toDay(t, e)

		require.NoError(t, e.Slay(ctx, 0, 2))
		assert.True(t, e.participant(2).Alive)
		assert.ErrorIs(t, e.Slay(ctx, 0, 1), domain.ErrConstraintViolation)
		assert.True(t, e.participant(1).Alive)
	})

	t.Run("kills a recluse registering as the demon", func(t *testing.T) {
		chars := []domain.Character{domain.Slayer, domain.Imp, domain.Recluse, domain.Chef, domain.Baron}
		e := newGame(t, newTable(), chars)
		toDay(t, e)

		require.NoError(t, e.Slay(ctx, 0, 2))
		assert.False(t, e.participant(2).Alive)
	})

	t.Run("a bluffing slayer never kills", func(t *testing.T) {
		chars := []domain.Character{domain.Chef, domain.Imp, domain.Baron, domain.Slayer, domain.Empath}
		e := newGame(t, newTable(), chars)
		toDay(t, e)

		require.NoError(t, e.Slay(ctx, 0, 1))
		assert.True(t, e.participant(1).Alive)
		shots := eventsOf(e, domain.EventSlayerShot)
		require.Len(t, shots, 1)
		assert.Equal(t, "miss", shots[0].Reason)
	})
}

func TestMayor_WinsWithThreeAliveAndNoExecution(t *testing.T) {
	ctx := context.Background()
	tb := newTable()
	chars := []domain.Character{domain.Mayor, domain.Imp, domain.Poisoner, domain.Chef, domain.Empath}
	tb.targets[2] = []int{3}
	e := newGame(t, tb, chars)
	toDay(t, e)
	require.NoError(t, e.kill(ctx, e.participant(3), domain.CauseDemon))
	require.NoError(t, e.kill(ctx, e.participant(4), domain.CauseDemon))

	require.NoError(t, e.Step(ctx))
	over, winner, reason := e.Result()
	assert.True(t, over)
	assert.Equal(t, domain.Good, winner)
	assert.Equal(t, ReasonMayor, reason)
}

func TestTwoAlive_EvilWins(t *testing.T) {
	ctx := context.Background()
	e := newGame(t, newTable(), fiveBasic)
	toDay(t, e)
	require.NoError(t, e.kill(ctx, e.participant(0), domain.CauseDemon))
	require.NoError(t, e.kill(ctx, e.participant(3), domain.CauseDemon))
	require.NoError(t, e.kill(ctx, e.participant(4), domain.CauseDemon))

	over, err := e.checkWin(ctx)
	require.NoError(t, err)
	assert.True(t, over)
	_, winner, reason := e.Result()
	assert.Equal(t, domain.Evil, winner)
	assert.Equal(t, ReasonTwoAlive, reason)
}

func TestSay_PrivateMessages(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.MessagesPerDay = 1
	e := newGame(t, newTable(), fiveBasic, WithConfig(cfg))
	toDay(t, e)

	require.NoError(t, e.Say(ctx, 0, []domain.Seat{3}, "I am the washerwoman"))
	err := e.Say(ctx, 0, []domain.Seat{4}, "me too")
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)

	v3, err := e.View(3)
	require.NoError(t, err)
	v4, err := e.View(4)
	require.NoError(t, err)

	found := false
	for _, evt := range v3.Private {
		if evt.Type == domain.EventStatement && evt.Text == "I am the washerwoman" {
			found = true
		}
	}
	assert.True(t, found)
	for _, evt := range append(v4.Private, v4.Public...) {
		assert.NotEqual(t, "I am the washerwoman", evt.Text)
	}

	openNominations(t, e)
	assert.ErrorIs(t, e.Say(ctx, 1, []domain.Seat{2}, "late"), domain.ErrConstraintViolation)
	require.NoError(t, e.Say(ctx, 1, nil, "public"))
}

func TestDay_ProviderDrivenNominationAndDiscard(t *testing.T) {
	tb := newTable()
	tb.targets[5] = []int{3}
	for _, seat := range []domain.Seat{0, 1, 2, 3, 4} {
		tb.votes[seat] = domain.VoteFor
	}
	// Every living player tries to nominate the demon once nominations are open.
	tb.day = func(req domain.DecisionRequest) domain.Decision {
		for _, a := range req.Schema.Allowed {
			if a == domain.DayNominate {
				return domain.Decision{"action": "nominate", "target": 6, "notes": "imp?"}
			}
		}
		return domain.Decision{"action": "pass"}
	}
	e := newGame(t, tb, sevenBasic)
	toDay(t, e)
	require.NoError(t, e.Step(context.Background()))

	over, winner, reason := e.Result()
	assert.True(t, over)
	assert.Equal(t, domain.Good, winner)
	assert.Equal(t, ReasonDemonDead, reason)

	assert.Len(t, eventsOf(e, domain.EventNomination), 1)
	assert.NotEmpty(t, eventsOf(e, domain.EventDecisionDiscarded), "actions gathered after the game ended are discarded")
}

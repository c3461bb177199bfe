package grimoire

import (
	"testing"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feed struct {
	t *testing.T
	g *Grimoire
}

func (f *feed) next(evt domain.Event) error {
	evt.Seq = f.g.LastSeq + 1
	if evt.Round == 0 {
		evt.Round = f.g.Round
		evt.Phase = f.g.Phase
	}
	return f.g.Apply(evt)
}

func (f *feed) must(evt domain.Event) {
	f.t.Helper()
	require.NoError(f.t, f.next(evt))
	require.NoError(f.t, f.g.Check())
}

var table = []domain.Character{domain.Chef, domain.Imp, domain.Poisoner, domain.Empath, domain.Monk}

func setUp(t *testing.T) *feed {
	t.Helper()
	f := &feed{t: t, g: New()}
	setup := domain.NewEvent(domain.EventGameSetup, domain.VisibilityStoryteller)
	setup.Setup = &domain.Setup{Script: "trouble_brewing", RedHerring: 3, Bluffs: []domain.Character{domain.Mayor}}
	for i, c := range table {
		setup.Setup.Seats = append(setup.Setup.Seats, domain.SeatAssignment{
			Seat: domain.Seat(i), Name: string(rune('A' + i)), Character: c, Believes: c,
		})
	}
	f.must(setup)
	f.must(phase(domain.PhaseFirstNight, 1))
	return f
}

func phase(p domain.Phase, round int) domain.Event {
	evt := domain.NewEvent(domain.EventPhaseChanged, domain.VisibilityPublic)
	evt.Phase = p
	evt.Round = round
	return evt
}

func death(seat domain.Seat, cause domain.DeathCause) domain.Event {
	evt := domain.NewEvent(domain.EventDeath, domain.VisibilityPublic)
	evt.Target = seat
	evt.Cause = cause
	return evt
}

func TestApply_Setup(t *testing.T) {
	f := setUp(t)
	g := f.g

	assert.Equal(t, 5, g.Size())
	assert.Equal(t, domain.Seat(3), g.RedHerring)
	assert.True(t, g.InPlay(domain.Imp))
	assert.False(t, g.InPlay(domain.Mayor))
	require.Len(t, g.LivingDemons(), 1)
	assert.Equal(t, domain.Seat(1), g.LivingDemons()[0].Seat)
	assert.Nil(t, g.Participant(5))
	assert.Nil(t, g.Participant(-1))

	err := f.next(domain.Event{Type: domain.EventGameSetup, Setup: &domain.Setup{}})
	var applyErr *ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Contains(t, applyErr.Reason, "already set up")
}

func TestApply_RejectsSequenceGap(t *testing.T) {
	f := setUp(t)
	evt := phase(domain.PhaseDay, 1)
	evt.Seq = f.g.LastSeq + 2
	assert.ErrorContains(t, f.g.Apply(evt), "expected seq")
}

func TestNeighbours_SkipDead(t *testing.T) {
	f := setUp(t)
	left, right := f.g.Neighbours(0)
	assert.Equal(t, domain.Seat(4), left.Seat)
	assert.Equal(t, domain.Seat(1), right.Seat)

	f.must(death(1, domain.CauseDemon))
	f.must(death(4, domain.CauseDemon))
	left, right = f.g.Neighbours(0)
	assert.Equal(t, domain.Seat(3), left.Seat)
	assert.Equal(t, domain.Seat(2), right.Seat)
	assert.Equal(t, 3, f.g.LivingCount())
	assert.Equal(t, []domain.Seat{0, 2, 3}, f.g.LivingSeats())
	assert.True(t, f.g.DiedTonight(1))

	assert.ErrorContains(t, f.next(death(1, domain.CauseDemon)), "already dead")
}

func TestStatuses(t *testing.T) {
	f := setUp(t)
	poison := domain.Status{Kind: domain.StatusPoisoned, Source: 2, Target: 0, Expires: domain.ExpiresAtDusk}

	applied := domain.NewEvent(domain.EventStatusApplied, domain.VisibilityStoryteller)
	applied.Status = &poison
	f.must(applied)
	f.must(applied)
	assert.True(t, f.g.Participant(0).Impaired())
	assert.Equal(t, []domain.StatusKind{domain.StatusPoisoned}, f.g.Entries()[0].Statuses, "rows list each kind once")

	cleared := domain.NewEvent(domain.EventStatusCleared, domain.VisibilityStoryteller)
	cleared.Status = &poison
	f.must(cleared)
	f.must(cleared)
	assert.False(t, f.g.Participant(0).Impaired())
	assert.ErrorContains(t, f.next(cleared), "has no poisoned status")
}

func TestDeadVote(t *testing.T) {
	f := setUp(t)
	f.must(death(3, domain.CauseDemon))
	f.must(phase(domain.PhaseDay, 1))

	nomination := domain.NewEvent(domain.EventNomination, domain.VisibilityPublic)
	nomination.Nomination = &domain.Nomination{Index: 0, Nominator: 0, Nominee: 2, Day: 1}
	f.must(nomination)

	vote := domain.NewEvent(domain.EventVote, domain.VisibilityPublic)
	vote.Vote = &domain.Vote{Voter: 3, Nomination: 0, Choice: domain.VoteFor}
	vote.DeadVoteSpent = true
	f.must(vote)
	assert.False(t, f.g.Participant(3).DeadVote)
	assert.True(t, f.g.DeadVoteSpent(3))
	assert.ErrorContains(t, f.next(vote), "already voted")

	again := domain.NewEvent(domain.EventNomination, domain.VisibilityPublic)
	again.Nomination = &domain.Nomination{Index: 1, Nominator: 1, Nominee: 4, Day: 1}
	f.must(again)
	vote.Vote = &domain.Vote{Voter: 3, Nomination: 1, Choice: domain.VoteFor}
	assert.ErrorContains(t, f.next(vote), "no dead vote")

	living := domain.NewEvent(domain.EventVote, domain.VisibilityPublic)
	living.Vote = &domain.Vote{Voter: 0, Nomination: 1, Choice: domain.VoteFor}
	living.DeadVoteSpent = true
	assert.ErrorContains(t, f.next(living), "no dead vote")
}

func TestExecution(t *testing.T) {
	f := setUp(t)
	f.must(death(2, domain.CauseDemon))
	f.must(phase(domain.PhaseDay, 1))

	exec := domain.NewEvent(domain.EventExecution, domain.VisibilityPublic)
	exec.Target = 2
	exec.Round = 1
	exec.Reason = "vote"
	f.must(exec)
	assert.Len(t, f.g.Deaths, 1, "a dead nominee does not die again")
	got, ok := f.g.ExecutedOn(1)
	require.True(t, ok)
	assert.Equal(t, domain.Seat(2), got.Seat)

	exec.Target = 0
	assert.ErrorContains(t, f.next(exec), "already happened today")

	f.must(phase(domain.PhaseNight, 2))
	f.must(phase(domain.PhaseDay, 2))
	exec.Round = 2
	f.must(exec)
	assert.False(t, f.g.Participant(0).Alive)
	assert.Equal(t, domain.CauseExecution, f.g.Deaths[len(f.g.Deaths)-1].Cause)
}

func TestCheck_TwoDemons(t *testing.T) {
	f := setUp(t)
	changed := domain.NewEvent(domain.EventCharacterChanged, domain.VisibilityPrivate)
	changed.Target = 2
	changed.Character = domain.Imp
	require.NoError(t, f.next(changed))

	err := f.g.Check()
	var inv *InvariantError
	require.ErrorAs(t, err, &inv)
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	assert.Equal(t, f.g.LastSeq, inv.Seq)

	changed.Character = "wizard"
	assert.ErrorContains(t, f.next(changed), "unknown character")
}

func TestKnowledge(t *testing.T) {
	f := setUp(t)
	item := domain.NewEvent(domain.EventKnowledge, domain.VisibilityPrivate)
	item.Recipients = []domain.Seat{0}
	item.Knowledge = &domain.KnowledgeItem{ID: "chef-1", Recipient: 0, Ability: domain.Chef}
	f.must(item)
	assert.ErrorContains(t, f.next(item), "delivered twice")

	item.Knowledge = &domain.KnowledgeItem{ID: "chef-2", Recipient: 1}
	assert.ErrorContains(t, f.next(item), "exactly one recipient")
}

func TestGameOver_FreezesState(t *testing.T) {
	f := setUp(t)
	over := domain.NewEvent(domain.EventGameOver, domain.VisibilityPublic)
	over.Winner = domain.Good
	over.Reason = "demon dead"
	f.must(over)
	assert.Equal(t, domain.PhaseGameOver, f.g.Phase)

	f.must(domain.NewEvent(domain.EventDecisionDiscarded, domain.VisibilityStoryteller))
	assert.ErrorContains(t, f.next(phase(domain.PhaseDay, 1)), "game is over")
}

func TestPublic(t *testing.T) {
	f := setUp(t)
	f.must(death(4, domain.CauseDemon))
	players := f.g.Public()
	require.Len(t, players, 5)
	assert.Equal(t, domain.PublicPlayer{Seat: 4, Name: "E", Alive: false, DeadVote: true}, players[4])
}

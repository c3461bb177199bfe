package runner_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aretw0/clocktower/internal/runtime"
	"github.com/aretw0/clocktower/pkg/adapters/memory"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
	"github.com/aretw0/clocktower/pkg/runner"
	"github.com/aretw0/clocktower/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineGame struct {
	*runtime.Engine
	id string
}

func (g engineGame) ID() string { return g.id }

var players = []string{"Ann", "Bob", "Cat", "Dan", "Eve", "Fay", "Gus"}

func newGame(t *testing.T, provider ports.DecisionProvider, seed uint64) engineGame {
	t.Helper()
	e := runtime.NewEngine(nil, provider, runtime.WithSeed(seed))
	require.NoError(t, e.Setup(context.Background(), players, nil))
	return engineGame{Engine: e, id: "game-1"}
}

func TestRunner_PersistsWholeLog(t *testing.T) {
	store := memory.NewStore()
	g := newGame(t, runner.NewRandomProvider(1), 1)
	r := runner.NewRunner(runner.WithStore(store))

	require.NoError(t, r.Run(context.Background(), g))

	over, _, _ := g.Result()
	assert.True(t, over)
	stored, err := store.Load(context.Background(), "game-1")
	require.NoError(t, err)
	assert.Equal(t, g.Events(), stored)
	assert.Equal(t, stored[len(stored)-1].Seq, r.Persisted())
	assert.Equal(t, domain.EventGameOver, stored[len(stored)-1].Type)
}

func TestRunner_ThroughSessions(t *testing.T) {
	store := memory.NewStore()
	g := newGame(t, runner.NewRandomProvider(2), 2)
	r := runner.NewRunner(runner.WithSessions(session.NewManager(store)))

	require.NoError(t, r.Run(context.Background(), g))
	stored, err := store.Load(context.Background(), "game-1")
	require.NoError(t, err)
	assert.Len(t, stored, len(g.Events()))
}

func TestRunner_CancelledGameKeepsItsLog(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	provider := ports.DecisionFunc(func(reqCtx context.Context, req domain.DecisionRequest) (domain.Decision, error) {
		if req.Schema.Kind == domain.ActionDay {
			cancel()
			<-reqCtx.Done()
			return nil, reqCtx.Err()
		}
		return runner.NewRandomProvider(3).RequestAction(reqCtx, req)
	})
	g := newGame(t, provider, 3)
	r := runner.NewRunner(runner.WithStore(store))

	err := r.Run(ctx, g)
	require.ErrorIs(t, err, context.Canceled)

	stored, err := store.Load(context.Background(), "game-1")
	require.NoError(t, err)
	assert.Equal(t, g.Events(), stored, "every emitted event is persisted, discards included")
}

type failingStore struct{ ports.EventStore }

func (failingStore) Append(context.Context, string, ...domain.Event) error {
	return errors.New("disk full")
}

func TestRunner_PersistenceFailureStopsTheGame(t *testing.T) {
	g := newGame(t, runner.NewRandomProvider(4), 4)
	r := runner.NewRunner(runner.WithStore(failingStore{memory.NewStore()}))

	err := r.Run(context.Background(), g)
	require.ErrorContains(t, err, "disk full")
	over, _, _ := g.Result()
	assert.False(t, over)
}

func TestRunner_NarratesPublicEvents(t *testing.T) {
	var out bytes.Buffer
	g := newGame(t, runner.NewRandomProvider(5), 5)
	r := runner.NewRunner(runner.WithNarrator(runner.NewTextNarrator(&out)))

	require.NoError(t, r.Run(context.Background(), g))
	text := out.String()
	assert.Contains(t, text, "== first_night 1 ==")
	assert.Contains(t, text, "Game over:")
	assert.NotContains(t, text, "red_herring")
}

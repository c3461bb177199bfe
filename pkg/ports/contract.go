package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractEvents(from, n int) []domain.Event {
	events := make([]domain.Event, 0, n)
	for i := 0; i < n; i++ {
		evt := domain.NewEvent(domain.EventStatement, domain.VisibilityPublic)
		evt.Seq = uint64(from + i)
		evt.Round = 1
		evt.Phase = domain.PhaseDay
		evt.Actor = domain.Seat(i % 5)
		evt.Text = "hello"
		events = append(events, evt)
	}
	return events
}

// RunEventStoreContract runs a suite of tests to verify that an EventStore implementation
// adheres to the defined interface contract.
func RunEventStoreContract(t *testing.T, store EventStore) {
	ctx := context.Background()
	gameID := "contract-test-game-" + time.Now().Format("20060102150405")

	t.Run("Append and Load", func(t *testing.T) {
		id := gameID + "-append"
		defer func() { _ = store.Delete(ctx, id) }()

		require.NoError(t, store.Append(ctx, id, contractEvents(1, 3)...))
		require.NoError(t, store.Append(ctx, id, contractEvents(4, 2)...))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		require.Len(t, loaded, 5)
		for i, evt := range loaded {
			assert.Equal(t, uint64(i+1), evt.Seq)
			assert.Equal(t, domain.EventStatement, evt.Type)
			assert.Equal(t, "hello", evt.Text)
			assert.Equal(t, domain.NoSeat, evt.Target)
		}
	})

	t.Run("Append Rejects Gaps", func(t *testing.T) {
		id := gameID + "-gap"
		defer func() { _ = store.Delete(ctx, id) }()

		require.NoError(t, store.Append(ctx, id, contractEvents(1, 2)...))
		err := store.Append(ctx, id, contractEvents(4, 1)...)
		var gap *SequenceGapError
		require.ErrorAs(t, err, &gap)
		assert.Equal(t, uint64(3), gap.Expected)

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Len(t, loaded, 2, "a rejected append must not store anything")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+gameID)
		assert.ErrorIs(t, err, domain.ErrGameNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := gameID + "-delete"
		require.NoError(t, store.Append(ctx, id, contractEvents(1, 1)...))

		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrGameNotFound, "Load after Delete should return ErrGameNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := gameID + "-1"
		id2 := gameID + "-2"
		_ = store.Append(ctx, id1, contractEvents(1, 1)...)
		_ = store.Append(ctx, id2, contractEvents(1, 1)...)

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		games, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, games, id1)
		assert.Contains(t, games, id2)
	})
}

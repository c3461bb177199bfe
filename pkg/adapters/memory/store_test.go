package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/clocktower/pkg/adapters/memory"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunEventStoreContract(t, store)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	evt := domain.NewEvent(domain.EventStatement, domain.VisibilityPrivate)
	evt.Seq = 1
	evt.Recipients = []domain.Seat{0, 2}
	require.NoError(t, store.Append(ctx, "g1", evt))

	loaded, err := store.Load(ctx, "g1")
	require.NoError(t, err)
	loaded[0].Recipients[0] = 4

	again, err := store.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Seat{0, 2}, again[0].Recipients)
}

package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/clocktower/pkg/adapters/redis"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func statement(seq uint64, actor domain.Seat) domain.Event {
	evt := domain.NewEvent(domain.EventStatement, domain.VisibilityPublic)
	evt.Seq = seq
	evt.Actor = actor
	evt.Text = "hi"
	return evt
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ports.RunEventStoreContract(t, store)
}

func TestRedisStore_TTL(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithTTL(time.Minute), redis.WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "g1", statement(1, 0)))
	assert.Equal(t, time.Minute, mr.TTL("test:g1:events"))

	games, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, games)

	mr.FastForward(2 * time.Minute)
	_, err = store.Load(ctx, "g1")
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
}

func TestRedisStore_ConcurrentAppendsKeepSequence(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "g1", statement(1, 0)))

	// Every writer races for seq 2; exactly one may win.
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Append(ctx, "g1", statement(2, domain.Seat(i)))
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)

	loaded, err := store.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

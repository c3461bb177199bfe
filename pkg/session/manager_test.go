package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/clocktower/pkg/adapters/memory"
	"github.com/aretw0/clocktower/pkg/adapters/redis"
	"github.com/aretw0/clocktower/pkg/domain"
	"github.com/aretw0/clocktower/pkg/ports"
	"github.com/aretw0/clocktower/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(seq uint64) domain.Event {
	evt := domain.NewEvent(domain.EventStatement, domain.VisibilityPublic)
	evt.Seq = seq
	return evt
}

// TestManager_SerialisesReadModifyWrite appends by reading the last seq first; without
// the game lock concurrent writers would collide on the same seq.
func TestManager_SerialisesReadModifyWrite(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()
	const writers = 20

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := mgr.WithLock(ctx, "g1", func(ctx context.Context) error {
				events, err := mgr.Store().Load(ctx, "g1")
				if err != nil && !errors.Is(err, domain.ErrGameNotFound) {
					return err
				}
				time.Sleep(time.Millisecond)
				return mgr.Store().Append(ctx, "g1", event(uint64(len(events))+1))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	events, err := mgr.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, events, writers)
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	locker := redis.NewLocker(client, "test:")
	store := redis.NewFromClient(client)
	replicaA := session.NewManager(store, session.WithLocker(locker))
	replicaB := session.NewManager(store, session.WithLocker(locker), session.WithLockTTL(time.Second))
	ctx := context.Background()

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = replicaA.WithLock(ctx, "g1", func(context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	blocked, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	err := replicaB.Append(blocked, "g1", event(1))
	assert.ErrorIs(t, err, context.DeadlineExceeded, "another replica holds the game")

	close(done)
	require.Eventually(t, func() bool {
		return replicaB.Append(ctx, "g1", event(1)) == nil
	}, 2*time.Second, 20*time.Millisecond)
	assert.False(t, mr.Exists("test:lock:g1"))
}

func TestManager_DelegatesToStore(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	ctx := context.Background()

	require.NoError(t, mgr.Append(ctx, "g1", event(1), event(2)))
	var gap *ports.SequenceGapError
	require.ErrorAs(t, mgr.Append(ctx, "g1", event(4)), &gap)

	games, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, games)

	require.NoError(t, mgr.Delete(ctx, "g1"))
	_, err = mgr.Load(ctx, "g1")
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
}

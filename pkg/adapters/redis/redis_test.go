package redis_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/adapters/redis"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/domain"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/ports"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunStateStoreContract(t, redis.NewStore(client, "vibe:"))
}

func TestStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewStore(client, "custom:app:")
	ctx := context.Background()

	err := store.Put(ctx, domain.ConversationState{
		ConversationID: "c1",
		WorkflowName:   "development",
		CurrentState:   "explore",
	})
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:conversation:c1"))
}

func TestLocker_MutualExclusion(t *testing.T) {
	_, client := newClient(t)
	locker := redis.NewLocker(client, "vibe:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "c1", time.Minute)
	require.NoError(t, err)

	// A second acquire must wait until the first releases.
	var acquired sync.WaitGroup
	acquired.Add(1)
	gotLock := make(chan time.Time, 1)
	go func() {
		defer acquired.Done()
		u, err := locker.Lock(ctx, "c1", time.Minute)
		assert.NoError(t, err)
		gotLock <- time.Now()
		assert.NoError(t, u(ctx))
	}()

	time.Sleep(100 * time.Millisecond)
	select {
	case <-gotLock:
		t.Fatal("second locker acquired while the first still holds the lock")
	default:
	}

	released := time.Now()
	require.NoError(t, unlock(ctx))
	acquired.Wait()

	when := <-gotLock
	assert.True(t, when.After(released), "second acquire completes only after release")
}

func TestLocker_ContextCancel(t *testing.T) {
	_, client := newClient(t)
	locker := redis.NewLocker(client, "vibe:")

	unlock, err := locker.Lock(context.Background(), "c1", time.Minute)
	require.NoError(t, err)
	defer unlock(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "c1", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocker_UnlockOnlyReleasesOwnLock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "vibe:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "c1", time.Minute)
	require.NoError(t, err)

	// Simulate expiry and reacquisition by another holder.
	mr.FastForward(2 * time.Minute)
	other, err := locker.Lock(ctx, "c1", time.Minute)
	require.NoError(t, err)

	// The stale unlock is value-checked and must not delete the new lock.
	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("vibe:lock:c1"))

	require.NoError(t, other(ctx))
	assert.False(t, mr.Exists("vibe:lock:c1"))
}

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/necyberteam/qabot/pkg/adapters/redis"
)

func TestLocker_MutualExclusion(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	locker := redis.NewLocker(client, "qabot:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)

	// A second acquisition times out while the first is held.
	shortCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(shortCtx, "session-1", time.Minute)
	assert.ErrorIs(t, err, redis.ErrLockAcquire)

	// Different keys do not contend.
	otherUnlock, err := locker.Lock(ctx, "session-2", time.Minute)
	require.NoError(t, err)
	require.NoError(t, otherUnlock(ctx))

	// Once released, the lock is free again.
	require.NoError(t, unlock(ctx))
	unlock2, err := locker.Lock(ctx, "session-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

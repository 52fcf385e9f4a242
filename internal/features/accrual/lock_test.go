package accrual

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/invest-bot/internal/common"
)

func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewRedisLocker(rdb, "test")

	release, err := l.Acquire(ctx, "accrual:p1", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:lock:accrual:p1"))

	_, err = l.Acquire(ctx, "accrual:p1", time.Minute)
	assert.ErrorIs(t, err, common.ErrAccrualLocked)

	release()
	assert.False(t, mr.Exists("test:lock:accrual:p1"))

	release2, err := l.Acquire(ctx, "accrual:p1", time.Minute)
	require.NoError(t, err)
	defer release2()
}

func TestRedisLockerReleaseKeepsForeignLock(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	l := NewRedisLocker(rdb, "test")
	release, err := l.Acquire(ctx, "accrual:p1", time.Minute)
	require.NoError(t, err)

	// наш ключ истёк, блокировку взяла другая реплика
	mr.FastForward(2 * time.Minute)
	require.NoError(t, mr.Set("test:lock:accrual:p1", "other"))

	release()
	v, err := mr.Get("test:lock:accrual:p1")
	require.NoError(t, err)
	assert.Equal(t, "other", v)
}

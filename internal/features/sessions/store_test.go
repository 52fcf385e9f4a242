package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, "test"), mr
}

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	st, mr := newStore(t)

	_, ok, err := st.Get(ctx, 42, WithdrawCard)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Set(ctx, 42, WithdrawCard, "4111", 0))
	v, ok, err := st.Get(ctx, 42, WithdrawCard)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "4111", v)

	// ключ с пространством имён и ttl по умолчанию
	assert.True(t, mr.Exists("test:42:withdraw_card"))
	assert.Equal(t, DefaultTTL, mr.TTL("test:42:withdraw_card"))

	// у другого пользователя своё состояние
	assert.False(t, st.Has(ctx, 43, WithdrawCard))
}

func TestStateExpires(t *testing.T) {
	ctx := context.Background()
	st, mr := newStore(t)

	require.NoError(t, st.Set(ctx, 1, AwaitingCard, "1", time.Minute))
	assert.True(t, st.Has(ctx, 1, AwaitingCard))

	mr.FastForward(2 * time.Minute)
	assert.False(t, st.Has(ctx, 1, AwaitingCard))
}

func TestInt64(t *testing.T) {
	ctx := context.Background()
	st, mr := newStore(t)

	require.NoError(t, st.SetInt64(ctx, 7, PendingInvestment, 123, 0))
	v, ok, err := st.GetInt64(ctx, 7, PendingInvestment)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(123), v)

	require.NoError(t, mr.Set("test:7:pending_investment", "abc"))
	_, ok, err = st.GetInt64(ctx, 7, PendingInvestment)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestIncrSetsTTLOnFirstIncrement(t *testing.T) {
	ctx := context.Background()
	st, mr := newStore(t)
	key := "test:5:login_attempts"

	n, err := st.Incr(ctx, 5, LoginAttempts, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Hour, mr.TTL(key))

	// окно отсчитывается от первой попытки, а не продлевается
	mr.FastForward(40 * time.Minute)
	n, err = st.Incr(ctx, 5, LoginAttempts, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 20*time.Minute, mr.TTL(key))

	mr.FastForward(21 * time.Minute)
	_, ok, err := st.GetInt64(ctx, 5, LoginAttempts)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err = st.Incr(ctx, 5, LoginAttempts, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestResetKeepsPendingInvestment(t *testing.T) {
	ctx := context.Background()
	st, _ := newStore(t)

	for _, k := range []Key{AwaitingCard, WithdrawCard, AwaitingSupport, AdminMessageTo, PendingInvestment} {
		require.NoError(t, st.Set(ctx, 9, k, "1", 0))
	}
	require.NoError(t, st.Reset(ctx, 9))

	for _, k := range []Key{AwaitingCard, WithdrawCard, AwaitingSupport, AdminMessageTo} {
		assert.False(t, st.Has(ctx, 9, k), k)
	}
	assert.True(t, st.Has(ctx, 9, PendingInvestment))

	require.NoError(t, st.Delete(ctx, 9))
	require.NoError(t, st.Delete(ctx, 9, PendingInvestment))
	assert.False(t, st.Has(ctx, 9, PendingInvestment))
}

func TestStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	st, mr := newStore(t)
	mr.Close()

	assert.Error(t, st.Set(ctx, 1, AwaitingCard, "1", 0))
	_, _, err := st.Get(ctx, 1, AwaitingCard)
	assert.Error(t, err)
	assert.False(t, st.Has(ctx, 1, AwaitingCard))
}

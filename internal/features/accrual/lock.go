package accrual

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/common"
)

// Удаляет ключ, только если он всё ещё принадлежит нашему токену.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker: блокировка периода начисления между репликами бота.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisLocker(rdb *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: prefix}
}

// Acquire ставит ключ через SET NX. Занятый ключ даёт ErrAccrualLocked.
func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	key := l.prefix + ":lock:" + name
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, common.Storage("accrual.lock", err)
	}
	if !ok {
		return nil, common.ErrAccrualLocked
	}

	release := func() {
		// контекст запуска к этому моменту может быть уже отменён
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil {
			log.WithError(err).WithField("key", key).Warn("Не удалось снять блокировку начисления")
		}
	}
	return release, nil
}

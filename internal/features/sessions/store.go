// Package sessions хранит состояние диалога пользователя в Redis:
// какую квитанцию он сейчас присылает, на каком шаге вывода находится и т.п.
// Каждый ключ живёт ограниченное время, брошенный диалог истекает сам.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key: имя поля состояния.
type Key string

// Поля состояния диалога
const (
	PendingInvestment Key = "pending_investment" // id инвестиции, к которой ждём квитанцию
	AwaitingCard      Key = "awaiting_card"      // ждём номер карты для вывода
	WithdrawCard      Key = "withdraw_card"      // введённый номер карты
	AwaitingSupport   Key = "awaiting_support"   // следующее сообщение уйдёт в поддержку
	AdminMessageTo    Key = "admin_message_to"   // оператор пишет этому Telegram ID
	AdminSession      Key = "admin_session"      // вход по паролю /login
	LoginAttempts     Key = "login_attempts"     // неудачные попытки /login за час
)

// DefaultTTL: время жизни состояния диалога.
const DefaultTTL = time.Hour

// Store: обёртка над redis.Client с пространством имён.
type Store struct {
	rdb    *redis.Client
	prefix string
}

// New создаёт хранилище состояний. Ключи имеют вид "<prefix>:<telegram_id>:<key>".
func New(rdb *redis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) key(telegramID int64, k Key) string {
	return fmt.Sprintf("%s:%d:%s", s.prefix, telegramID, k)
}

// Set сохраняет значение. ttl <= 0: DefaultTTL.
func (s *Store) Set(ctx context.Context, telegramID int64, k Key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := s.rdb.Set(ctx, s.key(telegramID, k), value, ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи состояния %s: %w", k, err)
	}
	return nil
}

// Get возвращает значение и признак, что оно есть.
func (s *Store) Get(ctx context.Context, telegramID int64, k Key) (string, bool, error) {
	v, err := s.rdb.Get(ctx, s.key(telegramID, k)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("ошибка чтения состояния %s: %w", k, err)
	}
	return v, true, nil
}

// Has: есть ли флаг.
func (s *Store) Has(ctx context.Context, telegramID int64, k Key) bool {
	_, ok, err := s.Get(ctx, telegramID, k)
	return err == nil && ok
}

// SetInt64 / GetInt64: то же для числовых значений.
func (s *Store) SetInt64(ctx context.Context, telegramID int64, k Key, v int64, ttl time.Duration) error {
	return s.Set(ctx, telegramID, k, strconv.FormatInt(v, 10), ttl)
}

func (s *Store) GetInt64(ctx context.Context, telegramID int64, k Key) (int64, bool, error) {
	raw, ok, err := s.Get(ctx, telegramID, k)
	if err != nil || !ok {
		return 0, ok, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("состояние %s не число: %w", k, err)
	}
	return v, true, nil
}

// Incr увеличивает счётчик и при первом увеличении ставит ttl.
func (s *Store) Incr(ctx context.Context, telegramID int64, k Key, ttl time.Duration) (int64, error) {
	key := s.key(telegramID, k)
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("ошибка счётчика %s: %w", k, err)
	}
	if n == 1 {
		if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
			return n, fmt.Errorf("ошибка установки ttl %s: %w", k, err)
		}
	}
	return n, nil
}

// Delete удаляет одно или несколько полей.
func (s *Store) Delete(ctx context.Context, telegramID int64, keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, s.key(telegramID, k))
	}
	if err := s.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("ошибка удаления состояния: %w", err)
	}
	return nil
}

// Reset сбрасывает все шаги пользовательских диалогов (вывод, поддержка).
// Квитанция к pending-инвестиции сохраняется.
func (s *Store) Reset(ctx context.Context, telegramID int64) error {
	return s.Delete(ctx, telegramID, AwaitingCard, WithdrawCard, AwaitingSupport, AdminMessageTo)
}

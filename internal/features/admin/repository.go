// Package admin содержит операторскую часть бота: вход по паролю, подтверждение оплат,
// выдача инвестиций, просмотр квитанций и ручной запуск начисления.
package admin

import (
	"context"
	"time"

	"serotonyl.ru/invest-bot/internal/features/sessions"
)

// Repository хранит сессии входа по паролю и счётчик неудачных попыток в Redis.
// Оба ключа истекают сами, чистить их не нужно.
type Repository struct {
	st *sessions.Store
}

func NewRepository(st *sessions.Store) *Repository {
	return &Repository{st: st}
}

// CreateSession открывает сессию оператора на ttl.
func (r *Repository) CreateSession(ctx context.Context, telegramID int64, token string, ttl time.Duration) error {
	return r.st.Set(ctx, telegramID, sessions.AdminSession, token, ttl)
}

// HasSession: есть ли неистёкшая сессия.
func (r *Repository) HasSession(ctx context.Context, telegramID int64) bool {
	return r.st.Has(ctx, telegramID, sessions.AdminSession)
}

func (r *Repository) DeleteSession(ctx context.Context, telegramID int64) error {
	return r.st.Delete(ctx, telegramID, sessions.AdminSession)
}

// LogFailure увеличивает счётчик неудачных попыток. Окно отсчитывается от первой.
func (r *Repository) LogFailure(ctx context.Context, telegramID int64, window time.Duration) (int64, error) {
	return r.st.Incr(ctx, telegramID, sessions.LoginAttempts, window)
}

// RecentFailures: неудачные попытки в текущем окне.
func (r *Repository) RecentFailures(ctx context.Context, telegramID int64) (int64, error) {
	n, _, err := r.st.GetInt64(ctx, telegramID, sessions.LoginAttempts)
	return n, err
}

func (r *Repository) ResetFailures(ctx context.Context, telegramID int64) error {
	return r.st.Delete(ctx, telegramID, sessions.LoginAttempts)
}

package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/db/postgres"
)

// ErrReferralCodeTaken: сгенерированный код совпал с существующим.
var ErrReferralCodeTaken = errors.New("реферальный код уже занят")

const userColumns = `id, telegram_id, username, first_name, balance, referrer_id, referral_code, created_at`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create вставляет пользователя. Если telegram_id уже есть, возвращает
// существующую запись и created=false: повторный /start ничего не меняет,
// в том числе реферера.
func (r *Repository) Create(ctx context.Context, u *User) (*User, bool, error) {
	query := `
		INSERT INTO users (telegram_id, username, first_name, referrer_id, referral_code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (telegram_id) DO NOTHING
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRow(ctx, query,
		u.TelegramID, u.Username, u.FirstName, u.ReferrerID, u.ReferralCode,
	))
	if err == nil {
		return created, true, nil
	}
	if postgres.IsUniqueViolation(err, "users_referral_code_key") {
		return nil, false, ErrReferralCodeTaken
	}
	if !errors.Is(err, common.ErrUserNotFound) {
		return nil, false, common.Storage("users.create", err)
	}

	// ON CONFLICT сработал: пользователь уже зарегистрирован
	existing, err := r.GetByTelegramID(ctx, u.TelegramID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByID ищет по внутреннему id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	return u, common.Storage("users.get_by_id", err)
}

// GetByTelegramID ищет по Telegram user ID.
func (r *Repository) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID))
	return u, common.Storage("users.get_by_telegram_id", err)
}

// GetByReferralCode ищет владельца реферального кода.
func (r *Repository) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code))
	return u, common.Storage("users.get_by_code", err)
}

// ListAll возвращает всех пользователей, новые первыми. limit <= 0: без ограничения.
func (r *Repository) ListAll(ctx context.Context, limit int) ([]*User, error) {
	if limit <= 0 {
		return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY id DESC`)
	}
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users ORDER BY id DESC LIMIT $1`, limit)
}

// ListReferrals возвращает прямых рефералов пользователя (один уровень).
func (r *Repository) ListReferrals(ctx context.Context, userID int64) ([]*User, error) {
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE referrer_id = $1 ORDER BY id`, userID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanUser читает одну строку. pgx.ErrNoRows превращается в ErrUserNotFound.
func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.TelegramID, &u.Username, &u.FirstName,
		&u.Balance, &u.ReferrerID, &u.ReferralCode, &u.CreatedAt,
	)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) queryUsers(ctx context.Context, query string, args ...any) ([]*User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, common.Storage("users.query", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, u)
	}

	if err := rows.Err(); err != nil {
		return nil, common.Storage("users.query", err)
	}
	return out, nil
}

package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/db/postgres"
)

// Repository читает журнал операций.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий журнала.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ApplyCredit увеличивает баланс пользователя и пишет запись в журнал.
// Вызывается только внутри транзакции: если дальше что-то упадёт,
// откатится и баланс, и запись.
func ApplyCredit(ctx context.Context, tx pgx.Tx, c Credit) (newBalance decimal.Decimal, err error) {
	if !c.Amount.IsPositive() {
		return newBalance, common.ErrInvalidAmount
	}

	err = tx.QueryRow(ctx, `
		UPDATE users SET balance = balance + $2
		WHERE id = $1
		RETURNING balance
	`, c.UserID, c.Amount).Scan(&newBalance)
	if err != nil {
		if postgres.IsNoRows(err) {
			return newBalance, common.ErrUserNotFound
		}
		return newBalance, common.Storage("ledger.credit", err)
	}

	if err := insertEntry(ctx, tx, c.UserID, c.Amount, c); err != nil {
		return newBalance, err
	}
	return newBalance, nil
}

// ApplyDebit уменьшает баланс, только если на нём хватает средств.
// Проверка и списание: один UPDATE, поэтому два параллельных вывода
// не уведут баланс в минус.
func ApplyDebit(ctx context.Context, tx pgx.Tx, c Credit) (newBalance decimal.Decimal, err error) {
	if !c.Amount.IsPositive() {
		return newBalance, common.ErrInvalidAmount
	}

	err = tx.QueryRow(ctx, `
		UPDATE users SET balance = balance - $2
		WHERE id = $1 AND balance >= $2
		RETURNING balance
	`, c.UserID, c.Amount).Scan(&newBalance)
	if err != nil {
		if !postgres.IsNoRows(err) {
			return newBalance, common.Storage("ledger.debit", err)
		}
		// Строки нет: либо пользователя нет, либо не хватает денег
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, c.UserID).Scan(&exists); err != nil {
			return newBalance, common.Storage("ledger.debit", err)
		}
		if !exists {
			return newBalance, common.ErrUserNotFound
		}
		return newBalance, common.ErrInsufficientBalance
	}

	if err := insertEntry(ctx, tx, c.UserID, c.Amount.Neg(), c); err != nil {
		return newBalance, err
	}
	return newBalance, nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, userID int64, signed decimal.Decimal, c Credit) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (user_id, amount, kind, ref_id, description)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, signed, c.Kind, c.RefID, c.Description)
	if err != nil {
		return common.Storage("ledger.journal", err)
	}
	return nil
}

// History возвращает последние limit записей журнала пользователя.
func (r *Repository) History(ctx context.Context, userID int64, limit int) ([]*Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, amount, kind, ref_id, description, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, common.Storage("ledger.history", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Kind, &e.RefID, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи журнала: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.Storage("ledger.history", err)
	}
	return out, nil
}

package withdrawals

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/db/postgres"
	"serotonyl.ru/invest-bot/internal/features/ledger"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create списывает amount с баланса и создаёт заявку со статусом pending.
// Списание условное (balance >= amount), заявка и запись журнала
// пишутся в той же транзакции.
func (r *Repository) Create(ctx context.Context, userID int64, amount decimal.Decimal, cardLast4 string) (*Withdrawal, decimal.Decimal, error) {
	var w Withdrawal
	var newBalance decimal.Decimal

	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO withdrawals (user_id, amount, status, card_last4)
			VALUES ($1, $2, $3, $4)
			RETURNING id, user_id, amount, status, card_last4, created_at
		`, userID, amount, StatusPending, cardLast4).Scan(
			&w.ID, &w.UserID, &w.Amount, &w.Status, &w.CardLast4, &w.CreatedAt,
		)
		if err != nil {
			return common.Storage("withdrawals.create", err)
		}

		ref := w.ID
		newBalance, err = ledger.ApplyDebit(ctx, tx, ledger.Credit{
			UserID:      userID,
			Amount:      amount,
			Kind:        ledger.KindWithdrawal,
			RefID:       &ref,
			Description: fmt.Sprintf("Заявка на вывод #%d", w.ID),
		})
		return err
	})
	if err != nil {
		return nil, decimal.Zero, common.Storage("withdrawals.create", err)
	}
	return &w, newBalance, nil
}

// ListByUser: заявки пользователя, новые первыми.
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit int) ([]*Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, amount, status, card_last4, created_at
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, common.Storage("withdrawals.list", err)
	}
	defer rows.Close()

	var out []*Withdrawal
	for rows.Next() {
		var w Withdrawal
		if err := rows.Scan(&w.ID, &w.UserID, &w.Amount, &w.Status, &w.CardLast4, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
		}
		out = append(out, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, common.Storage("withdrawals.list", err)
	}
	return out, nil
}

package investments

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

const investmentColumns = `id, user_id, amount, plan, created_at, active`

// Repository работает с таблицей investments.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create вставляет инвестицию и возвращает её с присвоенным id.
// Баланс не меняется ни для pending, ни для active.
func (r *Repository) Create(ctx context.Context, userID int64, amount decimal.Decimal, plan string, active bool) (*Investment, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO investments (user_id, amount, plan, active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+investmentColumns,
		userID, amount, plan, active,
	)
	inv, err := scanInvestment(row)
	return inv, common.Storage("investments.create", err)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Investment, error) {
	inv, err := scanInvestment(r.db.QueryRow(ctx, `SELECT `+investmentColumns+` FROM investments WHERE id = $1`, id))
	return inv, common.Storage("investments.get", err)
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*Investment, error) {
	return r.query(ctx, `SELECT `+investmentColumns+` FROM investments WHERE user_id = $1 ORDER BY id`, userID)
}

// ListActive: все активные инвестиции, для начисления.
func (r *Repository) ListActive(ctx context.Context) ([]*Investment, error) {
	return r.query(ctx, `SELECT `+investmentColumns+` FROM investments WHERE active ORDER BY id`)
}

// ListPending: неподтверждённые инвестиции, новые первыми.
func (r *Repository) ListPending(ctx context.Context, limit int) ([]*Investment, error) {
	return r.query(ctx, `SELECT `+investmentColumns+` FROM investments WHERE NOT active ORDER BY id DESC LIMIT $1`, limit)
}

// ActiveTotals: суммы активных инвестиций по каждому из userIDs.
// Пользователи без активных инвестиций в результат не попадают.
func (r *Repository) ActiveTotals(ctx context.Context, userIDs []int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT user_id, SUM(amount)
		FROM investments
		WHERE active AND user_id = ANY($1)
		GROUP BY user_id
	`, userIDs)
	if err != nil {
		return nil, common.Storage("investments.active_totals", err)
	}
	defer rows.Close()

	for rows.Next() {
		var uid int64
		var sum decimal.Decimal
		if err := rows.Scan(&uid, &sum); err != nil {
			return nil, fmt.Errorf("ошибка сканирования суммы: %w", err)
		}
		out[uid] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, common.Storage("investments.active_totals", err)
	}
	return out, nil
}

// Activate переводит инвестицию в active и зачисляет деньги владельцу и рефереру
// в одной транзакции. Условие active = FALSE в UPDATE не даёт активировать дважды,
// даже если два оператора нажали кнопку одновременно.
func (r *Repository) Activate(ctx context.Context, p ActivationPlan) error {
	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE investments SET active = TRUE WHERE id = $1 AND active = FALSE`, p.InvestmentID)
		if err != nil {
			return common.Storage("investments.activate", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM investments WHERE id = $1)`, p.InvestmentID).Scan(&exists); err != nil {
				return common.Storage("investments.activate", err)
			}
			if !exists {
				return common.ErrInvestmentNotFound
			}
			return common.ErrAlreadyActive
		}

		if _, err := ledger.ApplyCredit(ctx, tx, p.Owner); err != nil {
			return err
		}
		if p.Referrer != nil {
			if _, err := ledger.ApplyCredit(ctx, tx, *p.Referrer); err != nil {
				return err
			}
		}
		return nil
	})
	return common.Storage("investments.activate", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvestment(row rowScanner) (*Investment, error) {
	var inv Investment
	if err := row.Scan(&inv.ID, &inv.UserID, &inv.Amount, &inv.Plan, &inv.CreatedAt, &inv.Active); err != nil {
		if postgres.IsNoRows(err) {
			return nil, common.ErrInvestmentNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]*Investment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, common.Storage("investments.query", err)
	}
	defer rows.Close()

	var out []*Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования инвестиции: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, common.Storage("investments.query", err)
	}
	return out, nil
}

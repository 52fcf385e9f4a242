package accrual

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/db/postgres"
	"serotonyl.ru/invest-bot/internal/features/investments"
	"serotonyl.ru/invest-bot/internal/features/ledger"
	"serotonyl.ru/invest-bot/internal/features/users"
)

// Repository читает снимок и атомарно записывает начисление за период.
type Repository struct {
	db    *pgxpool.Pool
	invs  *investments.Repository
	users *users.Repository
}

func NewRepository(db *pgxpool.Pool, invs *investments.Repository, us *users.Repository) *Repository {
	return &Repository{db: db, invs: invs, users: us}
}

// Snapshot читает активные инвестиции и всех пользователей.
func (r *Repository) Snapshot(ctx context.Context) (*Snapshot, error) {
	active, err := r.invs.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	all, err := r.users.ListAll(ctx, 0)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Active: active, Users: all}, nil
}

// Apply в одной транзакции ставит отметку периода и проводит все зачисления.
// Если отметка уже есть, ничего не меняет и возвращает ErrAccrualAlreadyDone.
func (r *Repository) Apply(ctx context.Context, p *Plan) error {
	err := postgres.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO accrual_runs (period_key, profit_total, referral_total, credits)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (period_key) DO NOTHING
		`, p.PeriodKey, p.ProfitTotal, p.ReferralTotal, len(p.Credits))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return common.ErrAccrualAlreadyDone
		}

		for _, c := range p.Credits {
			if _, err := ledger.ApplyCredit(ctx, tx, c); err != nil {
				return err
			}
		}
		return nil
	})
	return common.Storage("accrual.apply", err)
}

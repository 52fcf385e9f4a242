// Package receipts хранит ссылки на квитанции об оплате (file_id Telegram)
// и пересылает их операторам.
package receipts

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/invest-bot/internal/common"
)

// Receipt: запись таблицы receipts. Сам файл остаётся в Telegram.
type Receipt struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	InvestmentID int64     `db:"investment_id"`
	FileID       string    `db:"file_id"`
	FileType     string    `db:"file_type"` // photo | document
	CreatedAt    time.Time `db:"created_at"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Add сохраняет квитанцию к инвестиции.
func (r *Repository) Add(ctx context.Context, rc *Receipt) (*Receipt, error) {
	out := *rc
	err := r.db.QueryRow(ctx, `
		INSERT INTO receipts (user_id, investment_id, file_id, file_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, rc.UserID, rc.InvestmentID, rc.FileID, rc.FileType).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return nil, common.Storage("receipts.add", err)
	}
	return &out, nil
}

// ListRecent: последние limit квитанций, новые первыми.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*Receipt, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, investment_id, file_id, file_type, created_at
		FROM receipts
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, common.Storage("receipts.list", err)
	}
	defer rows.Close()

	var out []*Receipt
	for rows.Next() {
		var rc Receipt
		if err := rows.Scan(&rc.ID, &rc.UserID, &rc.InvestmentID, &rc.FileID, &rc.FileType, &rc.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования квитанции: %w", err)
		}
		out = append(out, &rc)
	}
	if err := rows.Err(); err != nil {
		return nil, common.Storage("receipts.list", err)
	}
	return out, nil
}

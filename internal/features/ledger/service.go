package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"serotonyl.ru/invest-bot/internal/common"
)

// historyLimit: сколько последних операций показывать в истории.
const historyLimit = 10

type historyStore interface {
	History(ctx context.Context, userID int64, limit int) ([]*Entry, error)
}

// Service отдаёт журнал операций в виде текста для пользователя.
type Service struct {
	repo     historyStore
	currency string
	loc      *time.Location
}

// NewService создаёт сервис журнала.
func NewService(repo historyStore, currency string, loc *time.Location) *Service {
	return &Service{repo: repo, currency: currency, loc: loc}
}

// History возвращает последние операции пользователя.
func (s *Service) History(ctx context.Context, userID int64) ([]*Entry, error) {
	return s.repo.History(ctx, userID, historyLimit)
}

// FormatHistory превращает записи журнала в текст сообщения.
func (s *Service) FormatHistory(entries []*Entry) string {
	if len(entries) == 0 {
		return "📜 Операций пока нет"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📜 Последние операции (%d):\n\n", len(entries)))
	for i, e := range entries {
		sb.WriteString(fmt.Sprintf("%d. %s | %s | %s\n",
			i+1,
			common.FormatDateTime(e.CreatedAt, s.loc),
			common.FormatSignedMoney(e.Amount, s.currency),
			KindTitle(e.Kind),
		))
	}
	return sb.String()
}

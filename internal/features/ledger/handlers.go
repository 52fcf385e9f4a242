package ledger

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/notify"
)

// Handler обрабатывает кнопку «📜 История».
type Handler struct {
	service *Service
	notify  *notify.Notifier
}

// NewHandler создаёт обработчик истории операций.
func NewHandler(service *Service, n *notify.Notifier) *Handler {
	return &Handler{service: service, notify: n}
}

// HandleHistory показывает последние операции по балансу.
func (h *Handler) HandleHistory(ctx context.Context, chatID, userID int64) {
	entries, err := h.service.History(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка получения истории")
		h.notify.Send(ctx, chatID, "❌ Ошибка получения истории операций", nil)
		return
	}
	h.notify.Send(ctx, chatID, h.service.FormatHistory(entries), nil)
}

package admin

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/bot/keyboards"
	"serotonyl.ru/invest-bot/internal/features/sessions"
	"serotonyl.ru/invest-bot/internal/features/users"
)

// HandleSupportStart обрабатывает кнопку «🆘 Поддержка». Следующее сообщение уйдёт операторам.
func (h *Handler) HandleSupportStart(ctx context.Context, chatID, telegramID int64) {
	if err := h.sessions.Set(ctx, telegramID, sessions.AwaitingSupport, "1", 0); err != nil {
		log.WithError(err).Error("Ошибка записи состояния поддержки")
		h.notify.Send(ctx, chatID, "❌ Временная ошибка, попробуйте позже", nil)
		return
	}
	h.notify.Send(ctx, chatID, "🆘 Опишите вопрос одним сообщением. /cancel — отмена.", nil)
}

// HandleSupportMessage пересылает обращение операторам с кнопкой ответа.
// false: пользователь не в режиме поддержки.
func (h *Handler) HandleSupportMessage(ctx context.Context, chatID int64, u *users.User, text string) bool {
	if !h.sessions.Has(ctx, u.TelegramID, sessions.AwaitingSupport) {
		return false
	}
	_ = h.sessions.Delete(ctx, u.TelegramID, sessions.AwaitingSupport)

	h.notify.Admins(ctx, fmt.Sprintf("🆘 Обращение от %s (id %d, tg %d):\n\n%s",
		u.DisplayName(), u.ID, u.TelegramID, text), keyboards.SupportReply(u.TelegramID))
	h.notify.Send(ctx, chatID, "✅ Сообщение отправлено в поддержку. Ответ придёт сюда.", nil)
	return true
}

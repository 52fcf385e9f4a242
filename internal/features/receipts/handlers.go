package receipts

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/bot/keyboards"
	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/features/sessions"
	"serotonyl.ru/invest-bot/internal/features/users"
	"serotonyl.ru/invest-bot/internal/notify"
)

// Handler принимает фото и документы с квитанциями.
type Handler struct {
	service  *Service
	sessions *sessions.Store
	notify   *notify.Notifier
	currency string
}

func NewHandler(service *Service, st *sessions.Store, n *notify.Notifier, currency string) *Handler {
	return &Handler{service: service, sessions: st, notify: n, currency: currency}
}

// HandleFile сохраняет квитанцию к ожидающей инвестиции и пересылает её операторам.
func (h *Handler) HandleFile(ctx context.Context, chatID int64, u *users.User, fileID, fileType string) {
	invID, ok, err := h.sessions.GetInt64(ctx, u.TelegramID, sessions.PendingInvestment)
	if err != nil {
		log.WithError(err).Error("Ошибка чтения состояния квитанции")
	}
	if !ok {
		h.notify.Send(ctx, chatID, "Сначала выберите сумму в «💼 Инвестировать» и подтвердите оплату.", nil)
		return
	}

	rc, inv, err := h.service.Attach(ctx, u.ID, invID, fileID, fileType)
	if err != nil {
		log.WithError(err).WithField("investment_id", invID).Error("Ошибка сохранения квитанции")
		h.notify.Send(ctx, chatID, "❌ Не удалось сохранить квитанцию, попробуйте ещё раз", nil)
		return
	}
	_ = h.sessions.Delete(ctx, u.TelegramID, sessions.PendingInvestment)

	h.notify.Send(ctx, chatID, "💰 Спасибо! Квитанция получена. Мы сообщим, когда оплата будет подтверждена.", nil)

	caption := fmt.Sprintf("📎 Квитанция #%d\n👤 %s (id %d, tg %d)\n💼 Инвестиция #%d\n💰 %s",
		rc.ID, u.DisplayName(), u.ID, u.TelegramID, inv.ID, common.FormatMoney(inv.Amount, h.currency))
	h.notify.ForwardFile(ctx, rc.FileType, rc.FileID, caption, keyboards.Verify(inv.ID))
}

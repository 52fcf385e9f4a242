package users

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/bot/keyboards"
	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/notify"
)

// Handler обрабатывает /start, баланс и реферальную ссылку.
type Handler struct {
	service     *Service
	notify      *notify.Notifier
	currency    string
	botUsername string
}

// NewHandler создаёт обработчик пользовательских команд.
func NewHandler(service *Service, n *notify.Notifier, currency, botUsername string) *Handler {
	return &Handler{service: service, notify: n, currency: currency, botUsername: botUsername}
}

// HandleStart регистрирует пользователя и показывает главное меню.
// payload: аргумент /start, то есть реферальный код из ссылки.
func (h *Handler) HandleStart(ctx context.Context, chatID int64, p Profile, payload string, isAdmin bool) {
	u, created, err := h.service.Register(ctx, p, payload)
	if err != nil {
		log.WithError(err).WithField("telegram_id", p.TelegramID).Error("Ошибка регистрации")
		h.notify.Send(ctx, chatID, "❌ Не удалось зарегистрироваться, попробуйте позже", nil)
		return
	}

	text := "👋 С возвращением!"
	if created {
		text = "👋 Добро пожаловать! Выберите действие в меню ниже."
	}
	h.notify.Send(ctx, chatID, text, keyboards.MainMenu(isAdmin))

	if created && u.ReferrerID != nil {
		h.notifyReferrer(ctx, *u.ReferrerID, u)
	}
}

// notifyReferrer: уведомление пригласившему. Ошибки только логируются.
func (h *Handler) notifyReferrer(ctx context.Context, referrerID int64, newUser *User) {
	referrer, err := h.service.GetByID(ctx, referrerID)
	if err != nil {
		log.WithError(err).Warn("Не удалось найти реферера для уведомления")
		return
	}
	h.notify.Send(ctx, referrer.TelegramID,
		fmt.Sprintf("🎉 По вашей ссылке зарегистрировался %s", newUser.DisplayName()), nil)
}

// HandleBalance показывает текущий баланс.
func (h *Handler) HandleBalance(ctx context.Context, chatID int64, u *User) {
	// Перечитываем: баланс мог измениться после загрузки u
	fresh, err := h.service.GetByID(ctx, u.ID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		h.notify.Send(ctx, chatID, "❌ Ошибка получения баланса", nil)
		return
	}
	h.notify.Send(ctx, chatID, fmt.Sprintf("💰 Баланс: %s", common.FormatMoney(fresh.Balance, h.currency)), nil)
}

// HandleReferrals показывает реферальную ссылку и число приглашённых.
func (h *Handler) HandleReferrals(ctx context.Context, chatID int64, u *User) {
	refs, err := h.service.Referrals(ctx, u.ID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения рефералов")
		h.notify.Send(ctx, chatID, "❌ Ошибка получения рефералов", nil)
		return
	}
	text := fmt.Sprintf("🔗 Ваша ссылка:\n%s\n\nВы пригласили %d %s",
		u.ReferralLink(h.botUsername), len(refs), common.PluralizeReferrals(len(refs)))
	h.notify.Send(ctx, chatID, text, nil)
}

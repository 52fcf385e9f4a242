package investments

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/bot/keyboards"
	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/features/sessions"
	"serotonyl.ru/invest-bot/internal/features/users"
	"serotonyl.ru/invest-bot/internal/notify"
)

// PaymentDetails: реквизиты, которые показываются при выборе суммы.
type PaymentDetails struct {
	Account string
	Name    string
}

// Handler обрабатывает «💼 Инвестировать» и «📈 Доход».
type Handler struct {
	service  *Service
	sessions *sessions.Store
	notify   *notify.Notifier
	amounts  []int64
	payment  PaymentDetails
	currency string
}

// NewHandler создаёт обработчик инвестиций.
func NewHandler(service *Service, st *sessions.Store, n *notify.Notifier, amounts []int64, payment PaymentDetails, currency string) *Handler {
	return &Handler{
		service:  service,
		sessions: st,
		notify:   n,
		amounts:  amounts,
		payment:  payment,
		currency: currency,
	}
}

// HandleMenu показывает кнопки с суммами.
func (h *Handler) HandleMenu(ctx context.Context, chatID int64) {
	h.notify.Send(ctx, chatID, "💼 Выберите сумму инвестиции:", keyboards.Amounts(keyboards.CbInvest, h.amounts, h.currency))
}

// HandleSelectAmount показывает реквизиты для оплаты выбранной суммы.
func (h *Handler) HandleSelectAmount(ctx context.Context, chatID int64, amount int64) {
	if !h.allowed(amount) {
		h.notify.Send(ctx, chatID, "❌ Такой суммы нет в списке", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💳 Инвестиция: %s\n\n", common.FormatMoney(decimal.NewFromInt(amount), h.currency)))
	if h.payment.Account != "" {
		sb.WriteString(fmt.Sprintf("Оплата переводом:\nСчёт: %s\n", h.payment.Account))
		if h.payment.Name != "" {
			sb.WriteString(fmt.Sprintf("Получатель: %s\n", h.payment.Name))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("После оплаты нажмите «Подтвердить оплату» и пришлите квитанцию.")
	h.notify.Send(ctx, chatID, sb.String(), keyboards.ConfirmPayment(amount))
}

// HandleConfirm создаёт pending-инвестицию и ждёт квитанцию.
func (h *Handler) HandleConfirm(ctx context.Context, chatID int64, u *users.User, amount int64) {
	if !h.allowed(amount) {
		h.notify.Send(ctx, chatID, "❌ Такой суммы нет в списке", nil)
		return
	}

	inv, err := h.service.CreatePending(ctx, u.ID, decimal.NewFromInt(amount))
	if err != nil {
		log.WithError(err).WithField("user_id", u.ID).Error("Ошибка создания инвестиции")
		h.notify.Send(ctx, chatID, "❌ Не удалось создать инвестицию, попробуйте позже", nil)
		return
	}

	if err := h.sessions.SetInt64(ctx, u.TelegramID, sessions.PendingInvestment, inv.ID, sessions.DefaultTTL); err != nil {
		log.WithError(err).Warn("Не удалось сохранить ожидание квитанции")
	}

	h.notify.Send(ctx, chatID, fmt.Sprintf(
		"🧾 Инвестиция #%d на %s создана.\nПришлите фото или файл квитанции об оплате.",
		inv.ID, common.FormatMoney(inv.Amount, h.currency)), nil)
	h.notify.Admins(ctx, fmt.Sprintf("🆕 Новая инвестиция #%d: %s, %s",
		inv.ID, u.DisplayName(), common.FormatMoney(inv.Amount, h.currency)), keyboards.Verify(inv.ID))
}

// HandleCancel: пользователь передумал.
func (h *Handler) HandleCancel(ctx context.Context, chatID int64) {
	h.notify.Send(ctx, chatID, "Отменено.", nil)
}

func (h *Handler) allowed(amount int64) bool {
	for _, a := range h.amounts {
		if a == amount {
			return true
		}
	}
	return false
}

// HandleEarnings показывает активные инвестиции и ожидаемый доход.
func (h *Handler) HandleEarnings(ctx context.Context, chatID int64, u *users.User) {
	sum, err := h.service.Summary(ctx, u.ID)
	if err != nil {
		log.WithError(err).WithField("user_id", u.ID).Error("Ошибка расчёта дохода")
		h.notify.Send(ctx, chatID, "❌ Ошибка получения данных", nil)
		return
	}
	h.notify.Send(ctx, chatID, FormatSummary(sum, h.currency), nil)
}

// FormatSummary: текст сводки для пользователя.
func FormatSummary(s *Summary, currency string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📈 Активных инвестиций: %d\n", s.ActiveCount))
	sb.WriteString(fmt.Sprintf("💼 Сумма активных: %s\n", common.FormatMoney(s.ActiveTotal, currency)))
	if s.PendingCount > 0 {
		sb.WriteString(fmt.Sprintf("⏳ Ожидают подтверждения: %d\n", s.PendingCount))
	}
	sb.WriteString(fmt.Sprintf("💹 Доход в день: %s\n", common.FormatMoney(s.DailyProfit, currency)))
	sb.WriteString(fmt.Sprintf("🔗 Рефералы: %d (активных %d), доход с них в день: %s",
		s.ReferralCount, s.ReferralsActive, common.FormatMoney(s.ReferralDaily, currency)))
	return sb.String()
}

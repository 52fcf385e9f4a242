package withdrawals

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/bot/keyboards"
	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/features/sessions"
	"serotonyl.ru/invest-bot/internal/notify"
)

// Handler ведёт диалог вывода: карта → сумма → заявка.
type Handler struct {
	service  *Service
	sessions *sessions.Store
	notify   *notify.Notifier
	amounts  []int64
	currency string
	holdDays int
}

func NewHandler(service *Service, st *sessions.Store, n *notify.Notifier, amounts []int64, currency string, holdDays int) *Handler {
	return &Handler{service: service, sessions: st, notify: n, amounts: amounts, currency: currency, holdDays: holdDays}
}

// HandleStart просит номер карты.
func (h *Handler) HandleStart(ctx context.Context, chatID, telegramID int64) {
	if err := h.sessions.Set(ctx, telegramID, sessions.AwaitingCard, "1", sessions.DefaultTTL); err != nil {
		log.WithError(err).Error("Ошибка сохранения состояния вывода")
		h.notify.Send(ctx, chatID, "❌ Ошибка, попробуйте позже", nil)
		return
	}
	h.notify.Send(ctx, chatID, "💸 Введите 16-значный номер банковской карты для вывода:", nil)
}

// HandleCard принимает номер карты и показывает суммы.
func (h *Handler) HandleCard(ctx context.Context, chatID, telegramID int64, text string) {
	card, ok := ValidCard(text)
	if !ok {
		h.notify.Send(ctx, chatID, "❌ "+common.ErrInvalidCard.Error()+". Попробуйте ещё раз:", nil)
		return
	}
	if err := h.sessions.Set(ctx, telegramID, sessions.WithdrawCard, card, sessions.DefaultTTL); err != nil {
		log.WithError(err).Error("Ошибка сохранения карты")
	}
	if err := h.sessions.Delete(ctx, telegramID, sessions.AwaitingCard); err != nil {
		log.WithError(err).Warn("Ошибка сброса состояния")
	}
	h.notify.Send(ctx, chatID, fmt.Sprintf("Карта: %s\nВыберите сумму вывода:", card),
		keyboards.Amounts(keyboards.CbWithdraw, h.amounts, h.currency))
}

// HandleAmount создаёт заявку и сообщает результат пользователю и операторам.
func (h *Handler) HandleAmount(ctx context.Context, chatID, telegramID int64, amount int64) {
	card, _, err := h.sessions.Get(ctx, telegramID, sessions.WithdrawCard)
	if err != nil {
		log.WithError(err).Warn("Не удалось прочитать карту из состояния")
	}

	res, err := h.service.RequestWithdrawal(ctx, Request{
		TelegramID: telegramID,
		Amount:     decimal.NewFromInt(amount),
		Card:       card,
	})

	var hold *common.MaturityHoldError
	switch {
	case err == nil:
		_ = h.sessions.Delete(ctx, telegramID, sessions.WithdrawCard)
		h.notify.Send(ctx, chatID, fmt.Sprintf("✅ Заявка #%d на %s принята.\nБаланс: %s",
			res.Withdrawal.ID,
			common.FormatMoney(res.Withdrawal.Amount, h.currency),
			common.FormatMoney(res.NewBalance, h.currency)), nil)
		h.notify.Admins(ctx, fmt.Sprintf("✅ Новая заявка на вывод #%d\nПользователь: %s (%d)\nСумма: %s\nКарта: %s",
			res.Withdrawal.ID, res.User.DisplayName(), telegramID,
			common.FormatMoney(res.Withdrawal.Amount, h.currency), card), nil)

	case errors.Is(err, common.ErrInsufficientBalance):
		h.notify.Send(ctx, chatID, "❌ Недостаточно средств на балансе", nil)
		h.notify.Admins(ctx, fmt.Sprintf("⚠️ Попытка вывода %s: у пользователя %d не хватает баланса",
			common.FormatMoney(decimal.NewFromInt(amount), h.currency), telegramID), nil)

	case errors.As(err, &hold):
		h.notify.Send(ctx, chatID, fmt.Sprintf("⏳ Прошло %d/%d дней. Вывод будет доступен %s.",
			hold.DaysPassed, h.holdDays, common.FormatDaysLeft(hold.RemainingDays)), nil)
		h.notify.Admins(ctx, fmt.Sprintf("ℹ️ Пользователь %d запросил вывод %s, но до конца удержания %s",
			telegramID, common.FormatMoney(decimal.NewFromInt(amount), h.currency), common.FormatDaysLeft(hold.RemainingDays)), nil)

	case errors.Is(err, common.ErrUserNotFound):
		h.notify.Send(ctx, chatID, "Сначала нажмите /start", nil)

	default:
		log.WithError(err).WithField("telegram_id", telegramID).Error("Ошибка создания заявки на вывод")
		h.notify.Send(ctx, chatID, "❌ Ошибка при выводе, попробуйте ещё раз", nil)
	}
}

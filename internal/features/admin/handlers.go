package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/bot/keyboards"
	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/features/accrual"
	"serotonyl.ru/invest-bot/internal/features/investments"
	"serotonyl.ru/invest-bot/internal/features/receipts"
	"serotonyl.ru/invest-bot/internal/features/sessions"
	"serotonyl.ru/invest-bot/internal/features/users"
	"serotonyl.ru/invest-bot/internal/notify"
)

const (
	usersPageSize    = 50
	receiptsPageSize = 20
	pendingPageSize  = 30
)

// Handler обрабатывает команды и кнопки операторов.
type Handler struct {
	service     *Service
	users       *users.Service
	investments *investments.Service
	receipts    *receipts.Service
	accrual     *accrual.Engine
	sessions    *sessions.Store
	notify      *notify.Notifier
	grants      []int64
	currency    string
	loc         *time.Location
}

// Deps: зависимости обработчика админки.
type Deps struct {
	Service     *Service
	Users       *users.Service
	Investments *investments.Service
	Receipts    *receipts.Service
	Accrual     *accrual.Engine
	Sessions    *sessions.Store
	Notify      *notify.Notifier
	Grants      []int64 // суммы кнопок «выдать инвестицию»
	Currency    string
	Location    *time.Location
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		service:     d.Service,
		users:       d.Users,
		investments: d.Investments,
		receipts:    d.Receipts,
		accrual:     d.Accrual,
		sessions:    d.Sessions,
		notify:      d.Notify,
		grants:      d.Grants,
		currency:    d.Currency,
		loc:         d.Location,
	}
}

// IsAdmin: проверка прав для роутера.
func (h *Handler) IsAdmin(ctx context.Context, telegramID int64) bool {
	return h.service.IsAdmin(ctx, telegramID)
}

// HandleLogin: /login <пароль>.
func (h *Handler) HandleLogin(ctx context.Context, chatID, telegramID int64, password string) {
	password = strings.TrimSpace(password)
	if password == "" {
		h.notify.Send(ctx, chatID, "Использование: /login <пароль>", nil)
		return
	}
	if err := h.service.Login(ctx, telegramID, password); err != nil {
		var storage *common.StorageError
		if errors.As(err, &storage) {
			log.WithError(err).Error("Ошибка входа оператора")
			h.notify.Send(ctx, chatID, "❌ Временная ошибка, попробуйте позже", nil)
			return
		}
		h.notify.Send(ctx, chatID, fmt.Sprintf("❌ %s", err.Error()), nil)
		return
	}
	h.notify.Send(ctx, chatID, "✅ Аутентификация успешна! Сессия действует 24 часа.", keyboards.MainMenu(true))
	h.HandlePanel(ctx, chatID)
}

// HandleLogout: /logout.
func (h *Handler) HandleLogout(ctx context.Context, chatID, telegramID int64) {
	if err := h.service.Logout(ctx, telegramID); err != nil {
		log.WithError(err).Warn("Ошибка завершения сессии оператора")
	}
	h.notify.Send(ctx, chatID, "🔒 Сессия завершена", keyboards.MainMenu(h.service.IsAdmin(ctx, telegramID)))
}

// HandlePanel показывает меню оператора.
func (h *Handler) HandlePanel(ctx context.Context, chatID int64) {
	h.notify.Send(ctx, chatID, "🛠 Админ-панель", keyboards.AdminPanel())
}

// HandleUsers: последние пользователи, ⏳ у тех, кто ждёт подтверждения оплаты.
func (h *Handler) HandleUsers(ctx context.Context, chatID int64) {
	list, err := h.users.ListRecent(ctx, usersPageSize)
	if err != nil {
		h.fail(ctx, chatID, "список пользователей", err)
		return
	}
	if len(list) == 0 {
		h.notify.Send(ctx, chatID, "Пользователей пока нет", nil)
		return
	}

	items := make([]keyboards.UserItem, 0, len(list))
	for _, u := range list {
		pending, err := h.investments.HasPending(ctx, u.ID)
		if err != nil {
			log.WithError(err).WithField("user_id", u.ID).Warn("Не удалось проверить ожидающие инвестиции")
		}
		items = append(items, keyboards.UserItem{
			UserID:     u.ID,
			Label:      fmt.Sprintf("%s · %s", u.DisplayName(), common.FormatMoney(u.Balance, h.currency)),
			HasPending: pending,
		})
	}
	h.notify.Send(ctx, chatID, fmt.Sprintf("👥 Пользователи (%d):", len(items)), keyboards.UserList(items))
}

// HandleUser: карточка пользователя с кнопками выдачи и сообщения.
func (h *Handler) HandleUser(ctx context.Context, chatID, userID int64) {
	u, err := h.users.GetByID(ctx, userID)
	if err != nil {
		h.fail(ctx, chatID, "пользователь", err)
		return
	}
	invs, err := h.investments.ListByUser(ctx, u.ID)
	if err != nil {
		h.fail(ctx, chatID, "инвестиции пользователя", err)
		return
	}
	refs, err := h.users.Referrals(ctx, u.ID)
	if err != nil {
		h.fail(ctx, chatID, "рефералы", err)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\n", u.DisplayName())
	fmt.Fprintf(&b, "id %d · tg %d\n", u.ID, u.TelegramID)
	fmt.Fprintf(&b, "📅 Регистрация: %s\n", common.FormatDateTime(u.CreatedAt, h.loc))
	fmt.Fprintf(&b, "💰 Баланс: %s\n", common.FormatMoney(u.Balance, h.currency))
	fmt.Fprintf(&b, "🔗 Код: %s, рефералов: %d\n", u.ReferralCode, len(refs))
	if len(invs) == 0 {
		b.WriteString("\nИнвестиций нет")
	} else {
		b.WriteString("\n💼 Инвестиции:\n")
		for _, inv := range invs {
			status := "⏳"
			if inv.Active {
				status = "✅"
			}
			fmt.Fprintf(&b, "%s #%d · %s · %s\n", status, inv.ID,
				common.FormatMoney(inv.Amount, h.currency), common.FormatDateTime(inv.CreatedAt, h.loc))
		}
	}
	h.notify.Send(ctx, chatID, b.String(), keyboards.UserCard(u.ID, h.grants, h.currency))
}

// HandleGrant: выдача активной инвестиции без оплаты. Баланс не меняется,
// доход пойдёт со следующего начисления.
func (h *Handler) HandleGrant(ctx context.Context, chatID, userID, amount int64) {
	inv, err := h.investments.CreateActive(ctx, userID, decimal.NewFromInt(amount))
	if err != nil {
		h.fail(ctx, chatID, "выдача инвестиции", err)
		return
	}
	u, err := h.users.GetByID(ctx, userID)
	if err != nil {
		h.fail(ctx, chatID, "пользователь", err)
		return
	}

	log.WithFields(log.Fields{
		"investment_id": inv.ID,
		"user_id":       userID,
		"amount":        amount,
	}).Info("Оператор выдал инвестицию")

	h.notify.Send(ctx, chatID, fmt.Sprintf("✅ %s выдана инвестиция #%d на %s",
		u.DisplayName(), inv.ID, common.FormatMoney(inv.Amount, h.currency)), nil)
	h.notify.Send(ctx, u.TelegramID, fmt.Sprintf("🎁 Вам начислена инвестиция %s. Доход начнёт поступать со следующего начисления.",
		common.FormatMoney(inv.Amount, h.currency)), nil)
}

// HandleReceipts пересылает последние квитанции с кнопками подтверждения.
func (h *Handler) HandleReceipts(ctx context.Context, chatID int64) {
	list, err := h.receipts.ListRecent(ctx, receiptsPageSize)
	if err != nil {
		h.fail(ctx, chatID, "квитанции", err)
		return
	}
	if len(list) == 0 {
		h.notify.Send(ctx, chatID, "🧾 Квитанций пока нет", nil)
		return
	}
	for _, rc := range list {
		caption := fmt.Sprintf("🧾 #%d · инвестиция #%d · user %d · %s",
			rc.ID, rc.InvestmentID, rc.UserID, common.FormatDateTime(rc.CreatedAt, h.loc))
		h.notify.SendFile(ctx, chatID, rc.FileType, rc.FileID, caption, keyboards.Verify(rc.InvestmentID))
	}
}

// HandlePending: список неподтверждённых инвестиций.
func (h *Handler) HandlePending(ctx context.Context, chatID int64) {
	list, err := h.investments.ListPending(ctx, pendingPageSize)
	if err != nil {
		h.fail(ctx, chatID, "ожидающие инвестиции", err)
		return
	}
	if len(list) == 0 {
		h.notify.Send(ctx, chatID, "⏳ Ожидающих активации нет", nil)
		return
	}
	for _, inv := range list {
		h.notify.Send(ctx, chatID, fmt.Sprintf("⏳ #%d · user %d · %s · %s",
			inv.ID, inv.UserID, common.FormatMoney(inv.Amount, h.currency), common.FormatDateTime(inv.CreatedAt, h.loc)),
			keyboards.Verify(inv.ID))
	}
}

// HandleVerify активирует инвестицию и уведомляет владельца и реферера.
func (h *Handler) HandleVerify(ctx context.Context, chatID, investmentID int64) {
	act, err := h.investments.Activate(ctx, investmentID)
	switch {
	case errors.Is(err, common.ErrAlreadyActive):
		h.notify.Send(ctx, chatID, fmt.Sprintf("ℹ️ Инвестиция #%d уже активирована", investmentID), nil)
		return
	case errors.Is(err, common.ErrNotFound):
		h.notify.Send(ctx, chatID, fmt.Sprintf("❌ Инвестиция #%d не найдена", investmentID), nil)
		return
	case err != nil:
		h.fail(ctx, chatID, "активация", err)
		return
	}

	text := fmt.Sprintf("✅ Инвестиция #%d активирована\n👤 %s: +%s",
		act.Investment.ID, act.Owner.DisplayName(), common.FormatMoney(act.OwnerCredit, h.currency))
	if act.Referrer != nil {
		text += fmt.Sprintf("\n🔗 %s: +%s", act.Referrer.DisplayName(), common.FormatMoney(act.ReferrerBonus, h.currency))
	}
	h.notify.Send(ctx, chatID, text, nil)

	h.notify.Send(ctx, act.Owner.TelegramID, fmt.Sprintf(
		"✅ Оплата подтверждена! Инвестиция %s активна, баланс пополнен на %s.",
		common.FormatMoney(act.Investment.Amount, h.currency), common.FormatMoney(act.OwnerCredit, h.currency)), nil)
	if act.Referrer != nil {
		h.notify.Send(ctx, act.Referrer.TelegramID, fmt.Sprintf(
			"🎁 Ваш реферал %s активировал инвестицию. Бонус: +%s",
			act.Owner.DisplayName(), common.FormatMoney(act.ReferrerBonus, h.currency)), nil)
	}
}

// HandleAccrue: ручной запуск начисления за текущий период.
func (h *Handler) HandleAccrue(ctx context.Context, chatID int64) {
	res, err := h.accrual.Run(ctx)
	switch {
	case errors.Is(err, common.ErrAccrualAlreadyDone):
		h.notify.Send(ctx, chatID, "ℹ️ За текущий период начисление уже выполнено", nil)
		return
	case errors.Is(err, common.ErrAccrualLocked):
		h.notify.Send(ctx, chatID, "⏳ Начисление уже выполняется", nil)
		return
	case err != nil:
		h.fail(ctx, chatID, "начисление", err)
		return
	}
	h.notify.Send(ctx, chatID, fmt.Sprintf("💹 Начисление за %s выполнено\nДоход: %s\nРеферальные: %s\nПользователей: %d",
		res.PeriodKey,
		common.FormatMoney(res.ProfitTotal, h.currency),
		common.FormatMoney(res.ReferralTotal, h.currency),
		res.Users), nil)
}

// HandleStartMessage: следующий текст оператора уйдёт пользователю.
func (h *Handler) HandleStartMessage(ctx context.Context, chatID, adminTelegramID, userID int64) {
	u, err := h.users.GetByID(ctx, userID)
	if err != nil {
		h.fail(ctx, chatID, "пользователь", err)
		return
	}
	h.startRelay(ctx, chatID, adminTelegramID, u.TelegramID, u.DisplayName())
}

// HandleSupportReply: ответ на обращение в поддержку по telegram id.
func (h *Handler) HandleSupportReply(ctx context.Context, chatID, adminTelegramID, targetTelegramID int64) {
	h.startRelay(ctx, chatID, adminTelegramID, targetTelegramID, fmt.Sprintf("tg %d", targetTelegramID))
}

func (h *Handler) startRelay(ctx context.Context, chatID, adminTelegramID, target int64, name string) {
	if err := h.sessions.SetInt64(ctx, adminTelegramID, sessions.AdminMessageTo, target, 0); err != nil {
		h.fail(ctx, chatID, "состояние диалога", err)
		return
	}
	h.notify.Send(ctx, chatID, fmt.Sprintf("✉️ Напишите сообщение для %s. /cancel — отмена.", name), nil)
}

// HandleRelay доставляет текст оператора, если он в режиме ответа.
// false: режим не включён, текст нужно обработать иначе.
func (h *Handler) HandleRelay(ctx context.Context, chatID, adminTelegramID int64, text string) bool {
	target, ok, err := h.sessions.GetInt64(ctx, adminTelegramID, sessions.AdminMessageTo)
	if err != nil {
		log.WithError(err).Warn("Ошибка чтения режима ответа")
		return false
	}
	if !ok {
		return false
	}
	_ = h.sessions.Delete(ctx, adminTelegramID, sessions.AdminMessageTo)

	h.notify.Send(ctx, target, "💬 Сообщение от поддержки:\n\n"+text, nil)
	h.notify.Send(ctx, chatID, "✅ Сообщение отправлено", nil)
	return true
}

// fail логирует ошибку и отвечает оператору коротким текстом.
func (h *Handler) fail(ctx context.Context, chatID int64, what string, err error) {
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrInvalidAmount) {
		h.notify.Send(ctx, chatID, fmt.Sprintf("❌ %s: %s", what, err.Error()), nil)
		return
	}
	log.WithError(err).WithField("op", what).Error("Ошибка админ-команды")
	h.notify.Send(ctx, chatID, fmt.Sprintf("❌ Ошибка (%s), подробности в логах", what), nil)
}

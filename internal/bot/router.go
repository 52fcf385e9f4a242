package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/bot/keyboards"
	"serotonyl.ru/invest-bot/internal/bot/middleware"
	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/features/sessions"
	"serotonyl.ru/invest-bot/internal/features/users"
	"serotonyl.ru/invest-bot/internal/notify"
)

const msgNeedStart = "Сначала нажмите /start"

func (b *Bot) handleMessage(ctx context.Context, message *telego.Message) {
	if !b.chatFilter.CheckAccess(message) {
		return
	}
	middleware.LogMessage(message)

	chatID := message.Chat.ID
	tg := message.From.ID

	if !b.rateLimiter.Allow(tg) {
		log.WithField("user_id", tg).Debug("rate limited")
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)

	// команды, которым не нужен зарегистрированный пользователь
	if isCommand {
		switch cmd {
		case "start":
			b.handleStart(ctx, message, args)
			return
		case "login":
			b.h.Admin.HandleLogin(ctx, chatID, tg, strings.Join(args, " "))
			return
		case "cancel":
			_ = b.sessions.Reset(ctx, tg)
			b.notify.Send(ctx, chatID, "Действие отменено", keyboards.MainMenu(b.h.Admin.IsAdmin(ctx, tg)))
			return
		}
	}

	u, ok := b.resolveUser(ctx, chatID, tg)
	if !ok {
		return
	}

	if fileID, kind := attachment(message); fileID != "" {
		b.h.Receipts.HandleFile(ctx, chatID, u, fileID, kind)
		return
	}

	if isCommand {
		b.routeCommand(ctx, chatID, u, cmd, args)
		return
	}

	if b.routeMenu(ctx, chatID, u, message.Text) {
		return
	}
	b.routeDialog(ctx, chatID, u, message.Text)
}

func (b *Bot) handleStart(ctx context.Context, message *telego.Message, args []string) {
	tg := message.From.ID
	payload := ""
	if len(args) > 0 {
		payload = args[0]
	}
	_ = b.sessions.Reset(ctx, tg)
	b.h.Users.HandleStart(ctx, message.Chat.ID, users.Profile{
		TelegramID: tg,
		Username:   message.From.Username,
		FirstName:  message.From.FirstName,
	}, payload, b.h.Admin.IsAdmin(ctx, tg))
}

// resolveUser находит пользователя по telegram id. Незарегистрированному
// предлагается /start.
func (b *Bot) resolveUser(ctx context.Context, chatID, tg int64) (*users.User, bool) {
	u, err := b.users.GetByTelegramID(ctx, tg)
	if errors.Is(err, common.ErrNotFound) {
		b.notify.Send(ctx, chatID, msgNeedStart, nil)
		return nil, false
	}
	if err != nil {
		log.WithError(err).WithField("telegram_id", tg).Error("Ошибка поиска пользователя")
		b.notify.Send(ctx, chatID, "❌ Временная ошибка, попробуйте позже", nil)
		return nil, false
	}
	return u, true
}

// attachment достаёт file_id квитанции: самое большое фото или документ.
func attachment(message *telego.Message) (string, string) {
	if n := len(message.Photo); n > 0 {
		return message.Photo[n-1].FileID, notify.FilePhoto
	}
	if message.Document != nil {
		return message.Document.FileID, notify.FileDocument
	}
	return "", ""
}

func (b *Bot) routeCommand(ctx context.Context, chatID int64, u *users.User, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	switch cmd {
	case "balance":
		b.h.Users.HandleBalance(ctx, chatID, u)
	case "history":
		b.h.Ledger.HandleHistory(ctx, chatID, u.ID)
	case "help":
		b.notify.Send(ctx, chatID, "Пользуйтесь кнопками меню. /cancel — отменить текущее действие.",
			keyboards.MainMenu(b.h.Admin.IsAdmin(ctx, u.TelegramID)))
	case "logout":
		b.h.Admin.HandleLogout(ctx, chatID, u.TelegramID)
	case "admin", "verify", "accrue":
		if !b.h.Admin.IsAdmin(ctx, u.TelegramID) {
			b.notify.Send(ctx, chatID, "❌ "+common.ErrNotAdmin.Error(), nil)
			return
		}
		b.routeAdminCommand(ctx, chatID, cmd, args)
	default:
		b.notify.Send(ctx, chatID, "Неизвестная команда. /help", nil)
	}
}

func (b *Bot) routeAdminCommand(ctx context.Context, chatID int64, cmd string, args []string) {
	switch cmd {
	case "admin":
		b.h.Admin.HandlePanel(ctx, chatID)
	case "accrue":
		b.h.Admin.HandleAccrue(ctx, chatID)
	case "verify":
		if len(args) == 0 {
			b.notify.Send(ctx, chatID, "Использование: /verify <id инвестиции>", nil)
			return
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
		if err != nil || id <= 0 {
			b.notify.Send(ctx, chatID, "❌ id инвестиции должен быть положительным числом", nil)
			return
		}
		b.h.Admin.HandleVerify(ctx, chatID, id)
	}
}

// routeMenu обрабатывает кнопки главного меню. Нажатие кнопки сбрасывает
// незавершённый диалог (ввод карты, поддержка).
func (b *Bot) routeMenu(ctx context.Context, chatID int64, u *users.User, text string) bool {
	switch strings.TrimSpace(text) {
	case keyboards.BtnBalance, keyboards.BtnEarnings, keyboards.BtnReferrals, keyboards.BtnInvest,
		keyboards.BtnWithdraw, keyboards.BtnSupport, keyboards.BtnHistory, keyboards.BtnAdmin:
	default:
		return false
	}
	_ = b.sessions.Reset(ctx, u.TelegramID)

	switch strings.TrimSpace(text) {
	case keyboards.BtnBalance:
		b.h.Users.HandleBalance(ctx, chatID, u)
	case keyboards.BtnEarnings:
		b.h.Investments.HandleEarnings(ctx, chatID, u)
	case keyboards.BtnReferrals:
		b.h.Users.HandleReferrals(ctx, chatID, u)
	case keyboards.BtnInvest:
		b.h.Investments.HandleMenu(ctx, chatID)
	case keyboards.BtnWithdraw:
		b.h.Withdrawals.HandleStart(ctx, chatID, u.TelegramID)
	case keyboards.BtnSupport:
		b.h.Admin.HandleSupportStart(ctx, chatID, u.TelegramID)
	case keyboards.BtnHistory:
		b.h.Ledger.HandleHistory(ctx, chatID, u.ID)
	case keyboards.BtnAdmin:
		if !b.h.Admin.IsAdmin(ctx, u.TelegramID) {
			b.notify.Send(ctx, chatID, "❌ "+common.ErrNotAdmin.Error(), nil)
			break
		}
		b.h.Admin.HandlePanel(ctx, chatID)
	}
	return true
}

// routeDialog: свободный текст внутри начатого диалога.
func (b *Bot) routeDialog(ctx context.Context, chatID int64, u *users.User, text string) {
	tg := u.TelegramID

	if b.h.Admin.IsAdmin(ctx, tg) && b.h.Admin.HandleRelay(ctx, chatID, tg, text) {
		return
	}
	if b.sessions.Has(ctx, tg, sessions.AwaitingCard) {
		b.h.Withdrawals.HandleCard(ctx, chatID, tg, text)
		return
	}
	if b.h.Admin.HandleSupportMessage(ctx, chatID, u, text) {
		return
	}
	b.notify.Send(ctx, chatID, "Не понял вас. Выберите действие в меню.",
		keyboards.MainMenu(b.h.Admin.IsAdmin(ctx, tg)))
}

func (b *Bot) handleCallback(ctx context.Context, query *telego.CallbackQuery) {
	if !b.chatFilter.CheckCallback(query) {
		return
	}
	middleware.LogCallback(query)

	tg := query.From.ID
	// бот работает только в личке, чат совпадает с отправителем
	chatID := tg

	if !b.rateLimiter.Allow(tg) {
		b.notify.Answer(ctx, query.ID, "Слишком часто, подождите немного")
		return
	}

	cb := keyboards.ParseCallback(query.Data)
	if isAdminAction(cb.Action) {
		if !b.h.Admin.IsAdmin(ctx, tg) {
			b.notify.Answer(ctx, query.ID, common.ErrNotAdmin.Error())
			return
		}
		b.notify.Answer(ctx, query.ID, "")
		b.routeAdminCallback(ctx, chatID, tg, cb)
		return
	}

	u, ok := b.resolveUser(ctx, chatID, tg)
	if !ok {
		b.notify.Answer(ctx, query.ID, msgNeedStart)
		return
	}
	b.notify.Answer(ctx, query.ID, "")

	switch cb.Action {
	case keyboards.CbInvest:
		if amount, ok := b.callbackInt(ctx, chatID, cb, 0); ok {
			b.h.Investments.HandleSelectAmount(ctx, chatID, amount)
		}
	case keyboards.CbConfirmPay:
		if amount, ok := b.callbackInt(ctx, chatID, cb, 0); ok {
			b.h.Investments.HandleConfirm(ctx, chatID, u, amount)
		}
	case keyboards.CbCancelPay:
		b.h.Investments.HandleCancel(ctx, chatID)
	case keyboards.CbWithdraw:
		if amount, ok := b.callbackInt(ctx, chatID, cb, 0); ok {
			b.h.Withdrawals.HandleAmount(ctx, chatID, tg, amount)
		}
	default:
		log.WithField("data", query.Data).Warn("Неизвестный callback")
	}
}

func isAdminAction(action string) bool {
	switch action {
	case keyboards.CbAdminUsers, keyboards.CbAdminUser, keyboards.CbAdminGrant,
		keyboards.CbAdminReceipts, keyboards.CbAdminPending, keyboards.CbAdminVerify,
		keyboards.CbAdminMessage, keyboards.CbAdminAccrue, keyboards.CbSupportReply:
		return true
	}
	return false
}

func (b *Bot) routeAdminCallback(ctx context.Context, chatID, tg int64, cb keyboards.Callback) {
	switch cb.Action {
	case keyboards.CbAdminUsers:
		b.h.Admin.HandleUsers(ctx, chatID)
	case keyboards.CbAdminReceipts:
		b.h.Admin.HandleReceipts(ctx, chatID)
	case keyboards.CbAdminPending:
		b.h.Admin.HandlePending(ctx, chatID)
	case keyboards.CbAdminAccrue:
		b.h.Admin.HandleAccrue(ctx, chatID)
	case keyboards.CbAdminUser:
		if id, ok := b.callbackInt(ctx, chatID, cb, 0); ok {
			b.h.Admin.HandleUser(ctx, chatID, id)
		}
	case keyboards.CbAdminVerify:
		if id, ok := b.callbackInt(ctx, chatID, cb, 0); ok {
			b.h.Admin.HandleVerify(ctx, chatID, id)
		}
	case keyboards.CbAdminMessage:
		if id, ok := b.callbackInt(ctx, chatID, cb, 0); ok {
			b.h.Admin.HandleStartMessage(ctx, chatID, tg, id)
		}
	case keyboards.CbSupportReply:
		if target, ok := b.callbackInt(ctx, chatID, cb, 0); ok {
			b.h.Admin.HandleSupportReply(ctx, chatID, tg, target)
		}
	case keyboards.CbAdminGrant:
		userID, ok := b.callbackInt(ctx, chatID, cb, 0)
		if !ok {
			return
		}
		if amount, ok := b.callbackInt(ctx, chatID, cb, 1); ok {
			b.h.Admin.HandleGrant(ctx, chatID, userID, amount)
		}
	}
}

// callbackInt читает числовой аргумент callback-данных.
func (b *Bot) callbackInt(ctx context.Context, chatID int64, cb keyboards.Callback, i int) (int64, bool) {
	v, err := cb.Int64(i)
	if err != nil {
		log.WithError(err).Warn("Некорректные callback-данные")
		b.notify.Send(ctx, chatID, "❌ Некорректная кнопка, откройте меню заново", nil)
		return 0, false
	}
	return v, true
}

// Package keyboards собирает клавиатуры бота и хранит подписи кнопок
// и префиксы callback-данных, общие для роутера и обработчиков.
package keyboards

import (
	"fmt"
	"strconv"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Подписи кнопок главного меню
const (
	BtnBalance   = "💰 Баланс"
	BtnEarnings  = "📈 Доход"
	BtnReferrals = "🔗 Рефералы"
	BtnInvest    = "💼 Инвестировать"
	BtnWithdraw  = "💸 Вывод"
	BtnSupport   = "🆘 Поддержка"
	BtnHistory   = "📜 История"
	BtnAdmin     = "🛠 Админ-панель"
)

// Префиксы callback-данных. Аргументы передаются через двоеточие.
const (
	CbInvest        = "invest"         // invest:<amount>
	CbConfirmPay    = "confirm_pay"    // confirm_pay:<amount>
	CbCancelPay     = "cancel_pay"     // отмена выбора суммы
	CbWithdraw      = "withdraw"       // withdraw:<amount>
	CbAdminUsers    = "admin_users"    // список пользователей
	CbAdminUser     = "admin_user"     // admin_user:<user_id>
	CbAdminGrant    = "admin_grant"    // admin_grant:<user_id>:<amount>
	CbAdminReceipts = "admin_receipts" // последние квитанции
	CbAdminPending  = "admin_pending"  // неактивные инвестиции
	CbAdminVerify   = "admin_verify"   // admin_verify:<investment_id>
	CbAdminMessage  = "admin_msg"      // admin_msg:<user_id>
	CbAdminAccrue   = "admin_accrue"   // ручной запуск начисления
	CbSupportReply  = "support_reply"  // support_reply:<telegram_id>
)

// MainMenu: постоянная клавиатура пользователя. Операторам добавляется кнопка админки.
func MainMenu(isAdmin bool) *telego.ReplyKeyboardMarkup {
	rows := [][]telego.KeyboardButton{
		tu.KeyboardRow(tu.KeyboardButton(BtnBalance), tu.KeyboardButton(BtnEarnings)),
		tu.KeyboardRow(tu.KeyboardButton(BtnInvest), tu.KeyboardButton(BtnWithdraw)),
		tu.KeyboardRow(tu.KeyboardButton(BtnReferrals), tu.KeyboardButton(BtnHistory)),
		tu.KeyboardRow(tu.KeyboardButton(BtnSupport)),
	}
	if isAdmin {
		rows = append(rows, tu.KeyboardRow(tu.KeyboardButton(BtnAdmin)))
	}
	return tu.Keyboard(rows...).WithResizeKeyboard()
}

// Amounts: inline-кнопки с суммами, по три в ряд.
func Amounts(prefix string, amounts []int64, currency string) *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	var row []telego.InlineKeyboardButton
	for _, a := range amounts {
		row = append(row, tu.InlineKeyboardButton(fmt.Sprintf("%d %s", a, currency)).
			WithCallbackData(Data(prefix, strconv.FormatInt(a, 10))))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tu.InlineKeyboard(rows...)
}

// ConfirmPayment: «оплатил» / «отмена» под реквизитами.
func ConfirmPayment(amount int64) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("✅ Подтвердить оплату").WithCallbackData(Data(CbConfirmPay, strconv.FormatInt(amount, 10))),
		tu.InlineKeyboardButton("❌ Отмена").WithCallbackData(CbCancelPay),
	))
}

// AdminPanel: главное меню оператора.
func AdminPanel() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("👥 Пользователи").WithCallbackData(CbAdminUsers)),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("🧾 Квитанции").WithCallbackData(CbAdminReceipts)),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("⏳ Ожидают активации").WithCallbackData(CbAdminPending)),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("💹 Начислить сейчас").WithCallbackData(CbAdminAccrue)),
	)
}

// Verify: кнопка подтверждения оплаты под квитанцией.
func Verify(investmentID int64) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(tu.InlineKeyboardRow(
		tu.InlineKeyboardButton(fmt.Sprintf("✅ Подтвердить #%d", investmentID)).
			WithCallbackData(Data(CbAdminVerify, strconv.FormatInt(investmentID, 10))),
	))
}

// SupportReply: кнопка ответа на обращение в поддержку.
func SupportReply(telegramID int64) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(tu.InlineKeyboardRow(
		tu.InlineKeyboardButton("✉️ Ответить").
			WithCallbackData(Data(CbSupportReply, strconv.FormatInt(telegramID, 10))),
	))
}

// UserCard: действия оператора с конкретным пользователем.
func UserCard(userID int64, grantAmounts []int64, currency string) *telego.InlineKeyboardMarkup {
	id := strconv.FormatInt(userID, 10)
	var grants []telego.InlineKeyboardButton
	for _, a := range grantAmounts {
		grants = append(grants, tu.InlineKeyboardButton(fmt.Sprintf("➕ %d %s", a, currency)).
			WithCallbackData(Data(CbAdminGrant, id, strconv.FormatInt(a, 10))))
	}
	rows := [][]telego.InlineKeyboardButton{}
	if len(grants) > 0 {
		rows = append(rows, grants)
	}
	rows = append(rows,
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("✉️ Написать").WithCallbackData(Data(CbAdminMessage, id))),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("⬅️ К списку").WithCallbackData(CbAdminUsers)),
	)
	return tu.InlineKeyboard(rows...)
}

// UserList: по кнопке на пользователя.
func UserList(items []UserItem) *telego.InlineKeyboardMarkup {
	rows := make([][]telego.InlineKeyboardButton, 0, len(items))
	for _, it := range items {
		label := it.Label
		if it.HasPending {
			label = "⏳ " + label
		}
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(label).WithCallbackData(Data(CbAdminUser, strconv.FormatInt(it.UserID, 10))),
		))
	}
	return tu.InlineKeyboard(rows...)
}

// UserItem: строка списка пользователей в админке.
type UserItem struct {
	UserID     int64
	Label      string
	HasPending bool
}

// Package ledger ведёт денежный учёт: изменение балансов и журнал операций.
// Любое изменение баланса проходит через ApplyCredit/ApplyDebit внутри транзакции
// вызывающего репозитория, поэтому баланс и журнал всегда согласованы.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Виды записей журнала
const (
	KindActivationPrincipal = "activation_principal" // Зачисление суммы активированной инвестиции
	KindActivationReferral  = "activation_referral"  // Бонус пригласившему при активации
	KindDailyProfit         = "daily_profit"         // Ежедневный доход по инвестициям
	KindReferralOverride    = "referral_override"    // Ежедневный доход с рефералов
	KindWithdrawal          = "withdrawal"           // Списание по заявке на вывод
)

// Entry: одна строка журнала ledger_entries.
type Entry struct {
	ID          int64           `db:"id"`
	UserID      int64           `db:"user_id"`     // Внутренний id пользователя
	Amount      decimal.Decimal `db:"amount"`      // Со знаком: списания отрицательные
	Kind        string          `db:"kind"`        // Одна из констант Kind*
	RefID       *int64          `db:"ref_id"`      // id инвестиции / заявки (если есть)
	Description string          `db:"description"` // Текст для истории
	CreatedAt   time.Time       `db:"created_at"`
}

// Credit описывает одно изменение баланса. Amount всегда положительный,
// направление задаётся вызовом ApplyCredit или ApplyDebit.
type Credit struct {
	UserID      int64
	Amount      decimal.Decimal
	Kind        string
	RefID       *int64
	Description string
}

// KindTitle: человекочитаемое название вида операции.
func KindTitle(kind string) string {
	switch kind {
	case KindActivationPrincipal:
		return "Активация инвестиции"
	case KindActivationReferral:
		return "Бонус за приглашённого"
	case KindDailyProfit:
		return "Ежедневный доход"
	case KindReferralOverride:
		return "Доход с рефералов"
	case KindWithdrawal:
		return "Вывод средств"
	default:
		return kind
	}
}

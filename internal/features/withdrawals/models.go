// Package withdrawals принимает заявки на вывод средств.
package withdrawals

import (
	"time"

	"github.com/shopspring/decimal"

	"serotonyl.ru/invest-bot/internal/features/users"
)

// StatusPending: заявка принята, ждёт ручной выплаты оператором.
const StatusPending = "pending"

// Withdrawal: запись таблицы withdrawals.
type Withdrawal struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	Amount    decimal.Decimal `db:"amount"`
	Status    string          `db:"status"`
	CardLast4 string          `db:"card_last4"` // Последние 4 цифры карты, может быть пустым
	CreatedAt time.Time       `db:"created_at"`
}

// Request: параметры заявки.
type Request struct {
	TelegramID int64
	Amount     decimal.Decimal
	Card       string // 16 цифр
	CardHolder string
}

// Result: успешно созданная заявка и баланс после списания.
type Result struct {
	Withdrawal *Withdrawal
	User       *users.User
	NewBalance decimal.Decimal
}

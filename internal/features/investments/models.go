// Package investments ведёт инвестиции пользователей и их переход
// из состояния «ожидает оплаты» в «активна».
package investments

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"serotonyl.ru/invest-bot/internal/features/ledger"
	"serotonyl.ru/invest-bot/internal/features/users"
)

// Investment: запись таблицы investments.
//
// Жизненный цикл: active=false (создана, ждёт подтверждения оплаты) → active=true.
// Обратного перехода нет.
type Investment struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`    // Владелец (внутренний id)
	Amount    decimal.Decimal `db:"amount"`     // Сумма вклада, > 0
	Plan      string          `db:"plan"`       // Метка тарифа, например plan_100
	CreatedAt time.Time       `db:"created_at"` // Когда создана
	Active    bool            `db:"active"`     // Подтверждена ли оплата
}

// PlanLabel строит метку тарифа по сумме, 100 → "plan_100".
func PlanLabel(amount decimal.Decimal) string {
	return fmt.Sprintf("plan_%s", amount.Truncate(0).String())
}

// ActivationPlan: всё, что нужно записать атомарно при активации.
type ActivationPlan struct {
	InvestmentID int64
	Owner        ledger.Credit
	Referrer     *ledger.Credit // nil, если у владельца нет реферера
}

// Activation: результат успешной активации.
type Activation struct {
	Investment    *Investment
	Owner         *users.User
	Referrer      *users.User     // nil, если реферера нет
	OwnerCredit   decimal.Decimal // Сколько зачислено владельцу
	ReferrerBonus decimal.Decimal // Сколько зачислено рефереру
}

// Summary: сводка для кнопки «📈 Доход».
type Summary struct {
	ActiveCount     int
	ActiveTotal     decimal.Decimal
	PendingCount    int
	DailyProfit     decimal.Decimal // Ожидаемый доход за период по своим инвестициям
	ReferralCount   int
	ReferralDaily   decimal.Decimal // Ожидаемый доход за период с рефералов
	ReferralsActive int             // Рефералы с активными инвестициями
}

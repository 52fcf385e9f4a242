package common

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatSignedMoney создаёт строку вида "+10.00 AZN" или "-50.00 AZN".
// Знак «+» добавляется автоматически для неотрицательных сумм.
func FormatSignedMoney(amount decimal.Decimal, currency string) string {
	if amount.IsNegative() {
		return FormatMoney(amount, currency)
	}
	return "+" + FormatMoney(amount, currency)
}

// FormatDaysLeft: "через 5 дней" для сообщений о периоде удержания.
func FormatDaysLeft(days int) string {
	return fmt.Sprintf("через %d %s", days, PluralizeDays(days))
}

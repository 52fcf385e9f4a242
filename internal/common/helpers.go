// Package common содержит общие утилиты, используемые во всём проекте:
// русская плюрализация, форматирование денег, работа с часовым поясом.
package common

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// PluralizeDays возвращает правильную форму слова «день» для числа n.
//
// Правила:
//   - 1, 21, 31 → "день"
//   - 2-4, 22-24 → "дня"
//   - 5-20, 25-30 → "дней"
func PluralizeDays(n int) string {
	return pluralize(n, "день", "дня", "дней")
}

// PluralizeReferrals: «реферал / реферала / рефералов».
func PluralizeReferrals(n int) string {
	return pluralize(n, "реферал", "реферала", "рефералов")
}

// pluralize выбирает одну из трёх форм слова по правилам русского языка.
func pluralize(n int, one, few, many string) string {
	absN := int(math.Abs(float64(n)))
	lastDigit := absN % 10
	lastTwoDigits := absN % 100

	// Единственное число: 1, 21, 31, 101 (но НЕ 11, 111)
	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	// Малое множественное: 2-4, 22-24 (но НЕ 12-14)
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// FormatMoney форматирует сумму с двумя знаками после запятой и валютой.
// Пример: FormatMoney(decimal.NewFromInt(11), "AZN") → "11.00 AZN"
func FormatMoney(amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
}

// LoadLocation возвращает часовой пояс по имени. При ошибке: UTC.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil || name == "" {
		return time.UTC
	}
	return loc
}

// FormatDateTime форматирует время в "02.01.2006 15:04" в указанном поясе.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02.01.2006 15:04")
}

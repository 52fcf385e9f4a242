// Package accrual проводит периодическое начисление: доход по активным
// инвестициям и доход пригласивших с их рефералов.
package accrual

import (
	"time"

	"github.com/shopspring/decimal"

	"serotonyl.ru/invest-bot/internal/features/investments"
	"serotonyl.ru/invest-bot/internal/features/ledger"
	"serotonyl.ru/invest-bot/internal/features/users"
)

// Snapshot: данные, прочитанные один раз в начале запуска.
// Оба прохода считаются по нему.
type Snapshot struct {
	Active []*investments.Investment
	Users  []*users.User
}

// Plan: рассчитанные зачисления за период.
type Plan struct {
	PeriodKey     string
	Credits       []ledger.Credit
	ProfitTotal   decimal.Decimal
	ReferralTotal decimal.Decimal
}

// Empty: нечего начислять.
func (p *Plan) Empty() bool { return len(p.Credits) == 0 }

// Result: итог успешного запуска.
type Result struct {
	PeriodKey     string
	ProfitTotal   decimal.Decimal
	ReferralTotal decimal.Decimal
	Credits       int
	Users         int // Сколько разных пользователей получили зачисления
	Duration      time.Duration
}

package accrual

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"serotonyl.ru/invest-bot/internal/features/investments"
	"serotonyl.ru/invest-bot/internal/features/ledger"
	"serotonyl.ru/invest-bot/internal/features/users"
)

// PeriodKey возвращает ключ периода начисления, то есть now в UTC, усечённое до interval.
// Два запуска внутри одного периода дают один и тот же ключ.
func PeriodKey(now time.Time, interval time.Duration) string {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return now.UTC().Truncate(interval).Format(time.RFC3339)
}

// ProfitCredits считает доход владельцев: rate от суммы активных инвестиций,
// одна запись журнала на владельца. Доход, округлившийся до нуля, не начисляется.
func ProfitCredits(active []*investments.Investment, rules ledger.Rules) []ledger.Credit {
	perOwner := make(map[int64]decimal.Decimal)
	counts := make(map[int64]int)
	for _, inv := range active {
		if !inv.Active || !inv.Amount.IsPositive() {
			continue
		}
		perOwner[inv.UserID] = perOwner[inv.UserID].Add(inv.Amount)
		counts[inv.UserID]++
	}

	out := make([]ledger.Credit, 0, len(perOwner))
	for _, uid := range sortedKeys(perOwner) {
		amount := rules.DailyProfit(perOwner[uid])
		if !amount.IsPositive() {
			continue
		}
		out = append(out, ledger.Credit{
			UserID:      uid,
			Amount:      amount,
			Kind:        ledger.KindDailyProfit,
			Description: fmt.Sprintf("Доход по %d инвестициям", counts[uid]),
		})
	}
	return out
}

// ActiveTotals: сумма активных инвестиций каждого пользователя.
func ActiveTotals(active []*investments.Investment) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal)
	for _, inv := range active {
		if inv.Active {
			out[inv.UserID] = out[inv.UserID].Add(inv.Amount)
		}
	}
	return out
}

// ReferralCredits считает доход пригласивших: для каждого реферала с ненулевой
// суммой активных инвестиций его реферер получает sum*rate + fixed.
// Только один уровень.
func ReferralCredits(all []*users.User, totals map[int64]decimal.Decimal, rules ledger.Rules) []ledger.Credit {
	var out []ledger.Credit
	for _, r := range all {
		if r.ReferrerID == nil || *r.ReferrerID == r.ID {
			continue
		}
		sum := totals[r.ID]
		if !sum.IsPositive() {
			continue
		}
		amount := rules.ReferralOverride(sum)
		if !amount.IsPositive() {
			continue
		}
		refID := r.ID
		out = append(out, ledger.Credit{
			UserID:      *r.ReferrerID,
			Amount:      amount,
			Kind:        ledger.KindReferralOverride,
			RefID:       &refID,
			Description: fmt.Sprintf("Доход с реферала %s", r.DisplayName()),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// BuildPlan считает оба прохода по снимку.
func BuildPlan(snap *Snapshot, rules ledger.Rules, periodKey string) *Plan {
	p := &Plan{PeriodKey: periodKey}

	for _, c := range ProfitCredits(snap.Active, rules) {
		p.ProfitTotal = p.ProfitTotal.Add(c.Amount)
		p.Credits = append(p.Credits, c)
	}
	for _, c := range ReferralCredits(snap.Users, ActiveTotals(snap.Active), rules) {
		p.ReferralTotal = p.ReferralTotal.Add(c.Amount)
		p.Credits = append(p.Credits, c)
	}
	return p
}

// PerUser: итоговая сумма зачислений по каждому пользователю.
func (p *Plan) PerUser() map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal)
	for _, c := range p.Credits {
		out[c.UserID] = out[c.UserID].Add(c.Amount)
	}
	return out
}

func sortedKeys(m map[int64]decimal.Decimal) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

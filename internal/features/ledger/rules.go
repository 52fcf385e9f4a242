package ledger

import "github.com/shopspring/decimal"

// Rules задаёт параметры начислений. Значения по умолчанию: 10% в день,
// 10% + 1 за реферала, 10 дней удержания перед выводом.
type Rules struct {
	DailyProfitRate    decimal.Decimal
	ReferralRate       decimal.Decimal
	ReferralFixedBonus decimal.Decimal
	WithdrawalHoldDays int
}

// DefaultRules возвращает стандартные ставки.
func DefaultRules() Rules {
	return Rules{
		DailyProfitRate:    decimal.RequireFromString("0.10"),
		ReferralRate:       decimal.RequireFromString("0.10"),
		ReferralFixedBonus: decimal.NewFromInt(1),
		WithdrawalHoldDays: 10,
	}
}

// DailyProfit: доход владельца за один период с суммы его активных инвестиций.
// Округление одно, на всю сумму.
func (r Rules) DailyProfit(activeSum decimal.Decimal) decimal.Decimal {
	return activeSum.Mul(r.DailyProfitRate).Round(2)
}

// ActivationReferralBonus: разовый бонус пригласившему при активации инвестиции реферала.
func (r Rules) ActivationReferralBonus(amount decimal.Decimal) decimal.Decimal {
	return r.ReferralFixedBonus.Add(amount.Mul(r.ReferralRate)).Round(2)
}

// ReferralOverride: ежедневный доход пригласившего с одного реферала,
// у которого сумма активных инвестиций равна activeSum.
func (r Rules) ReferralOverride(activeSum decimal.Decimal) decimal.Decimal {
	return activeSum.Mul(r.ReferralRate).Add(r.ReferralFixedBonus).Round(2)
}

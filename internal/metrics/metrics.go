// Package metrics объявляет счётчики Prometheus, которые отдаются на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

const namespace = "invest_bot"

// Значения метки result
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
	ResultSkipped  = "skipped"
)

var (
	// AccrualRuns считает запуски начисления по результату: ok / skipped (период уже начислен или занят) / error.
	AccrualRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accrual_runs_total",
		Help:      "Запуски периодического начисления по результату.",
	}, []string{"result"})

	// Credited: сумма зачислений по виду записи журнала.
	Credited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "credited_total",
		Help:      "Сумма зачислений на балансы по виду операции.",
	}, []string{"kind"})

	Activations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activations_total",
		Help:      "Попытки активации инвестиций по результату.",
	}, []string{"result"})

	Withdrawals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "withdrawals_total",
		Help:      "Заявки на вывод по результату.",
	}, []string{"result"})

	// Updates: обработанные апдейты Telegram по типу.
	Updates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "updates_total",
		Help:      "Обработанные апдейты Telegram.",
	}, []string{"type"})
)

// AddCredit увеличивает Credited на сумму операции.
func AddCredit(kind string, amount decimal.Decimal) {
	f, _ := amount.Float64()
	if f > 0 {
		Credited.WithLabelValues(kind).Add(f)
	}
}

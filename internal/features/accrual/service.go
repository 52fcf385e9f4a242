package accrual

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/features/ledger"
	"serotonyl.ru/invest-bot/internal/metrics"
)

type store interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	Apply(ctx context.Context, p *Plan) error
}

type locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error)
}

// SendFunc отправляет уведомление пользователю по telegram id.
type SendFunc func(telegramID int64, text string)

// Engine запускает начисление за текущий период.
type Engine struct {
	repo     store
	lock     locker
	rules    ledger.Rules
	interval time.Duration
	lockTTL  time.Duration
	currency string
	now      func() time.Time
	send     SendFunc
}

func NewEngine(repo store, lock locker, rules ledger.Rules, interval time.Duration, currency string) *Engine {
	return &Engine{
		repo:     repo,
		lock:     lock,
		rules:    rules,
		interval: interval,
		lockTTL:  10 * time.Minute,
		currency: currency,
		now:      time.Now,
	}
}

// OnCredited задаёт отправку уведомлений о зачислениях. Без неё Run работает молча.
func (e *Engine) OnCredited(send SendFunc) {
	e.send = send
}

// Run начисляет доход за текущий период.
//
// Период уже начислен → ErrAccrualAlreadyDone, другой процесс считает
// этот же период → ErrAccrualLocked. Балансы в обоих случаях не меняются.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	started := e.now()
	key := PeriodKey(started, e.interval)
	logger := log.WithField("period", key)

	release, err := e.lock.Acquire(ctx, "accrual:"+key, e.lockTTL)
	if err != nil {
		e.observe(err)
		return nil, err
	}
	defer release()

	snap, err := e.repo.Snapshot(ctx)
	if err != nil {
		e.observe(err)
		return nil, fmt.Errorf("ошибка чтения снимка: %w", err)
	}

	plan := BuildPlan(snap, e.rules, key)
	if err := e.repo.Apply(ctx, plan); err != nil {
		e.observe(err)
		return nil, err
	}
	e.observe(nil)

	for _, c := range plan.Credits {
		metrics.AddCredit(c.Kind, c.Amount)
	}

	perUser := plan.PerUser()
	res := &Result{
		PeriodKey:     key,
		ProfitTotal:   plan.ProfitTotal,
		ReferralTotal: plan.ReferralTotal,
		Credits:       len(plan.Credits),
		Users:         len(perUser),
		Duration:      e.now().Sub(started),
	}

	logger.WithFields(log.Fields{
		"profit":   res.ProfitTotal.StringFixed(2),
		"referral": res.ReferralTotal.StringFixed(2),
		"credits":  res.Credits,
		"users":    res.Users,
	}).Info("Начисление выполнено")

	if e.send != nil && !plan.Empty() {
		tg := make(map[int64]int64, len(snap.Users))
		for _, u := range snap.Users {
			tg[u.ID] = u.TelegramID
		}
		go e.notify(perUser, tg)
	}
	return res, nil
}

func (e *Engine) notify(perUser map[int64]decimal.Decimal, tg map[int64]int64) {
	for uid, amount := range perUser {
		chatID, ok := tg[uid]
		if !ok {
			continue
		}
		e.send(chatID, fmt.Sprintf("📈 Начислен доход: +%s", common.FormatMoney(amount, e.currency)))
	}
}

func (e *Engine) observe(err error) {
	switch {
	case err == nil:
		metrics.AccrualRuns.WithLabelValues(metrics.ResultOK).Inc()
	case errors.Is(err, common.ErrAccrualAlreadyDone), errors.Is(err, common.ErrAccrualLocked):
		metrics.AccrualRuns.WithLabelValues(metrics.ResultSkipped).Inc()
	default:
		metrics.AccrualRuns.WithLabelValues(metrics.ResultError).Inc()
	}
}

// Package jobs управляет фоновыми задачами (cron).
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/features/accrual"
)

type accrualRunner interface {
	Run(ctx context.Context) (*accrual.Result, error)
}

// Scheduler запускает начисление по расписанию ACCRUAL_SCHEDULE.
type Scheduler struct {
	cron     *cron.Cron
	accrual  accrualRunner
	schedule string
}

// NewScheduler создаёт планировщик в часовом поясе loc.
func NewScheduler(runner accrualRunner, schedule string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		accrual:  runner,
		schedule: schedule,
	}
}

// Start регистрирует задачи и запускает cron. Ошибка: только при неверном расписании.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.runAccrual(ctx) }); err != nil {
		return fmt.Errorf("неверное расписание начисления %q: %w", s.schedule, err)
	}

	s.cron.Start()
	log.WithField("schedule", s.schedule).Info("Планировщик задач запущен")
	return nil
}

func (s *Scheduler) runAccrual(ctx context.Context) {
	log.Info("[CRON] Начисление дохода")

	res, err := s.accrual.Run(ctx)
	switch {
	case errors.Is(err, common.ErrAccrualAlreadyDone):
		log.Info("[CRON] Период уже начислен, пропуск")
	case errors.Is(err, common.ErrAccrualLocked):
		log.Info("[CRON] Начисление выполняет другая реплика, пропуск")
	case err != nil:
		log.WithError(err).Error("[CRON] Ошибка начисления")
	default:
		log.WithFields(log.Fields{
			"period":   res.PeriodKey,
			"users":    res.Users,
			"duration": res.Duration,
		}).Info("[CRON] Начисление завершено")
	}
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

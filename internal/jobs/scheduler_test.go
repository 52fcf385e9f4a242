package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/features/accrual"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(context.Context) (*accrual.Result, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return &accrual.Result{PeriodKey: "2024-06-20T00:00:00Z"}, nil
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&countingRunner{}, "not a schedule", time.UTC)
	assert.Error(t, s.Start(context.Background()))
}

func TestSchedulerRunsAccrual(t *testing.T) {
	r := &countingRunner{}
	s := NewScheduler(r, "@every 1s", nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestRunAccrualSwallowsSkips(t *testing.T) {
	r := &countingRunner{err: common.ErrAccrualAlreadyDone}
	s := NewScheduler(r, "@every 24h", time.UTC)
	s.runAccrual(context.Background())
	assert.Equal(t, int32(1), r.calls.Load())
}

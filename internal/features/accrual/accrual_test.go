package accrual

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/features/investments"
	"serotonyl.ru/invest-bot/internal/features/ledger"
	"serotonyl.ru/invest-bot/internal/features/users"
)

var start = time.Date(2024, 6, 20, 9, 30, 0, 0, time.UTC)

// memStore повторяет Repository в памяти: отметки периодов и балансы.
type memStore struct {
	mu       sync.Mutex
	snap     *Snapshot
	periods  map[string]bool
	balances map[int64]decimal.Decimal
	entries  []ledger.Credit
}

func newMemStore(snap *Snapshot) *memStore {
	return &memStore{snap: snap, periods: map[string]bool{}, balances: map[int64]decimal.Decimal{}}
}

func (m *memStore) Snapshot(context.Context) (*Snapshot, error) { return m.snap, nil }

func (m *memStore) Apply(_ context.Context, p *Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.periods[p.PeriodKey] {
		return common.ErrAccrualAlreadyDone
	}
	m.periods[p.PeriodKey] = true
	for _, c := range p.Credits {
		m.balances[c.UserID] = m.balances[c.UserID].Add(c.Amount)
		m.entries = append(m.entries, c)
	}
	return nil
}

func (m *memStore) balance(id int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[id].StringFixed(2)
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *memLocker) Acquire(_ context.Context, name string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[name] {
		return nil, common.ErrAccrualLocked
	}
	l.held[name] = true
	return func() {
		l.mu.Lock()
		delete(l.held, name)
		l.mu.Unlock()
	}, nil
}

func inv(id, owner, amount int64, active bool) *investments.Investment {
	return &investments.Investment{ID: id, UserID: owner, Amount: decimal.NewFromInt(amount), Active: active}
}

func usr(id int64, referrer *int64) *users.User {
	return &users.User{ID: id, TelegramID: 1000 + id, ReferrerID: referrer}
}

func ptr(v int64) *int64 { return &v }

func newEngine(st store, l locker) *Engine {
	e := NewEngine(st, l, ledger.DefaultRules(), 24*time.Hour, "AZN")
	e.now = func() time.Time { return start }
	return e
}

func TestTwoInvestmentsPayFifteen(t *testing.T) {
	st := newMemStore(&Snapshot{
		Active: []*investments.Investment{inv(1, 1, 50, true), inv(2, 1, 100, true)},
		Users:  []*users.User{usr(1, nil)},
	})
	res, err := newEngine(st, &memLocker{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "15.00", st.balance(1))
	assert.Equal(t, "15.00", res.ProfitTotal.StringFixed(2))
	assert.True(t, res.ReferralTotal.IsZero())
	assert.Equal(t, 1, res.Credits)
}

func TestReferralOverride(t *testing.T) {
	// 1 пригласил 2 и 3; у 3 нет активных инвестиций
	st := newMemStore(&Snapshot{
		Active: []*investments.Investment{inv(1, 2, 100, true), inv(2, 3, 50, false)},
		Users:  []*users.User{usr(1, nil), usr(2, ptr(1)), usr(3, ptr(1))},
	})
	res, err := newEngine(st, &memLocker{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "11.00", st.balance(1)) // 100*0.10 + 1
	assert.Equal(t, "10.00", st.balance(2))
	assert.Equal(t, "0.00", st.balance(3))
	assert.Equal(t, "11.00", res.ReferralTotal.StringFixed(2))
	assert.Equal(t, 2, res.Users)
}

func TestSecondRunSamePeriodIsNoop(t *testing.T) {
	st := newMemStore(&Snapshot{
		Active: []*investments.Investment{inv(1, 1, 100, true)},
		Users:  []*users.User{usr(1, nil)},
	})
	e := newEngine(st, &memLocker{})

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	e.now = func() time.Time { return start.Add(3 * time.Hour) }
	_, err = e.Run(context.Background())
	assert.ErrorIs(t, err, common.ErrAccrualAlreadyDone)
	assert.Equal(t, "10.00", st.balance(1))

	e.now = func() time.Time { return start.Add(24 * time.Hour) }
	_, err = e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20.00", st.balance(1))
}

func TestLockedPeriodIsSkipped(t *testing.T) {
	st := newMemStore(&Snapshot{Active: []*investments.Investment{inv(1, 1, 100, true)}, Users: []*users.User{usr(1, nil)}})
	l := &memLocker{}
	_, err := l.Acquire(context.Background(), "accrual:"+PeriodKey(start, 24*time.Hour), time.Minute)
	require.NoError(t, err)

	_, err = newEngine(st, l).Run(context.Background())
	assert.ErrorIs(t, err, common.ErrAccrualLocked)
	assert.Equal(t, "0.00", st.balance(1))
}

func TestRunNotifiesCreditedUsers(t *testing.T) {
	st := newMemStore(&Snapshot{
		Active: []*investments.Investment{inv(1, 2, 100, true)},
		Users:  []*users.User{usr(1, nil), usr(2, ptr(1))},
	})
	e := newEngine(st, &memLocker{})

	got := make(chan int64, 4)
	e.OnCredited(func(tg int64, _ string) { got <- tg })

	_, err := e.Run(context.Background())
	require.NoError(t, err)

	seen := map[int64]bool{}
	for len(seen) < 2 {
		select {
		case tg := <-got:
			seen[tg] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("получено уведомлений: %d", len(seen))
		}
	}
	assert.True(t, seen[1001])
	assert.True(t, seen[1002])
}

func TestPeriodKey(t *testing.T) {
	assert.Equal(t, "2024-06-20T00:00:00Z", PeriodKey(start, 24*time.Hour))
	assert.Equal(t, "2024-06-20T09:00:00Z", PeriodKey(start, time.Hour))
	assert.Equal(t, PeriodKey(start, 0), PeriodKey(start.Add(time.Hour), 24*time.Hour))

	moscow := time.FixedZone("MSK", 3*3600)
	assert.Equal(t, "2024-06-20T00:00:00Z", PeriodKey(start.In(moscow), 24*time.Hour))
}

func TestReferralCreditsIgnoreSelfReference(t *testing.T) {
	totals := map[int64]decimal.Decimal{5: decimal.NewFromInt(100)}
	credits := ReferralCredits([]*users.User{usr(5, ptr(5))}, totals, ledger.DefaultRules())
	assert.Empty(t, credits)
}

func TestProfitCreditsRounding(t *testing.T) {
	credits := ProfitCredits([]*investments.Investment{
		{UserID: 1, Amount: decimal.RequireFromString("33.33"), Active: true},
		{UserID: 1, Amount: decimal.RequireFromString("33.33"), Active: true},
	}, ledger.DefaultRules())
	require.Len(t, credits, 1)
	// 66.66 * 0.10 = 6.666, округляется один раз
	assert.Equal(t, "6.67", credits[0].Amount.StringFixed(2))
}

func TestBuildPlanSkipsZeroCredits(t *testing.T) {
	rules := ledger.DefaultRules()
	rules.ReferralFixedBonus = decimal.Zero

	snap := &Snapshot{
		Active: []*investments.Investment{
			{UserID: 1, Amount: decimal.NewFromInt(100), Active: true},
			{UserID: 2, Amount: decimal.RequireFromString("0.04"), Active: true},
		},
		Users: []*users.User{usr(1, nil), usr(2, ptr(1))},
	}

	plan := BuildPlan(snap, rules, "2024-06-20T00:00:00Z")
	require.Len(t, plan.Credits, 1)
	assert.Equal(t, int64(1), plan.Credits[0].UserID)
	assert.Equal(t, "10.00", plan.Credits[0].Amount.StringFixed(2))
	assert.Equal(t, "0.00", plan.ReferralTotal.StringFixed(2))
	for _, c := range plan.Credits {
		assert.True(t, c.Amount.IsPositive())
	}
}

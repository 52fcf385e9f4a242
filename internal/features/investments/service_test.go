package investments

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/features/ledger"
	"serotonyl.ru/invest-bot/internal/features/users"
)

// memLedger: инвестиции, пользователи и журнал в памяти.
// Activate повторяет поведение транзакции: всё или ничего.
type memLedger struct {
	mu      sync.Mutex
	users   map[int64]*users.User
	invs    map[int64]*Investment
	entries []ledger.Credit
	nextInv int64
	// failCredit: зачисление этому пользователю падает (для проверки отката)
	failCredit int64
}

func newMemLedger() *memLedger {
	return &memLedger{users: map[int64]*users.User{}, invs: map[int64]*Investment{}, nextInv: 1}
}

func (m *memLedger) addUser(id int64, referrer *int64) *users.User {
	u := &users.User{ID: id, TelegramID: id * 100, ReferrerID: referrer}
	m.users[id] = u
	return u
}

func (m *memLedger) balance(id int64) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id].Balance
}

func (m *memLedger) Create(_ context.Context, userID int64, amount decimal.Decimal, plan string, active bool) (*Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv := &Investment{ID: m.nextInv, UserID: userID, Amount: amount, Plan: plan, Active: active}
	m.nextInv++
	m.invs[inv.ID] = inv
	cp := *inv
	return &cp, nil
}

func (m *memLedger) GetByID(_ context.Context, id int64) (*Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invs[id]
	if !ok {
		return nil, common.ErrInvestmentNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *memLedger) ListByUser(_ context.Context, userID int64) ([]*Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Investment
	for id := int64(1); id < m.nextInv; id++ {
		if inv, ok := m.invs[id]; ok && inv.UserID == userID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memLedger) ListActive(context.Context) ([]*Investment, error) { return nil, nil }

func (m *memLedger) ListPending(context.Context, int) ([]*Investment, error) { return nil, nil }

func (m *memLedger) ActiveTotals(_ context.Context, ids []int64) (map[int64]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64]decimal.Decimal{}
	for _, uid := range ids {
		for _, inv := range m.invs {
			if inv.UserID == uid && inv.Active {
				out[uid] = out[uid].Add(inv.Amount)
			}
		}
	}
	return out, nil
}

func (m *memLedger) Activate(_ context.Context, p ActivationPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invs[p.InvestmentID]
	if !ok {
		return common.ErrInvestmentNotFound
	}
	if inv.Active {
		return common.ErrAlreadyActive
	}
	credits := []ledger.Credit{p.Owner}
	if p.Referrer != nil {
		credits = append(credits, *p.Referrer)
	}
	for _, c := range credits {
		if c.UserID == m.failCredit {
			return &common.StorageError{Op: "test", Err: assert.AnError}
		}
	}
	inv.Active = true
	for _, c := range credits {
		m.users[c.UserID].Balance = m.users[c.UserID].Balance.Add(c.Amount)
		m.entries = append(m.entries, c)
	}
	return nil
}

// users.Service-подобный каталог поверх той же памяти
func (m *memLedger) directory() userDirectory { return memDirectory{m} }

type memDirectory struct{ m *memLedger }

func (d memDirectory) GetByID(_ context.Context, id int64) (*users.User, error) {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	u, ok := d.m.users[id]
	if !ok {
		return nil, common.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (d memDirectory) Referrals(_ context.Context, id int64) ([]*users.User, error) {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	var out []*users.User
	for _, u := range d.m.users {
		if u.ReferrerID != nil && *u.ReferrerID == id {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func ptr(v int64) *int64 { return &v }

func TestActivateCreditsOwnerAndReferrer(t *testing.T) {
	m := newMemLedger()
	m.addUser(1, nil)    // B
	m.addUser(2, ptr(1)) // A, приглашён B
	svc := NewService(m, m.directory(), ledger.DefaultRules())
	ctx := context.Background()

	inv, err := svc.CreatePending(ctx, 2, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.False(t, inv.Active)
	assert.Equal(t, "plan_100", inv.Plan)
	assert.True(t, m.balance(2).IsZero(), "pending не меняет баланс")

	act, err := svc.Activate(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, act.Investment.Active)
	assert.Equal(t, "100.00", m.balance(2).StringFixed(2))
	assert.Equal(t, "11.00", m.balance(1).StringFixed(2))
	assert.Equal(t, "11.00", act.ReferrerBonus.StringFixed(2))
	require.NotNil(t, act.Referrer)
	assert.Equal(t, int64(1), act.Referrer.ID)

	require.Len(t, m.entries, 2)
	assert.Equal(t, ledger.KindActivationPrincipal, m.entries[0].Kind)
	assert.Equal(t, ledger.KindActivationReferral, m.entries[1].Kind)
}

func TestActivateWithoutReferrer(t *testing.T) {
	m := newMemLedger()
	m.addUser(1, nil)
	svc := NewService(m, m.directory(), ledger.DefaultRules())

	inv, err := svc.CreatePending(context.Background(), 1, decimal.NewFromInt(50))
	require.NoError(t, err)

	act, err := svc.Activate(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Nil(t, act.Referrer)
	assert.True(t, act.ReferrerBonus.IsZero())
	assert.Equal(t, "50.00", m.balance(1).StringFixed(2))
	assert.Len(t, m.entries, 1)
}

func TestActivateTwiceLeavesBalances(t *testing.T) {
	m := newMemLedger()
	m.addUser(1, nil)
	m.addUser(2, ptr(1))
	svc := NewService(m, m.directory(), ledger.DefaultRules())
	ctx := context.Background()

	inv, err := svc.CreatePending(ctx, 2, decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = svc.Activate(ctx, inv.ID)
	require.NoError(t, err)

	_, err = svc.Activate(ctx, inv.ID)
	assert.ErrorIs(t, err, common.ErrAlreadyActive)
	assert.Equal(t, "100.00", m.balance(2).StringFixed(2))
	assert.Equal(t, "11.00", m.balance(1).StringFixed(2))
	assert.Len(t, m.entries, 2)
}

func TestActivateConcurrentOnlyOnce(t *testing.T) {
	m := newMemLedger()
	m.addUser(1, nil)
	svc := NewService(m, m.directory(), ledger.DefaultRules())
	ctx := context.Background()

	inv, err := svc.CreatePending(ctx, 1, decimal.NewFromInt(150))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Activate(ctx, inv.ID); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, "150.00", m.balance(1).StringFixed(2))
}

func TestActivateNotFound(t *testing.T) {
	m := newMemLedger()
	svc := NewService(m, m.directory(), ledger.DefaultRules())

	_, err := svc.Activate(context.Background(), 404)
	assert.ErrorIs(t, err, common.ErrInvestmentNotFound)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestActivateStorageFailureIsAtomic(t *testing.T) {
	m := newMemLedger()
	m.addUser(1, nil)
	m.addUser(2, ptr(1))
	m.failCredit = 1
	svc := NewService(m, m.directory(), ledger.DefaultRules())
	ctx := context.Background()

	inv, err := svc.CreatePending(ctx, 2, decimal.NewFromInt(100))
	require.NoError(t, err)

	_, err = svc.Activate(ctx, inv.ID)
	var se *common.StorageError
	require.ErrorAs(t, err, &se)

	got, err := svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.True(t, m.balance(2).IsZero())
	assert.True(t, m.balance(1).IsZero())
}

func TestCreateValidation(t *testing.T) {
	m := newMemLedger()
	m.addUser(1, nil)
	svc := NewService(m, m.directory(), ledger.DefaultRules())
	ctx := context.Background()

	_, err := svc.CreatePending(ctx, 1, decimal.Zero)
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	_, err = svc.CreatePending(ctx, 99, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, common.ErrUserNotFound)

	inv, err := svc.CreateActive(ctx, 1, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, inv.Active)
	assert.True(t, m.balance(1).IsZero(), "ручное добавление не зачисляет сумму")
}

func TestSummary(t *testing.T) {
	m := newMemLedger()
	m.addUser(1, nil)
	m.addUser(2, ptr(1))
	m.addUser(3, ptr(1))
	svc := NewService(m, m.directory(), ledger.DefaultRules())
	ctx := context.Background()

	_, err := svc.CreateActive(ctx, 1, decimal.NewFromInt(50))
	require.NoError(t, err)
	_, err = svc.CreateActive(ctx, 1, decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = svc.CreatePending(ctx, 1, decimal.NewFromInt(150))
	require.NoError(t, err)
	_, err = svc.CreateActive(ctx, 2, decimal.NewFromInt(100))
	require.NoError(t, err)

	sum, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.ActiveCount)
	assert.Equal(t, 1, sum.PendingCount)
	assert.Equal(t, "150.00", sum.ActiveTotal.StringFixed(2))
	assert.Equal(t, "15.00", sum.DailyProfit.StringFixed(2))
	assert.Equal(t, 2, sum.ReferralCount)
	assert.Equal(t, 1, sum.ReferralsActive)
	assert.Equal(t, "11.00", sum.ReferralDaily.StringFixed(2))

	pending, err := svc.HasPending(ctx, 1)
	require.NoError(t, err)
	assert.True(t, pending)

	text := FormatSummary(sum, "AZN")
	assert.Contains(t, text, "15.00 AZN")
}

package users

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/invest-bot/internal/common"
)

// memStore: хранилище пользователей в памяти.
type memStore struct {
	users  []*User
	nextID int64
	// Коды, которые Create отвергнет как занятые
	taken map[string]bool
	err   error
}

func newMemStore() *memStore {
	return &memStore{nextID: 1, taken: map[string]bool{}}
}

func (m *memStore) Create(_ context.Context, u *User) (*User, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	for _, existing := range m.users {
		if existing.TelegramID == u.TelegramID {
			return existing, false, nil
		}
		if existing.ReferralCode == u.ReferralCode {
			return nil, false, ErrReferralCodeTaken
		}
	}
	if m.taken[u.ReferralCode] {
		return nil, false, ErrReferralCodeTaken
	}
	cp := *u
	cp.ID = m.nextID
	m.nextID++
	m.users = append(m.users, &cp)
	return &cp, true, nil
}

func (m *memStore) find(pred func(*User) bool) (*User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if pred(u) {
			return u, nil
		}
	}
	return nil, common.ErrUserNotFound
}

func (m *memStore) GetByID(_ context.Context, id int64) (*User, error) {
	return m.find(func(u *User) bool { return u.ID == id })
}

func (m *memStore) GetByTelegramID(_ context.Context, tg int64) (*User, error) {
	return m.find(func(u *User) bool { return u.TelegramID == tg })
}

func (m *memStore) GetByReferralCode(_ context.Context, code string) (*User, error) {
	return m.find(func(u *User) bool { return u.ReferralCode == code })
}

func (m *memStore) ListAll(_ context.Context, _ int) ([]*User, error) {
	return m.users, nil
}

func (m *memStore) ListReferrals(_ context.Context, id int64) ([]*User, error) {
	var out []*User
	for _, u := range m.users {
		if u.ReferrerID != nil && *u.ReferrerID == id {
			out = append(out, u)
		}
	}
	return out, nil
}

func fixedCodes(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

func TestGenerateReferralCode(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateReferralCode()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

func TestRegisterWithReferrer(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	svc.newCode = fixedCodes("AAAAAA", "BBBBBB")
	ctx := context.Background()

	b, created, err := svc.Register(ctx, Profile{TelegramID: 100, Username: "bob"}, "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, b.ReferrerID)
	assert.Equal(t, "AAAAAA", b.ReferralCode)

	a, created, err := svc.Register(ctx, Profile{TelegramID: 200}, "aaaaaa")
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, a.ReferrerID)
	assert.Equal(t, b.ID, *a.ReferrerID)

	refs, err := svc.Referrals(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, refs, 1)
}

func TestRegisterIsIdempotent(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	svc.newCode = fixedCodes("AAAAAA", "BBBBBB", "CCCCCC")
	ctx := context.Background()

	_, _, err := svc.Register(ctx, Profile{TelegramID: 1}, "")
	require.NoError(t, err)
	first, _, err := svc.Register(ctx, Profile{TelegramID: 2}, "")
	require.NoError(t, err)

	// повторный /start с чужим кодом не меняет реферера
	again, created, err := svc.Register(ctx, Profile{TelegramID: 2}, "AAAAAA")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Nil(t, again.ReferrerID)
	assert.Len(t, store.users, 2)
}

func TestRegisterUnknownCode(t *testing.T) {
	svc := NewService(newMemStore())
	u, created, err := svc.Register(context.Background(), Profile{TelegramID: 5}, "NOPE00")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, u.ReferrerID)
}

func TestRegisterRetriesOnCodeCollision(t *testing.T) {
	store := newMemStore()
	store.taken["DUPDUP"] = true
	svc := NewService(store)
	svc.newCode = fixedCodes("DUPDUP", "FRESH1")

	u, created, err := svc.Register(context.Background(), Profile{TelegramID: 9}, "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "FRESH1", u.ReferralCode)
}

func TestRegisterGivesUpAfterAttempts(t *testing.T) {
	store := newMemStore()
	store.taken["DUPDUP"] = true
	svc := NewService(store)
	svc.newCode = fixedCodes("DUPDUP")

	_, _, err := svc.Register(context.Background(), Profile{TelegramID: 9}, "")
	assert.Error(t, err)
	assert.Empty(t, store.users)
}

func TestResolveReferrer(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	svc.newCode = fixedCodes("ZZZZZZ")
	ctx := context.Background()

	owner, _, err := svc.Register(ctx, Profile{TelegramID: 1}, "")
	require.NoError(t, err)

	got, err := svc.ResolveReferrer(ctx, " zzzzzz ")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.ID)

	got, err = svc.ResolveReferrer(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.ResolveReferrer(ctx, "QQQQQQ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveReferrerStorageError(t *testing.T) {
	store := newMemStore()
	store.err = &common.StorageError{Op: "test", Err: errors.New("down")}
	svc := NewService(store)

	_, err := svc.ResolveReferrer(context.Background(), "ABCDEF")
	var se *common.StorageError
	assert.ErrorAs(t, err, &se)
}

func TestUserHelpers(t *testing.T) {
	u := &User{TelegramID: 42, ReferralCode: "ABC123"}
	assert.Equal(t, "42", u.DisplayName())
	u.FirstName = "Ali"
	assert.Equal(t, "Ali", u.DisplayName())
	u.Username = "ali"
	assert.Equal(t, "@ali", u.DisplayName())
	assert.Equal(t, "https://t.me/invest_bot?start=ABC123", u.ReferralLink("invest_bot"))
}

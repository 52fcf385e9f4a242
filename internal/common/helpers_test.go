package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluralizeDays(t *testing.T) {
	cases := map[int]string{
		0: "дней", 1: "день", 2: "дня", 4: "дня", 5: "дней",
		11: "дней", 12: "дней", 21: "день", 22: "дня", 111: "дней",
	}
	for n, want := range cases {
		assert.Equal(t, want, PluralizeDays(n), "n=%d", n)
	}
}

func TestPluralizeReferrals(t *testing.T) {
	assert.Equal(t, "реферал", PluralizeReferrals(1))
	assert.Equal(t, "реферала", PluralizeReferrals(3))
	assert.Equal(t, "рефералов", PluralizeReferrals(7))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "11.00 AZN", FormatMoney(decimal.NewFromInt(11), "AZN"))
	assert.Equal(t, "0.50 AZN", FormatMoney(decimal.RequireFromString("0.5"), "AZN"))
	assert.Equal(t, "+15.00 AZN", FormatSignedMoney(decimal.NewFromInt(15), "AZN"))
	assert.Equal(t, "-50.00 AZN", FormatSignedMoney(decimal.NewFromInt(-50), "AZN"))
}

func TestFormatDateTime(t *testing.T) {
	ts := time.Date(2024, 3, 1, 21, 30, 0, 0, time.UTC)
	assert.Equal(t, "01.03.2024 21:30", FormatDateTime(ts, nil))
	assert.Equal(t, "02.03.2024 00:30", FormatDateTime(ts, time.FixedZone("MSK", 3*60*60)))
}

func TestLoadLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation("Nowhere/Invalid"))
	assert.Equal(t, time.UTC, LoadLocation(""))
}

func TestNotFoundErrors(t *testing.T) {
	assert.ErrorIs(t, ErrUserNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrInvestmentNotFound, ErrNotFound)
	assert.ErrorIs(t, fmt.Errorf("обёртка: %w", ErrInvestmentNotFound), ErrInvestmentNotFound)
	assert.False(t, errors.Is(ErrUserNotFound, ErrInvestmentNotFound))
}

func TestMaturityHoldError(t *testing.T) {
	var err error = &MaturityHoldError{DaysPassed: 5, RemainingDays: 5}
	var hold *MaturityHoldError
	require.ErrorAs(t, fmt.Errorf("вывод: %w", err), &hold)
	assert.Equal(t, 5, hold.RemainingDays)
	assert.Contains(t, err.Error(), "5 дней")
}

func TestStorageWrap(t *testing.T) {
	driverErr := errors.New("connection reset")
	err := Storage("users.get", driverErr)

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "users.get", se.Op)
	assert.ErrorIs(t, err, driverErr)

	// доменные ошибки не заворачиваются
	assert.Same(t, ErrUserNotFound, Storage("users.get", ErrUserNotFound))
	assert.NoError(t, Storage("noop", nil))
}

func TestStorageKeepsDomainErrors(t *testing.T) {
	for _, domain := range []error{
		ErrInvalidAmount,
		ErrInvalidCard,
		ErrInsufficientBalance,
		ErrAlreadyActive,
		ErrAccrualAlreadyDone,
		ErrAccrualLocked,
		fmt.Errorf("зачисление: %w", ErrInvalidAmount),
		&MaturityHoldError{DaysPassed: 3, RemainingDays: 7},
	} {
		err := Storage("accrual.apply", domain)
		var se *StorageError
		assert.False(t, errors.As(err, &se), "%v", domain)
		assert.Same(t, domain, err)
	}
}

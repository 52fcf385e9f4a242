package withdrawals

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/features/ledger"
	"serotonyl.ru/invest-bot/internal/features/users"
	"serotonyl.ru/invest-bot/internal/metrics"
)

type store interface {
	Create(ctx context.Context, userID int64, amount decimal.Decimal, cardLast4 string) (*Withdrawal, decimal.Decimal, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*Withdrawal, error)
}

type userLookup interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*users.User, error)
}

// Service проверяет условия вывода и создаёт заявки.
type Service struct {
	repo  store
	users userLookup
	rules ledger.Rules
	now   func() time.Time
}

// NewService создаёт сервис вывода.
func NewService(repo store, lookup userLookup, rules ledger.Rules) *Service {
	return &Service{repo: repo, users: lookup, rules: rules, now: time.Now}
}

// DaysPassed: сколько полных суток прошло от created до now.
func DaysPassed(created, now time.Time) int {
	d := now.Sub(created)
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// CheckMaturity возвращает *common.MaturityHoldError, если с регистрации
// прошло меньше holdDays полных суток.
func CheckMaturity(created, now time.Time, holdDays int) error {
	passed := DaysPassed(created, now)
	if passed < holdDays {
		return &common.MaturityHoldError{DaysPassed: passed, RemainingDays: holdDays - passed}
	}
	return nil
}

// RequestWithdrawal проверяет по порядку: сумма > 0, хватает ли баланса,
// прошёл ли период удержания. Затем списывает сумму и создаёт заявку pending.
func (s *Service) RequestWithdrawal(ctx context.Context, req Request) (*Result, error) {
	res, err := s.request(ctx, req)
	var hold *common.MaturityHoldError
	switch {
	case err == nil:
		metrics.Withdrawals.WithLabelValues(metrics.ResultOK).Inc()
	case errors.Is(err, common.ErrInsufficientBalance), errors.As(err, &hold), errors.Is(err, common.ErrInvalidAmount):
		metrics.Withdrawals.WithLabelValues(metrics.ResultRejected).Inc()
	default:
		metrics.Withdrawals.WithLabelValues(metrics.ResultError).Inc()
	}
	return res, err
}

func (s *Service) request(ctx context.Context, req Request) (*Result, error) {
	if !req.Amount.IsPositive() {
		return nil, common.ErrInvalidAmount
	}

	u, err := s.users.GetByTelegramID(ctx, req.TelegramID)
	if err != nil {
		return nil, err
	}

	if req.Amount.GreaterThan(u.Balance) {
		return nil, common.ErrInsufficientBalance
	}

	if err := CheckMaturity(u.CreatedAt, s.now(), s.rules.WithdrawalHoldDays); err != nil {
		return nil, err
	}

	// Баланс мог уменьшиться с момента чтения: окончательную проверку делает UPDATE в репозитории
	w, newBalance, err := s.repo.Create(ctx, u.ID, req.Amount, last4(req.Card))
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"withdrawal_id": w.ID,
		"user_id":       u.ID,
		"amount":        req.Amount.String(),
	}).Info("Заявка на вывод создана")

	return &Result{Withdrawal: w, User: u, NewBalance: newBalance}, nil
}

// History: последние заявки пользователя.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]*Withdrawal, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

// ValidCard: ровно 16 цифр (пробелы и дефисы допускаются).
func ValidCard(raw string) (string, bool) {
	digits := make([]byte, 0, 16)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= '0' && c <= '9':
			digits = append(digits, c)
		case c == ' ' || c == '-':
		default:
			return "", false
		}
	}
	if len(digits) != 16 {
		return "", false
	}
	return string(digits), true
}

func last4(card string) string {
	if len(card) < 4 {
		return card
	}
	return card[len(card)-4:]
}

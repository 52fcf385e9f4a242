package investments

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/features/ledger"
	"serotonyl.ru/invest-bot/internal/features/users"
	"serotonyl.ru/invest-bot/internal/metrics"
)

type store interface {
	Create(ctx context.Context, userID int64, amount decimal.Decimal, plan string, active bool) (*Investment, error)
	GetByID(ctx context.Context, id int64) (*Investment, error)
	ListByUser(ctx context.Context, userID int64) ([]*Investment, error)
	ListActive(ctx context.Context) ([]*Investment, error)
	ListPending(ctx context.Context, limit int) ([]*Investment, error)
	ActiveTotals(ctx context.Context, userIDs []int64) (map[int64]decimal.Decimal, error)
	Activate(ctx context.Context, p ActivationPlan) error
}

type userDirectory interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
	Referrals(ctx context.Context, userID int64) ([]*users.User, error)
}

// Service: машина состояний инвестиции.
type Service struct {
	repo  store
	users userDirectory
	rules ledger.Rules
}

// NewService создаёт сервис инвестиций.
func NewService(repo store, dir userDirectory, rules ledger.Rules) *Service {
	return &Service{repo: repo, users: dir, rules: rules}
}

// CreatePending создаёт неактивную инвестицию: пользователь выбрал сумму
// и должен прислать квитанцию. Баланс не меняется.
func (s *Service) CreatePending(ctx context.Context, userID int64, amount decimal.Decimal) (*Investment, error) {
	return s.create(ctx, userID, amount, false)
}

// CreateActive создаёт уже активную инвестицию (оператор добавил вручную).
// Баланс не меняется: зачисление происходит только при Activate.
func (s *Service) CreateActive(ctx context.Context, userID int64, amount decimal.Decimal) (*Investment, error) {
	return s.create(ctx, userID, amount, true)
}

func (s *Service) create(ctx context.Context, userID int64, amount decimal.Decimal, active bool) (*Investment, error) {
	if !amount.IsPositive() {
		return nil, common.ErrInvalidAmount
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	inv, err := s.repo.Create(ctx, userID, amount, PlanLabel(amount), active)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"investment_id": inv.ID,
		"user_id":       userID,
		"amount":        amount.String(),
		"active":        active,
	}).Info("Инвестиция создана")
	return inv, nil
}

// Activate подтверждает оплату инвестиции: ставит active, зачисляет владельцу
// сумму вклада и, если есть реферер, бонус 1 + 10% от суммы.
// Всё это одна транзакция. Повторная активация возвращает ErrAlreadyActive
// и балансы не трогает.
func (s *Service) Activate(ctx context.Context, investmentID int64) (*Activation, error) {
	act, err := s.activate(ctx, investmentID)
	switch {
	case err == nil:
		metrics.Activations.WithLabelValues(metrics.ResultOK).Inc()
	case errors.Is(err, common.ErrAlreadyActive), errors.Is(err, common.ErrNotFound):
		metrics.Activations.WithLabelValues(metrics.ResultRejected).Inc()
	default:
		metrics.Activations.WithLabelValues(metrics.ResultError).Inc()
	}
	return act, err
}

func (s *Service) activate(ctx context.Context, investmentID int64) (*Activation, error) {
	inv, err := s.repo.GetByID(ctx, investmentID)
	if err != nil {
		return nil, err
	}
	if inv.Active {
		return nil, common.ErrAlreadyActive
	}

	owner, err := s.users.GetByID(ctx, inv.UserID)
	if err != nil {
		return nil, err
	}

	ref := inv.ID
	plan := ActivationPlan{
		InvestmentID: inv.ID,
		Owner: ledger.Credit{
			UserID:      owner.ID,
			Amount:      inv.Amount,
			Kind:        ledger.KindActivationPrincipal,
			RefID:       &ref,
			Description: fmt.Sprintf("Активация инвестиции #%d", inv.ID),
		},
	}

	act := &Activation{Investment: inv, Owner: owner, OwnerCredit: inv.Amount}

	if owner.ReferrerID != nil {
		referrer, err := s.users.GetByID(ctx, *owner.ReferrerID)
		if err != nil {
			return nil, fmt.Errorf("реферер владельца инвестиции #%d: %w", inv.ID, err)
		}
		bonus := s.rules.ActivationReferralBonus(inv.Amount)
		plan.Referrer = &ledger.Credit{
			UserID:      referrer.ID,
			Amount:      bonus,
			Kind:        ledger.KindActivationReferral,
			RefID:       &ref,
			Description: fmt.Sprintf("Бонус за инвестицию реферала #%d", inv.ID),
		}
		act.Referrer = referrer
		act.ReferrerBonus = bonus
	}

	if err := s.repo.Activate(ctx, plan); err != nil {
		return nil, err
	}

	inv.Active = true
	metrics.AddCredit(ledger.KindActivationPrincipal, act.OwnerCredit)
	if act.Referrer != nil {
		metrics.AddCredit(ledger.KindActivationReferral, act.ReferrerBonus)
	}

	log.WithFields(log.Fields{
		"investment_id":  inv.ID,
		"owner_id":       owner.ID,
		"owner_credit":   act.OwnerCredit.String(),
		"referrer_bonus": act.ReferrerBonus.String(),
	}).Info("Инвестиция активирована")
	return act, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Investment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*Investment, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListActive(ctx context.Context) ([]*Investment, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) ListPending(ctx context.Context, limit int) ([]*Investment, error) {
	return s.repo.ListPending(ctx, limit)
}

// HasPending: есть ли у пользователя неподтверждённые инвестиции.
func (s *Service) HasPending(ctx context.Context, userID int64) (bool, error) {
	invs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, inv := range invs {
		if !inv.Active {
			return true, nil
		}
	}
	return false, nil
}

// Summary считает сводку по своим инвестициям и ожидаемому доходу с рефералов
// по тем же правилам, что и периодическое начисление.
func (s *Service) Summary(ctx context.Context, userID int64) (*Summary, error) {
	invs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	for _, inv := range invs {
		if inv.Active {
			sum.ActiveCount++
			sum.ActiveTotal = sum.ActiveTotal.Add(inv.Amount)
		} else {
			sum.PendingCount++
		}
	}
	sum.DailyProfit = s.rules.DailyProfit(sum.ActiveTotal)

	refs, err := s.users.Referrals(ctx, userID)
	if err != nil {
		return nil, err
	}
	sum.ReferralCount = len(refs)

	ids := make([]int64, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	totals, err := s.repo.ActiveTotals(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, total := range totals {
		if total.IsPositive() {
			sum.ReferralsActive++
			sum.ReferralDaily = sum.ReferralDaily.Add(s.rules.ReferralOverride(total))
		}
	}
	return sum, nil
}

package users

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/common"
)

const (
	referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referralCodeLength   = 6
	// Сколько раз перегенерировать код при коллизии
	referralCodeAttempts = 5
)

type store interface {
	Create(ctx context.Context, u *User) (*User, bool, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
	ListAll(ctx context.Context, limit int) ([]*User, error)
	ListReferrals(ctx context.Context, userID int64) ([]*User, error)
}

// Service управляет пользователями.
type Service struct {
	repo    store
	newCode func() (string, error)
}

// NewService создаёт сервис пользователей.
func NewService(repo store) *Service {
	return &Service{repo: repo, newCode: GenerateReferralCode}
}

// Register регистрирует пользователя при первом /start.
// Повторный вызов возвращает существующую запись и created=false,
// реферер при этом не меняется.
func (s *Service) Register(ctx context.Context, p Profile, referralCode string) (*User, bool, error) {
	existing, err := s.repo.GetByTelegramID(ctx, p.TelegramID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrUserNotFound) {
		return nil, false, err
	}

	referrer, err := s.ResolveReferrer(ctx, referralCode)
	if err != nil {
		return nil, false, err
	}

	u := &User{
		TelegramID: p.TelegramID,
		Username:   p.Username,
		FirstName:  p.FirstName,
	}
	if referrer != nil && referrer.TelegramID != p.TelegramID {
		u.ReferrerID = &referrer.ID
	}

	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, false, fmt.Errorf("ошибка генерации реферального кода: %w", err)
		}
		u.ReferralCode = code

		created, isNew, err := s.repo.Create(ctx, u)
		if errors.Is(err, ErrReferralCodeTaken) {
			log.WithField("code", code).Warn("Коллизия реферального кода, генерируем заново")
			continue
		}
		if err != nil {
			return nil, false, err
		}

		if isNew {
			log.WithFields(log.Fields{
				"telegram_id": p.TelegramID,
				"user_id":     created.ID,
				"referrer_id": created.ReferrerID,
			}).Info("Новый пользователь зарегистрирован")
		}
		return created, isNew, nil
	}
	return nil, false, fmt.Errorf("не удалось подобрать свободный реферальный код за %d попыток", referralCodeAttempts)
}

// ResolveReferrer ищет владельца кода. Пустой или неизвестный код: (nil, nil).
func (s *Service) ResolveReferrer(ctx context.Context, code string) (*User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	u, err := s.repo.GetByReferralCode(ctx, code)
	if errors.Is(err, common.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	return s.repo.GetByTelegramID(ctx, telegramID)
}

// ListRecent: последние зарегистрированные, для админки.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*User, error) {
	return s.repo.ListAll(ctx, limit)
}

// ListAll: все пользователи, для начислений.
func (s *Service) ListAll(ctx context.Context) ([]*User, error) {
	return s.repo.ListAll(ctx, 0)
}

func (s *Service) Referrals(ctx context.Context, userID int64) ([]*User, error) {
	return s.repo.ListReferrals(ctx, userID)
}

// GenerateReferralCode возвращает 6 случайных символов из [A-Z0-9].
func GenerateReferralCode() (string, error) {
	max := big.NewInt(int64(len(referralCodeAlphabet)))
	b := make([]byte, referralCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = referralCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

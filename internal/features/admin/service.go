package admin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/config"
)

const (
	sessionTTL   = 24 * time.Hour
	attemptLimit = 3
	attemptTTL   = time.Hour
)

type sessionStore interface {
	CreateSession(ctx context.Context, telegramID int64, token string, ttl time.Duration) error
	HasSession(ctx context.Context, telegramID int64) bool
	DeleteSession(ctx context.Context, telegramID int64) error
	LogFailure(ctx context.Context, telegramID int64, window time.Duration) (int64, error)
	RecentFailures(ctx context.Context, telegramID int64) (int64, error)
	ResetFailures(ctx context.Context, telegramID int64) error
}

// Service решает, кто оператор: ADMIN_IDS или сессия после /login.
type Service struct {
	repo sessionStore
	cfg  *config.Config
}

func NewService(repo sessionStore, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// IsAdmin: оператор из конфигурации или с активной сессией.
func (s *Service) IsAdmin(ctx context.Context, telegramID int64) bool {
	if s.cfg.IsAdmin(telegramID) {
		return true
	}
	return s.repo.HasSession(ctx, telegramID)
}

// Login проверяет пароль Argon2id и открывает сессию на 24 часа.
// После 3 неудачных попыток вход блокируется на час.
func (s *Service) Login(ctx context.Context, telegramID int64, password string) error {
	if s.cfg.AdminPasswordHash == "" {
		return common.ErrPasswordLoginDisabled
	}

	failures, err := s.repo.RecentFailures(ctx, telegramID)
	if err != nil {
		return common.Storage("admin.login", err)
	}
	if failures >= attemptLimit {
		return common.ErrTooManyAttempts
	}

	if !verifyArgon2id(password, s.cfg.AdminPasswordHash) {
		if _, err := s.repo.LogFailure(ctx, telegramID, attemptTTL); err != nil {
			log.WithError(err).Warn("Не удалось записать неудачную попытку входа")
		}
		log.WithField("telegram_id", telegramID).Warn("Неверный пароль администратора")
		return common.ErrWrongPassword
	}

	if err := s.repo.CreateSession(ctx, telegramID, generateSecureToken(), sessionTTL); err != nil {
		return common.Storage("admin.session", err)
	}
	_ = s.repo.ResetFailures(ctx, telegramID)

	log.WithField("telegram_id", telegramID).Info("Вход оператора по паролю")
	return nil
}

// Logout закрывает сессию. На операторов из ADMIN_IDS не влияет.
func (s *Service) Logout(ctx context.Context, telegramID int64) error {
	return s.repo.DeleteSession(ctx, telegramID)
}

// generateSecureToken: случайный токен сессии.
func generateSecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}

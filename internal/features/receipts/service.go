package receipts

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/invest-bot/internal/features/investments"
	"serotonyl.ru/invest-bot/internal/notify"
)

// ErrForeignInvestment: квитанция прислана к чужой инвестиции.
var ErrForeignInvestment = errors.New("инвестиция принадлежит другому пользователю")

type store interface {
	Add(ctx context.Context, rc *Receipt) (*Receipt, error)
	ListRecent(ctx context.Context, limit int) ([]*Receipt, error)
}

type investmentLookup interface {
	GetByID(ctx context.Context, id int64) (*investments.Investment, error)
}

// Service привязывает квитанции к инвестициям.
type Service struct {
	repo store
	invs investmentLookup
}

func NewService(repo store, invs investmentLookup) *Service {
	return &Service{repo: repo, invs: invs}
}

// Attach сохраняет квитанцию, если инвестиция существует и принадлежит userID.
func (s *Service) Attach(ctx context.Context, userID, investmentID int64, fileID, fileType string) (*Receipt, *investments.Investment, error) {
	inv, err := s.invs.GetByID(ctx, investmentID)
	if err != nil {
		return nil, nil, err
	}
	if inv.UserID != userID {
		return nil, nil, ErrForeignInvestment
	}
	if fileType != notify.FileDocument {
		fileType = notify.FilePhoto
	}

	rc, err := s.repo.Add(ctx, &Receipt{
		UserID:       userID,
		InvestmentID: investmentID,
		FileID:       fileID,
		FileType:     fileType,
	})
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"receipt_id":    rc.ID,
		"investment_id": investmentID,
		"user_id":       userID,
	}).Info("Квитанция сохранена")
	return rc, inv, nil
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]*Receipt, error) {
	return s.repo.ListRecent(ctx, limit)
}

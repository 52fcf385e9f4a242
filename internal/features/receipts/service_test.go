package receipts

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/invest-bot/internal/common"
	"serotonyl.ru/invest-bot/internal/features/investments"
	"serotonyl.ru/invest-bot/internal/notify"
)

type memReceipts struct{ items []*Receipt }

func (m *memReceipts) Add(_ context.Context, rc *Receipt) (*Receipt, error) {
	cp := *rc
	cp.ID = int64(len(m.items) + 1)
	m.items = append(m.items, &cp)
	return &cp, nil
}

func (m *memReceipts) ListRecent(_ context.Context, limit int) ([]*Receipt, error) {
	if limit > len(m.items) {
		limit = len(m.items)
	}
	return m.items[:limit], nil
}

type invMap map[int64]*investments.Investment

func (m invMap) GetByID(_ context.Context, id int64) (*investments.Investment, error) {
	inv, ok := m[id]
	if !ok {
		return nil, common.ErrInvestmentNotFound
	}
	return inv, nil
}

func TestAttach(t *testing.T) {
	store := &memReceipts{}
	invs := invMap{7: {ID: 7, UserID: 1, Amount: decimal.NewFromInt(100)}}
	svc := NewService(store, invs)
	ctx := context.Background()

	rc, inv, err := svc.Attach(ctx, 1, 7, "file-abc", notify.FileDocument)
	require.NoError(t, err)
	assert.Equal(t, int64(7), inv.ID)
	assert.Equal(t, notify.FileDocument, rc.FileType)
	assert.Equal(t, "file-abc", rc.FileID)

	// неизвестный тип считается фото
	rc, _, err = svc.Attach(ctx, 1, 7, "file-xyz", "sticker")
	require.NoError(t, err)
	assert.Equal(t, notify.FilePhoto, rc.FileType)

	recent, err := svc.ListRecent(ctx, 20)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestAttachRejects(t *testing.T) {
	store := &memReceipts{}
	invs := invMap{7: {ID: 7, UserID: 1}}
	svc := NewService(store, invs)
	ctx := context.Background()

	_, _, err := svc.Attach(ctx, 2, 7, "f", notify.FilePhoto)
	assert.ErrorIs(t, err, ErrForeignInvestment)

	_, _, err = svc.Attach(ctx, 1, 8, "f", notify.FilePhoto)
	assert.ErrorIs(t, err, common.ErrInvestmentNotFound)
	assert.Empty(t, store.items)
}

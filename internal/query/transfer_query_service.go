package query

import (
	"context"
	"fmt"
	"time"

	"github.com/eaglebank/transfer-service/internal/transfer"
	"github.com/eaglebank/transfer-service/shared/cqrs"
	"github.com/eaglebank/transfer-service/shared/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Snapshotter interface {
	Snapshot(ctx context.Context, firstID, secondID string) (map[string]decimal.Decimal, error)
}

// ViewRepository is the account read model.
type ViewRepository interface {
	GetView(ctx context.Context, accountID string) (*models.AccountView, bool)
	CacheView(ctx context.Context, view *models.AccountView) (bool, error)
}

// TransferQueryService serves transfer and balance reads. Single account
// reads come from the Redis view first; balance pairs are always read under
// the account locks.
type TransferQueryService struct {
	transfers transfer.Store
	accounts  transfer.AccountStore
	views     ViewRepository
	snapshots Snapshotter
	logger    *zap.Logger
}

func NewTransferQueryService(transfers transfer.Store, accounts transfer.AccountStore, views ViewRepository, snapshots Snapshotter, logger *zap.Logger) *TransferQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferQueryService{
		transfers: transfers,
		accounts:  accounts,
		views:     views,
		snapshots: snapshots,
		logger:    logger.Named("transfer-query"),
	}
}

func (s *TransferQueryService) ListTransfers(ctx context.Context, _ cqrs.ListTransfersQuery) ([]transfer.Transfer, error) {
	return s.transfers.FindAll(ctx)
}

// GetAccount returns the cached view of an account, falling back to the
// account store on a miss and warming the cache.
func (s *TransferQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	if view, ok := s.views.GetView(ctx, q.AccountID); ok {
		return view, nil
	}

	a, err := s.accounts.Account(ctx, q.AccountID)
	if err != nil {
		return nil, err
	}
	view := &models.AccountView{
		ID:        a.ID(),
		Balance:   a.Balance(),
		Version:   a.Version(),
		UpdatedAt: time.Now().UTC(),
	}
	if _, err := s.views.CacheView(ctx, view); err != nil {
		s.logger.Warn("failed to warm account view", zap.String("account_id", q.AccountID), zap.Error(err))
	}
	return view, nil
}

// GetBalances reads two accounts at the same instant. One id, or the same id
// twice, reads a single account.
func (s *TransferQueryService) GetBalances(ctx context.Context, q cqrs.GetBalancesQuery) (*models.BalancesView, error) {
	var first, second string
	switch len(q.AccountIDs) {
	case 1:
		first, second = q.AccountIDs[0], q.AccountIDs[0]
	case 2:
		first, second = q.AccountIDs[0], q.AccountIDs[1]
	default:
		return nil, &transfer.InvalidArgumentError{
			Field: "accounts",
			Err:   fmt.Errorf("expected one or two account ids, got %d", len(q.AccountIDs)),
		}
	}

	balances, err := s.snapshots.Snapshot(ctx, first, second)
	if err != nil {
		return nil, err
	}
	return &models.BalancesView{Balances: balances, TakenAt: time.Now().UTC()}, nil
}

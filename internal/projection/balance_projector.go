// Package projection keeps the Redis account views in step with committed
// transfers.
package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/eaglebank/transfer-service/shared/events"
	"github.com/eaglebank/transfer-service/shared/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ViewRepository interface {
	CacheView(ctx context.Context, view *models.AccountView) (bool, error)
	IsProcessed(ctx context.Context, transferID string) (bool, error)
	MarkProcessed(ctx context.Context, transferID string) error
}

// BalanceProjector writes the balances carried by transfer.completed events
// into account views. A view is never replaced by an older version, so
// out-of-order and repeated deliveries leave the latest balance in place.
type BalanceProjector struct {
	views  ViewRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewBalanceProjector(views ViewRepository, logger *zap.Logger) *BalanceProjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceProjector{
		views:  views,
		logger: logger.Named("balance-projector"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Handle is an events.Handler. Returning an error leaves the message pending.
func (p *BalanceProjector) Handle(ctx context.Context, e events.Event) error {
	switch e.Type {
	case events.TransferCompleted:
		var data events.TransferCompletedEvent
		if err := e.DecodeData(&data); err != nil {
			return err
		}
		return p.project(ctx, data)
	case events.TransfersCleared:
		p.logger.Debug("transfer log cleared; account views unchanged")
		return nil
	default:
		p.logger.Debug("ignoring event", zap.String("type", e.Type))
		return nil
	}
}

func (p *BalanceProjector) project(ctx context.Context, e events.TransferCompletedEvent) error {
	processed, err := p.views.IsProcessed(ctx, e.TransferID)
	if err != nil {
		return err
	}
	if processed {
		p.logger.Debug("duplicate transfer event", zap.String("transfer_id", e.TransferID))
		return nil
	}

	fromBalance, err := decimal.NewFromString(e.FromBalance)
	if err != nil {
		return fmt.Errorf("transfer %s: invalid source balance %q: %w", e.TransferID, e.FromBalance, err)
	}
	toBalance, err := decimal.NewFromString(e.ToBalance)
	if err != nil {
		return fmt.Errorf("transfer %s: invalid destination balance %q: %w", e.TransferID, e.ToBalance, err)
	}

	now := p.now()
	for _, view := range []*models.AccountView{
		{ID: e.From, Balance: fromBalance, Version: e.FromVersion, UpdatedAt: now},
		{ID: e.To, Balance: toBalance, Version: e.ToVersion, UpdatedAt: now},
	} {
		written, err := p.views.CacheView(ctx, view)
		if err != nil {
			return err
		}
		if !written {
			p.logger.Debug("stale account view skipped",
				zap.String("account_id", view.ID),
				zap.Int64("version", view.Version),
			)
		}
	}

	return p.views.MarkProcessed(ctx, e.TransferID)
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/eaglebank/transfer-service/shared/models"
	sharedredis "github.com/eaglebank/transfer-service/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	accountViewKeyPrefix       = "account:view:"
	processedTransferKeyPrefix = "transfer:processed:"

	// ProcessedMarkerTTL bounds how long a delivered transfer event is
	// remembered for duplicate suppression.
	ProcessedMarkerTTL = 72 * time.Hour
)

// AccountReadRepository holds the Redis read model of account balances.
type AccountReadRepository struct {
	client *goredis.Client
	cache  *sharedredis.ViewCache[models.AccountView]
}

func NewAccountReadRepository(client *goredis.Client, logger *zap.Logger) *AccountReadRepository {
	return &AccountReadRepository{
		client: client,
		cache:  sharedredis.NewViewCache[models.AccountView](client, 0, logger),
	}
}

// GetView returns the cached view of an account, if any.
func (r *AccountReadRepository) GetView(ctx context.Context, accountID string) (*models.AccountView, bool) {
	return r.cache.Get(ctx, accountViewKeyPrefix+accountID)
}

// CacheView stores view unless the cached one carries the same or a later
// version. It reports whether view was written.
func (r *AccountReadRepository) CacheView(ctx context.Context, view *models.AccountView) (bool, error) {
	return r.cache.SetIfNewer(ctx, accountViewKeyPrefix+view.ID, view, func(current, next *models.AccountView) bool {
		return next.Version > current.Version
	})
}

// IsProcessed reports whether transferID has already been projected.
func (r *AccountReadRepository) IsProcessed(ctx context.Context, transferID string) (bool, error) {
	n, err := r.client.Exists(ctx, processedTransferKeyPrefix+transferID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check processed marker: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records transferID as projected for ProcessedMarkerTTL.
func (r *AccountReadRepository) MarkProcessed(ctx context.Context, transferID string) error {
	if err := r.client.SetNX(ctx, processedTransferKeyPrefix+transferID, 1, ProcessedMarkerTTL).Err(); err != nil {
		return fmt.Errorf("failed to set processed marker: %w", err)
	}
	return nil
}

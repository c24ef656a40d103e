package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eaglebank/transfer-service/internal/transfer"
	goredis "github.com/redis/go-redis/v9"
)

const transferLogKey = "transfer:log"

// RedisTransferStore keeps the transfer log in a Redis list, oldest first.
type RedisTransferStore struct {
	client *goredis.Client
}

func NewRedisTransferStore(client *goredis.Client) *RedisTransferStore {
	return &RedisTransferStore{client: client}
}

func (s *RedisTransferStore) Save(ctx context.Context, t transfer.Transfer) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal transfer: %w", err)
	}
	if err := s.client.RPush(ctx, transferLogKey, data).Err(); err != nil {
		return fmt.Errorf("failed to append transfer: %w", err)
	}
	return nil
}

func (s *RedisTransferStore) FindAll(ctx context.Context) ([]transfer.Transfer, error) {
	entries, err := s.client.LRange(ctx, transferLogKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	transfers := make([]transfer.Transfer, 0, len(entries))
	for _, e := range entries {
		var t transfer.Transfer
		if err := json.Unmarshal([]byte(e), &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	return transfers, nil
}

func (s *RedisTransferStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, transferLogKey).Err(); err != nil {
		return fmt.Errorf("failed to delete transfers: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"sync"

	"github.com/eaglebank/transfer-service/internal/transfer"
)

// MemoryTransferStore is an in-process transfer log in commit order.
type MemoryTransferStore struct {
	mu        sync.RWMutex
	transfers []transfer.Transfer
}

func NewMemoryTransferStore() *MemoryTransferStore {
	return &MemoryTransferStore{}
}

func (s *MemoryTransferStore) Save(_ context.Context, t transfer.Transfer) error {
	s.mu.Lock()
	s.transfers = append(s.transfers, t)
	s.mu.Unlock()
	return nil
}

func (s *MemoryTransferStore) FindAll(context.Context) ([]transfer.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]transfer.Transfer, len(s.transfers))
	copy(out, s.transfers)
	return out, nil
}

func (s *MemoryTransferStore) Delete(context.Context) error {
	s.mu.Lock()
	s.transfers = nil
	s.mu.Unlock()
	return nil
}

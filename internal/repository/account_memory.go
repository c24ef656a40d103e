package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/eaglebank/transfer-service/internal/account"
)

// MemoryAccountStore keeps accounts in process. Lookups return the same
// *account.Account for an id, so its lock is shared by every caller.
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account
}

func NewMemoryAccountStore(accounts ...*account.Account) *MemoryAccountStore {
	s := &MemoryAccountStore{accounts: make(map[string]*account.Account, len(accounts))}
	for _, a := range accounts {
		s.accounts[a.ID()] = a
	}
	return s
}

func (s *MemoryAccountStore) Account(_ context.Context, id string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", account.ErrNotFound, id)
	}
	return a, nil
}

// Save registers a if it is unknown. Balances live on the entity itself, so
// saving a known account has nothing further to do.
func (s *MemoryAccountStore) Save(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.accounts[a.ID()]; ok && existing != a {
		return fmt.Errorf("account %s is already registered with a different entity", a.ID())
	}
	s.accounts[a.ID()] = a
	return nil
}

// Create adds a new account. It fails if the id is taken.
func (s *MemoryAccountStore) Create(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID()]; ok {
		return fmt.Errorf("account %s already exists", a.ID())
	}
	s.accounts[a.ID()] = a
	return nil
}

// Package account holds the Account entity shared by the transfer executor and
// the account stores.
package account

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by account stores when no account exists for an id.
var ErrNotFound = errors.New("account not found")

// Locker is the exclusive per-account lock handle. *sync.Mutex satisfies it.
type Locker interface {
	Lock()
	TryLock() bool
	Unlock()
}

// Account is a balance holder with its own lock. The lock guards the whole
// read-validate-write sequence of a transfer; it is never persisted.
//
// Balance mutations must only happen while Lock (or a successful TryLock) is
// held by the mutating goroutine.
type Account struct {
	id   string
	lock Locker

	mu      sync.RWMutex
	balance decimal.Decimal
	version int64
}

// Option customises a new Account.
type Option func(*Account)

// WithLocker replaces the default mutex.
func WithLocker(l Locker) Option {
	return func(a *Account) {
		if l != nil {
			a.lock = l
		}
	}
}

// WithVersion sets the initial version, used when loading persisted accounts.
func WithVersion(v int64) Option {
	return func(a *Account) {
		a.version = v
	}
}

func New(id string, balance decimal.Decimal, opts ...Option) *Account {
	a := &Account{
		id:      id,
		lock:    &sync.Mutex{},
		balance: balance,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Account) ID() string { return a.id }

// Balance returns the last committed balance. It is safe to call without
// holding the account lock, but two Balance calls on different accounts are
// not a consistent pair; use the executor's Snapshot for that.
func (a *Account) Balance() decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.balance
}

// Version is incremented on every balance change.
func (a *Account) Version() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.version
}

// SetBalance overwrites the balance and bumps the version.
// The caller must hold the account lock.
func (a *Account) SetBalance(balance decimal.Decimal) {
	a.mu.Lock()
	a.balance = balance
	a.version++
	a.mu.Unlock()
}

// Restore puts back a balance and version captured earlier, undoing SetBalance.
// The caller must hold the account lock.
func (a *Account) Restore(balance decimal.Decimal, version int64) {
	a.mu.Lock()
	a.balance = balance
	a.version = version
	a.mu.Unlock()
}

func (a *Account) Lock() { a.lock.Lock() }

func (a *Account) TryLock() bool { return a.lock.TryLock() }

func (a *Account) Unlock() { a.lock.Unlock() }

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/eaglebank/transfer-service/internal/account"
	"github.com/shopspring/decimal"
)

// PostgresAccountStore loads accounts from PostgreSQL and writes balances
// through on Save. Loaded entities are kept in an identity map so every
// lookup of one id shares a single lock.
type PostgresAccountStore struct {
	db *sql.DB

	mu     sync.Mutex
	loaded map[string]*account.Account
}

func NewPostgresAccountStore(db *sql.DB) *PostgresAccountStore {
	return &PostgresAccountStore{
		db:     db,
		loaded: make(map[string]*account.Account),
	}
}

func (r *PostgresAccountStore) Account(ctx context.Context, id string) (*account.Account, error) {
	r.mu.Lock()
	if a, ok := r.loaded[id]; ok {
		r.mu.Unlock()
		return a, nil
	}
	r.mu.Unlock()

	query := `SELECT balance, version FROM accounts WHERE id = $1`
	var balance decimal.Decimal
	var version int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&balance, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", account.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// A concurrent lookup may have loaded it first; keep that entity.
	if a, ok := r.loaded[id]; ok {
		return a, nil
	}
	a := account.New(id, balance, account.WithVersion(version))
	r.loaded[id] = a
	return a, nil
}

// Save writes the current balance and version of a.
func (r *PostgresAccountStore) Save(ctx context.Context, a *account.Account) error {
	query := `
		UPDATE accounts
		SET balance = $2, version = $3, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, a.ID(), a.Balance(), a.Version())
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", a.ID(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to save account %s: %w", a.ID(), err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", account.ErrNotFound, a.ID())
	}
	return nil
}

// Create inserts a. An existing row with the same id is left untouched, so
// seeding a database twice is harmless.
func (r *PostgresAccountStore) Create(ctx context.Context, a *account.Account) error {
	query := `
		INSERT INTO accounts (id, balance, version)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, a.ID(), a.Balance(), a.Version()); err != nil {
		return fmt.Errorf("failed to create account %s: %w", a.ID(), err)
	}
	return nil
}

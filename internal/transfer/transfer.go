// Package transfer implements the transfer-execution protocol: both accounts
// are locked without risking deadlock, the source balance is validated, the
// debit and credit are applied and persisted, and contended attempts are
// retried under a bounded policy.
package transfer

import (
	"context"
	"time"

	"github.com/eaglebank/transfer-service/internal/account"
	"github.com/shopspring/decimal"
)

// Transfer moves Amount from From to To. From and To must differ; the
// executor does not check it and a self-transfer ends in ErrRetryExhausted.
type Transfer struct {
	ID        string          `json:"id"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdTimestamp"`
}

// Receipt describes a successful execution.
type Receipt struct {
	Transfer    *Transfer
	FromBalance decimal.Decimal
	FromVersion int64
	ToBalance   decimal.Decimal
	ToVersion   int64
	Attempts    int
}

// AccountStore resolves and persists accounts. Account must return
// account.ErrNotFound for unknown ids and should return the same entity for
// repeated lookups of one id.
type AccountStore interface {
	Account(ctx context.Context, id string) (*account.Account, error)
	Save(ctx context.Context, a *account.Account) error
}

// Store is the append-only log of completed transfers.
type Store interface {
	Save(ctx context.Context, t Transfer) error
	FindAll(ctx context.Context) ([]Transfer, error)
	Delete(ctx context.Context) error
}

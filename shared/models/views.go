package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountView is the read-optimised projection of an account balance.
// Version matches the account version that produced Balance.
type AccountView struct {
	ID        string          `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updatedTimestamp"`
}

// BalancesView is a point-in-time read of several accounts taken under their locks.
type BalancesView struct {
	Balances map[string]decimal.Decimal `json:"balances"`
	TakenAt  time.Time                  `json:"takenTimestamp"`
}

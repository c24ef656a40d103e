package cqrs

import "github.com/shopspring/decimal"

type ExecuteTransferCommand struct {
	From   string
	To     string
	Amount decimal.Decimal
	UserID string
}

// DeleteTransfersCommand clears the transfer log. Account balances are untouched.
type DeleteTransfersCommand struct {
	UserID string
}

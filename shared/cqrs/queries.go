package cqrs

// GetAccountQuery fetches the current view of one account.
type GetAccountQuery struct {
	AccountID string
}

// GetBalancesQuery reads the balances of two accounts at the same instant.
type GetBalancesQuery struct {
	AccountIDs []string
}

type ListTransfersQuery struct{}

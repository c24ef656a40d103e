package repository

import (
	"context"
	"fmt"
	"os"

	"github.com/eaglebank/transfer-service/internal/account"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML document read by LoadSeedFile:
//
//	accounts:
//	  - id: A
//	    balance: "100.00"
type SeedFile struct {
	Accounts []SeedAccount `yaml:"accounts"`
}

type SeedAccount struct {
	ID      string `yaml:"id"`
	Balance string `yaml:"balance"`
}

// AccountCreator is implemented by the account stores that accept new accounts.
type AccountCreator interface {
	Create(ctx context.Context, a *account.Account) error
}

// LoadSeedFile parses path into accounts. Ids must be unique and non-empty and
// balances must be non-negative decimals.
func LoadSeedFile(path string) ([]*account.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(seed.Accounts))
	accounts := make([]*account.Account, 0, len(seed.Accounts))
	for i, sa := range seed.Accounts {
		if sa.ID == "" {
			return nil, fmt.Errorf("seed account %d: id is required", i)
		}
		if _, dup := seen[sa.ID]; dup {
			return nil, fmt.Errorf("seed account %s: duplicate id", sa.ID)
		}
		seen[sa.ID] = struct{}{}

		balance, err := decimal.NewFromString(sa.Balance)
		if err != nil {
			return nil, fmt.Errorf("seed account %s: invalid balance %q: %w", sa.ID, sa.Balance, err)
		}
		if balance.IsNegative() {
			return nil, fmt.Errorf("seed account %s: balance must not be negative", sa.ID)
		}
		accounts = append(accounts, account.New(sa.ID, balance))
	}
	return accounts, nil
}

// Seed creates every account in accounts through store.
func Seed(ctx context.Context, store AccountCreator, accounts []*account.Account) error {
	for _, a := range accounts {
		if err := store.Create(ctx, a); err != nil {
			return fmt.Errorf("failed to seed account %s: %w", a.ID(), err)
		}
	}
	return nil
}

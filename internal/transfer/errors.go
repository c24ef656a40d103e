package transfer

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrLockContention is raised when the second account lock is busy. The
	// executor retries it and never returns it to callers.
	ErrLockContention = errors.New("lock contention")
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)

// InvalidArgumentError reports a missing transfer, a bad amount or an
// account that could not be resolved.
type InvalidArgumentError struct {
	Field string
	Err   error
}

func (e *InvalidArgumentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrInvalidArgument, e.Field)
	}
	return fmt.Sprintf("%s: %s: %v", ErrInvalidArgument, e.Field, e.Err)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

func (e *InvalidArgumentError) Unwrap() error { return e.Err }

// InsufficientBalanceError carries the source account and the balance seen
// under lock when the debit was rejected.
type InsufficientBalanceError struct {
	AccountID string
	Balance   decimal.Decimal
	Amount    decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: account %s has %s, transfer needs %s",
		ErrInsufficientBalance, e.AccountID, e.Balance, e.Amount)
}

func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

// RetryExhaustedError is returned after the policy's attempt budget is spent.
type RetryExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrRetryExhausted, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Is(target error) bool { return target == ErrRetryExhausted }

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// IsLockContention is the default retry predicate.
func IsLockContention(err error) bool {
	return errors.Is(err, ErrLockContention)
}

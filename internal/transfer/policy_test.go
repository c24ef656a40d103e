package transfer

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()

	assert.Equal(t, 51, p.MaxAttempts)
	assert.Equal(t, time.Millisecond, p.RetryDelay)
	assert.NoError(t, p.Validate())
	assert.True(t, p.retryable(fmt.Errorf("wrapped: %w", ErrLockContention)))
	assert.False(t, p.retryable(&InsufficientBalanceError{AccountID: "A"}))
}

func TestRetryPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  RetryPolicy
		wantErr bool
	}{
		{name: "single attempt", policy: RetryPolicy{MaxAttempts: 1}},
		{name: "zero delay", policy: RetryPolicy{MaxAttempts: 3, RetryDelay: 0}},
		{name: "zero attempts", policy: RetryPolicy{MaxAttempts: 0}, wantErr: true},
		{name: "negative delay", policy: RetryPolicy{MaxAttempts: 3, RetryDelay: -time.Millisecond}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRetryPolicyCustomPredicate(t *testing.T) {
	flaky := errors.New("flaky")
	p := RetryPolicy{MaxAttempts: 2, Retryable: func(err error) bool { return errors.Is(err, flaky) }}

	assert.True(t, p.retryable(flaky))
	assert.False(t, p.retryable(ErrLockContention))
}

func TestErrorClassification(t *testing.T) {
	insufficient := &InsufficientBalanceError{
		AccountID: "A",
		Balance:   decimal.NewFromInt(60),
		Amount:    decimal.NewFromInt(100),
	}
	exhausted := &RetryExhaustedError{Attempts: 3, Err: ErrLockContention}
	invalid := &InvalidArgumentError{Field: "amount"}

	assert.ErrorIs(t, insufficient, ErrInsufficientBalance)
	assert.NotErrorIs(t, insufficient, ErrRetryExhausted)
	assert.Equal(t, "insufficient balance: account A has 60, transfer needs 100", insufficient.Error())

	assert.ErrorIs(t, exhausted, ErrRetryExhausted)
	assert.ErrorIs(t, exhausted, ErrLockContention)
	assert.NotErrorIs(t, exhausted, ErrInsufficientBalance)

	assert.ErrorIs(t, invalid, ErrInvalidArgument)
	assert.Equal(t, "invalid argument: amount", invalid.Error())
}

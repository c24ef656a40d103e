package transfer

import (
	"errors"
	"time"
)

const (
	DefaultMaxAttempts = 51
	DefaultRetryDelay  = time.Millisecond
)

// RetryPolicy bounds how often a contended attempt is rerun.
type RetryPolicy struct {
	// MaxAttempts counts the first attempt, so 1 means no retries.
	MaxAttempts int
	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration
	// Retryable selects the failures that trigger another attempt.
	Retryable func(error) bool
}

// DefaultRetryPolicy retries lock contention 50 times, 1ms apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		RetryDelay:  DefaultRetryDelay,
		Retryable:   IsLockContention,
	}
}

func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return errors.New("retry policy: max attempts must be at least 1")
	}
	if p.RetryDelay < 0 {
		return errors.New("retry policy: retry delay cannot be negative")
	}
	return nil
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable == nil {
		return IsLockContention(err)
	}
	return p.Retryable(err)
}

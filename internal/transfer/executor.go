package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/eaglebank/transfer-service/internal/account"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Executor runs transfers. Locks are taken source first, blocking, then
// destination with TryLock; a busy destination releases the source and the
// attempt is retried. No goroutine ever waits while holding one lock of a
// pair, so two opposite transfers cannot deadlock.
type Executor struct {
	accounts  AccountStore
	transfers Store
	policy    RetryPolicy
	logger    *zap.Logger
}

func NewExecutor(accounts AccountStore, transfers Store, policy RetryPolicy, logger *zap.Logger) (*Executor, error) {
	if accounts == nil {
		return nil, errors.New("executor: account store is required")
	}
	if transfers == nil {
		return nil, errors.New("executor: transfer store is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		accounts:  accounts,
		transfers: transfers,
		policy:    policy,
		logger:    logger.Named("executor"),
	}, nil
}

// Execute runs t and returns it unchanged once both balances and the
// transfer record are persisted.
func (e *Executor) Execute(ctx context.Context, t *Transfer) (*Transfer, error) {
	receipt, err := e.ExecuteReceipt(ctx, t)
	if err != nil {
		return nil, err
	}
	return receipt.Transfer, nil
}

// ExecuteReceipt is Execute plus the balances committed by the transfer.
func (e *Executor) ExecuteReceipt(ctx context.Context, t *Transfer) (*Receipt, error) {
	if t == nil {
		return nil, &InvalidArgumentError{Field: "transfer"}
	}
	if !t.Amount.IsPositive() {
		return nil, &InvalidArgumentError{Field: "amount", Err: fmt.Errorf("%s is not positive", t.Amount)}
	}
	from, err := e.resolve(ctx, "from", t.From)
	if err != nil {
		return nil, err
	}
	to, err := e.resolve(ctx, "to", t.To)
	if err != nil {
		return nil, err
	}

	var receipt *Receipt
	attempts, err := e.withRetry(ctx, func() error {
		r, err := e.attempt(ctx, from, to, t)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if err != nil {
		e.logger.Info("transfer failed",
			zap.String("transfer_id", t.ID),
			zap.String("from", t.From),
			zap.String("to", t.To),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return nil, err
	}
	receipt.Attempts = attempts
	e.logger.Debug("transfer committed",
		zap.String("transfer_id", t.ID),
		zap.String("amount", t.Amount.String()),
		zap.Int("attempts", attempts),
	)
	return receipt, nil
}

// Snapshot reads the balances of two accounts while holding both locks, so
// the pair never reflects half of a transfer.
func (e *Executor) Snapshot(ctx context.Context, firstID, secondID string) (map[string]decimal.Decimal, error) {
	first, err := e.resolve(ctx, "first", firstID)
	if err != nil {
		return nil, err
	}
	if firstID == secondID {
		first.Lock()
		defer first.Unlock()
		return map[string]decimal.Decimal{firstID: first.Balance()}, nil
	}
	second, err := e.resolve(ctx, "second", secondID)
	if err != nil {
		return nil, err
	}

	var balances map[string]decimal.Decimal
	_, err = e.withRetry(ctx, func() error {
		if err := lockPair(first, second); err != nil {
			return err
		}
		defer first.Unlock()
		defer second.Unlock()
		balances = map[string]decimal.Decimal{
			firstID:  first.Balance(),
			secondID: second.Balance(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balances, nil
}

func (e *Executor) resolve(ctx context.Context, field, id string) (*account.Account, error) {
	a, err := e.accounts.Account(ctx, id)
	if errors.Is(err, account.ErrNotFound) || (err == nil && a == nil) {
		return nil, &InvalidArgumentError{Field: field, Err: fmt.Errorf("%w: %s", account.ErrNotFound, id)}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s account %s: %w", field, id, err)
	}
	return a, nil
}

// withRetry runs op until it succeeds, fails with an error the policy does
// not retry, or the attempt budget is spent.
func (e *Executor) withRetry(ctx context.Context, op func() error) (int, error) {
	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		if err := op(); err != nil {
			if !e.policy.retryable(err) {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(e.policy.RetryDelay)),
		backoff.WithMaxTries(uint(e.policy.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			e.logger.Debug("retrying contended attempt", zap.Error(err), zap.Duration("delay", next))
		}),
	)
	if err == nil {
		return attempts, nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return attempts, err
	}
	if e.policy.retryable(err) {
		return attempts, &RetryExhaustedError{Attempts: attempts, Err: err}
	}
	return attempts, err
}

func (e *Executor) attempt(ctx context.Context, from, to *account.Account, t *Transfer) (*Receipt, error) {
	if err := lockPair(from, to); err != nil {
		return nil, err
	}
	defer from.Unlock()
	defer to.Unlock()

	fromBalance, fromVersion := from.Balance(), from.Version()
	toBalance, toVersion := to.Balance(), to.Version()

	remaining := fromBalance.Sub(t.Amount)
	if remaining.IsNegative() {
		return nil, &InsufficientBalanceError{AccountID: from.ID(), Balance: fromBalance, Amount: t.Amount}
	}

	from.SetBalance(remaining)
	to.SetBalance(toBalance.Add(t.Amount))

	if err := e.persist(ctx, from, to, t); err != nil {
		from.Restore(fromBalance, fromVersion)
		to.Restore(toBalance, toVersion)
		e.compensate(ctx, from, to)
		return nil, err
	}

	return &Receipt{
		Transfer:    t,
		FromBalance: from.Balance(),
		FromVersion: from.Version(),
		ToBalance:   to.Balance(),
		ToVersion:   to.Version(),
	}, nil
}

func (e *Executor) persist(ctx context.Context, from, to *account.Account, t *Transfer) error {
	if err := e.accounts.Save(ctx, from); err != nil {
		return fmt.Errorf("save account %s: %w", from.ID(), err)
	}
	if err := e.accounts.Save(ctx, to); err != nil {
		return fmt.Errorf("save account %s: %w", to.ID(), err)
	}
	if err := e.transfers.Save(ctx, *t); err != nil {
		return fmt.Errorf("save transfer %s: %w", t.ID, err)
	}
	return nil
}

// compensate writes the restored balances back after a failed persist.
func (e *Executor) compensate(ctx context.Context, accounts ...*account.Account) {
	ctx = context.WithoutCancel(ctx)
	for _, a := range accounts {
		if err := e.accounts.Save(ctx, a); err != nil {
			e.logger.Error("failed to restore account after aborted transfer",
				zap.String("account_id", a.ID()),
				zap.Error(err),
			)
		}
	}
}

// lockPair blocks on first and only tries second.
func lockPair(first, second *account.Account) error {
	first.Lock()
	if !second.TryLock() {
		first.Unlock()
		return fmt.Errorf("%w: account %s is busy", ErrLockContention, second.ID())
	}
	return nil
}

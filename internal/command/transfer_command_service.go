package command

import (
	"context"
	"fmt"
	"time"

	"github.com/eaglebank/transfer-service/internal/transfer"
	"github.com/eaglebank/transfer-service/shared/cqrs"
	"github.com/eaglebank/transfer-service/shared/events"
	"github.com/eaglebank/transfer-service/shared/utils"
	"go.uber.org/zap"
)

type Executor interface {
	ExecuteReceipt(ctx context.Context, t *transfer.Transfer) (*transfer.Receipt, error)
}

type Publisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) (string, error)
}

// TransferCommandService executes transfers and clears the transfer log.
// Committed transfers are announced on the transfer event stream.
type TransferCommandService struct {
	executor  Executor
	transfers transfer.Store
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewTransferCommandService(executor Executor, transfers transfer.Store, publisher Publisher, logger *zap.Logger) *TransferCommandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferCommandService{
		executor:  executor,
		transfers: transfers,
		publisher: publisher,
		logger:    logger.Named("transfer-command"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *TransferCommandService) ExecuteTransfer(ctx context.Context, cmd cqrs.ExecuteTransferCommand) (*transfer.Transfer, error) {
	if cmd.From == "" {
		return nil, &transfer.InvalidArgumentError{Field: "from"}
	}
	if cmd.To == "" {
		return nil, &transfer.InvalidArgumentError{Field: "to"}
	}
	if cmd.From == cmd.To {
		return nil, &transfer.InvalidArgumentError{Field: "to", Err: fmt.Errorf("must differ from source account %s", cmd.From)}
	}
	if !cmd.Amount.IsPositive() {
		return nil, &transfer.InvalidArgumentError{Field: "amount", Err: fmt.Errorf("%s is not positive", cmd.Amount)}
	}

	t := &transfer.Transfer{
		ID:        utils.GenerateID(utils.TransferIDPrefix),
		From:      cmd.From,
		To:        cmd.To,
		Amount:    cmd.Amount,
		CreatedAt: s.now(),
	}
	receipt, err := s.executor.ExecuteReceipt(ctx, t)
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer executed",
		zap.String("transfer_id", t.ID),
		zap.String("from", t.From),
		zap.String("to", t.To),
		zap.String("amount", t.Amount.String()),
		zap.String("user_id", cmd.UserID),
		zap.Int("attempts", receipt.Attempts),
	)

	if _, err := s.publisher.Publish(ctx, events.TransferEventsStream, events.TransferCompleted, events.TransferCompletedEvent{
		TransferID:  t.ID,
		From:        t.From,
		To:          t.To,
		Amount:      t.Amount.String(),
		FromBalance: receipt.FromBalance.String(),
		FromVersion: receipt.FromVersion,
		ToBalance:   receipt.ToBalance.String(),
		ToVersion:   receipt.ToVersion,
	}); err != nil {
		s.logger.Error("failed to publish transfer.completed event", zap.String("transfer_id", t.ID), zap.Error(err))
	}
	return receipt.Transfer, nil
}

// DeleteTransfers empties the transfer log. Balances are not reverted.
func (s *TransferCommandService) DeleteTransfers(ctx context.Context, cmd cqrs.DeleteTransfersCommand) error {
	if err := s.transfers.Delete(ctx); err != nil {
		return err
	}
	s.logger.Info("transfer log cleared", zap.String("user_id", cmd.UserID))

	if _, err := s.publisher.Publish(ctx, events.TransferEventsStream, events.TransfersCleared, events.TransfersClearedEvent{
		ClearedBy: cmd.UserID,
	}); err != nil {
		s.logger.Error("failed to publish transfers.cleared event", zap.Error(err))
	}
	return nil
}

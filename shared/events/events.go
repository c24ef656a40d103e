package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	TransferCompleted = "transfer.completed"
	TransfersCleared  = "transfers.cleared"
)

// Stream names
const (
	TransferEventsStream = "transfer.events"
)

// Event is the envelope written to a stream under the "event" field.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// DecodeData re-decodes the generic Data payload into dst.
func (e Event) DecodeData(dst any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to re-encode %s payload: %w", e.Type, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}

// TransferCompletedEvent carries the balances committed by one transfer.
// Amounts are decimal strings.
type TransferCompletedEvent struct {
	TransferID  string `json:"transferId"`
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	FromBalance string `json:"fromBalance"`
	FromVersion int64  `json:"fromVersion"`
	ToBalance   string `json:"toBalance"`
	ToVersion   int64  `json:"toVersion"`
}

// TransfersClearedEvent is published after the transfer log is emptied.
type TransfersClearedEvent struct {
	ClearedBy string `json:"clearedBy"`
}

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/eaglebank/transfer-service/internal/transfer"
)

// TransferWriteRepository is the PostgreSQL transfer log. Rows are listed in
// insertion order.
type TransferWriteRepository struct {
	db *sql.DB
}

func NewTransferWriteRepository(db *sql.DB) *TransferWriteRepository {
	return &TransferWriteRepository{db: db}
}

func (r *TransferWriteRepository) Save(ctx context.Context, t transfer.Transfer) error {
	query := `
		INSERT INTO transfers (id, from_account, to_account, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.From, t.To, t.Amount, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	return nil
}

func (r *TransferWriteRepository) FindAll(ctx context.Context) ([]transfer.Transfer, error) {
	query := `
		SELECT id, from_account, to_account, amount, created_at
		FROM transfers
		ORDER BY seq
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	transfers := []transfer.Transfer{}
	for rows.Next() {
		var t transfer.Transfer
		if err := rows.Scan(&t.ID, &t.From, &t.To, &t.Amount, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	return transfers, nil
}

func (r *TransferWriteRepository) Delete(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transfers`); err != nil {
		return fmt.Errorf("failed to delete transfers: %w", err)
	}
	return nil
}

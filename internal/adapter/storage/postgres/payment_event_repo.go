package postgres

import (
	"context"
	"fmt"

	"credit-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// PaymentEventRepo implements ports.PaymentEventRepository.
type PaymentEventRepo struct {
	pool Pool
}

// NewPaymentEventRepo creates a new PaymentEventRepo.
func NewPaymentEventRepo(pool Pool) *PaymentEventRepo {
	return &PaymentEventRepo{pool: pool}
}

// Insert records a processed external event within a database transaction.
// A duplicate event id is the normal redelivery outcome, reported as
// inserted == false rather than an error.
func (r *PaymentEventRepo) Insert(ctx context.Context, tx pgx.Tx, rec *domain.ExternalEventRecord) (bool, error) {
	query := `INSERT INTO external_event_records (event_id, account_id, amount, processed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING`

	tag, err := tx.Exec(ctx, query, rec.EventID, rec.AccountID, rec.Amount, rec.ProcessedAt)
	if err != nil {
		return false, fmt.Errorf("insert external event record: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

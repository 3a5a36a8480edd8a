package postgres

import (
	"context"
	"errors"
	"fmt"

	"credit-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// ChargeKeyRepo implements ports.ChargeKeyRepository.
type ChargeKeyRepo struct {
	pool Pool
}

// NewChargeKeyRepo creates a new ChargeKeyRepo.
func NewChargeKeyRepo(pool Pool) *ChargeKeyRepo {
	return &ChargeKeyRepo{pool: pool}
}

// Create inserts a charge idempotency key within a database transaction.
func (r *ChargeKeyRepo) Create(ctx context.Context, tx pgx.Tx, k *domain.ChargeKey) error {
	query := `INSERT INTO charge_keys (key, account_id, batch_id, response_json, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.Exec(ctx, query, k.Key, k.AccountID, k.BatchID, k.ResponseJSON, k.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert charge key: %w", err)
	}
	return nil
}

// Get fetches a charge key record, or nil when the key is unused.
func (r *ChargeKeyRepo) Get(ctx context.Context, key string) (*domain.ChargeKey, error) {
	query := `SELECT key, account_id, batch_id, response_json, created_at FROM charge_keys WHERE key = $1`

	k := &domain.ChargeKey{}
	err := r.pool.QueryRow(ctx, query, key).Scan(&k.Key, &k.AccountID, &k.BatchID, &k.ResponseJSON, &k.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get charge key: %w", err)
	}
	return k, nil
}

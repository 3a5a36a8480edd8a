package postgres

import (
	"context"
	"errors"
	"fmt"

	"credit-ledger/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// CostRepo implements ports.CostRepository.
type CostRepo struct {
	pool Pool
}

// NewCostRepo creates a new CostRepo.
func NewCostRepo(pool Pool) *CostRepo {
	return &CostRepo{pool: pool}
}

// Get fetches a cost entry by canonical operation id.
func (r *CostRepo) Get(ctx context.Context, operationID string) (*domain.CostEntry, error) {
	query := `SELECT operation_id, cost, updated_at FROM cost_entries WHERE operation_id = $1`

	e := &domain.CostEntry{}
	err := r.pool.QueryRow(ctx, query, operationID).Scan(&e.OperationID, &e.Cost, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cost entry: %w", err)
	}
	return e, nil
}

// Upsert inserts or replaces the cost for an operation id (idempotent by id).
func (r *CostRepo) Upsert(ctx context.Context, e *domain.CostEntry) error {
	query := `INSERT INTO cost_entries (operation_id, cost, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (operation_id) DO UPDATE SET cost = EXCLUDED.cost, updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query, e.OperationID, e.Cost, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert cost entry: %w", err)
	}
	return nil
}

// List returns all configured costs ordered by operation id.
func (r *CostRepo) List(ctx context.Context) ([]domain.CostEntry, error) {
	query := `SELECT operation_id, cost, updated_at FROM cost_entries ORDER BY operation_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cost entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.CostEntry
	for rows.Next() {
		var e domain.CostEntry
		if err := rows.Scan(&e.OperationID, &e.Cost, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cost entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cost entries: %w", err)
	}
	return entries, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"credit-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const ledgerColumns = `id, account_id, delta, kind, reason, operation_id, batch_id, external_event_id, created_at`

// LedgerRepo implements ports.LedgerRepository. The table is append-only:
// there are no update or delete paths.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Create appends one ledger entry within a database transaction.
func (r *LedgerRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.AccountID, e.Delta, e.Kind, e.Reason,
		e.OperationID, e.BatchID, e.ExternalEventID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// CreateBatch appends a group of entries sharing one batch id. All inserts
// ride the caller's transaction, so the batch is all-or-nothing.
func (r *LedgerRepo) CreateBatch(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error {
	for i := range entries {
		if err := r.Create(ctx, tx, &entries[i]); err != nil {
			return fmt.Errorf("batch entry %d: %w", i, err)
		}
	}
	return nil
}

// ListByAccount returns entries newest first. cursor, when set, is the id of
// the last entry of the previous page (keyset pagination).
func (r *LedgerRepo) ListByAccount(ctx context.Context, accountID string, cursor *uuid.UUID, limit int) ([]domain.LedgerEntry, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if cursor != nil {
		query := `SELECT ` + ledgerColumns + ` FROM ledger_entries
			WHERE account_id = $1
			AND (created_at, id) < (SELECT created_at, id FROM ledger_entries WHERE id = $2)
			ORDER BY created_at DESC, id DESC LIMIT $3`
		rows, err = r.pool.Query(ctx, query, accountID, *cursor, limit)
	} else {
		query := `SELECT ` + ledgerColumns + ` FROM ledger_entries
			WHERE account_id = $1
			ORDER BY created_at DESC, id DESC LIMIT $2`
		rows, err = r.pool.Query(ctx, query, accountID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		err := rows.Scan(
			&e.ID, &e.AccountID, &e.Delta, &e.Kind, &e.Reason,
			&e.OperationID, &e.BatchID, &e.ExternalEventID, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}

// SumDeltas computes the running sum of all deltas for an account. The
// wallet balance must always equal this value.
func (r *LedgerRepo) SumDeltas(ctx context.Context, accountID string) (int64, error) {
	query := `SELECT COALESCE(SUM(delta), 0) FROM ledger_entries WHERE account_id = $1`

	var sum int64
	if err := r.pool.QueryRow(ctx, query, accountID).Scan(&sum); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("sum ledger deltas: %w", err)
	}
	return sum, nil
}

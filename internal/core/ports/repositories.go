package ports

import (
	"context"

	"credit-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside transaction blocks so the caller
// controls the pessimistic-lock scope.
type WalletRepository interface {
	GetByAccount(ctx context.Context, accountID string) (*domain.Wallet, error)
	// GetByAccountForUpdate locks the wallet row (SELECT ... FOR UPDATE).
	// Returns nil, nil when no wallet exists yet.
	GetByAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Wallet, error)
	// CreateIfAbsent inserts a zero-balance wallet, ignoring conflicts so
	// concurrent lazy creation is safe.
	CreateIfAbsent(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance int64) error
}

// LedgerRepository defines persistence for the append-only transaction log.
type LedgerRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerEntry) error
	CreateBatch(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error
	// ListByAccount returns entries newest first. cursor, when set, is the id
	// of the last entry from the previous page.
	ListByAccount(ctx context.Context, accountID string, cursor *uuid.UUID, limit int) ([]domain.LedgerEntry, error)
	// SumDeltas computes the ledger-side balance for consistency audits.
	SumDeltas(ctx context.Context, accountID string) (int64, error)
}

// CostRepository defines persistence for the agent cost registry.
type CostRepository interface {
	Get(ctx context.Context, operationID string) (*domain.CostEntry, error)
	Upsert(ctx context.Context, entry *domain.CostEntry) error
	List(ctx context.Context) ([]domain.CostEntry, error)
}

// PaymentEventRepository records processed external payment notifications.
type PaymentEventRepository interface {
	// Insert returns false (and no error) when the event id was already
	// recorded, which is the normal duplicate-delivery outcome.
	Insert(ctx context.Context, tx pgx.Tx, record *domain.ExternalEventRecord) (bool, error)
}

// ChargeKeyRepository stores batch-charge idempotency keys.
type ChargeKeyRepository interface {
	Create(ctx context.Context, tx pgx.Tx, key *domain.ChargeKey) error
	Get(ctx context.Context, key string) (*domain.ChargeKey, error)
}

// CostCache is a best-effort read-through cache in front of the cost
// registry. A cache failure must never fail the lookup.
type CostCache interface {
	Get(ctx context.Context, operationID string) (int64, bool, error)
	Set(ctx context.Context, operationID string, cost int64) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

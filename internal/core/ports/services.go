package ports

import (
	"context"

	"credit-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// GrantRequest credits a wallet.
type GrantRequest struct {
	AccountID       string
	Amount          int64
	Kind            domain.EntryKind
	Reason          string
	ExternalEventID *string
}

// ConsumeRequest debits a wallet for one priced operation.
type ConsumeRequest struct {
	AccountID   string
	Amount      int64
	Reason      string
	OperationID *string
	BatchID     *uuid.UUID
}

// WalletView is the consumer-facing wallet read model.
type WalletView struct {
	AccountID     string               `json:"account_id"`
	Balance       int64                `json:"balance"`
	RecentEntries []domain.LedgerEntry `json:"recent_entries"`
}

// WalletService exposes atomic balance mutation primitives. Every mutation
// holds an exclusive row lock on the wallet for its read-check-write span.
type WalletService interface {
	Grant(ctx context.Context, req GrantRequest) (int64, error)
	Consume(ctx context.Context, req ConsumeRequest) (int64, error)
	// Adjust applies a signed administrative correction; the resulting
	// balance must still be non-negative.
	Adjust(ctx context.Context, accountID string, amount int64, reason string) (int64, error)
	// Balance lazily creates a zero wallet when none exists.
	Balance(ctx context.Context, accountID string) (int64, error)
	GetWallet(ctx context.Context, accountID string) (*WalletView, error)
	ListEntries(ctx context.Context, accountID string, cursor *uuid.UUID, limit int) ([]domain.LedgerEntry, error)
}

// CostRegistry maps normalized operation ids to credit costs.
type CostRegistry interface {
	GetCost(ctx context.Context, operationID string) (int64, error)
	SetCost(ctx context.Context, operationID string, cost int64) (*domain.CostEntry, error)
	ListCosts(ctx context.Context) ([]domain.CostEntry, error)
}

// ChargeItem is one priced operation occurrence inside a batch.
type ChargeItem struct {
	OperationID string `json:"operation_id"` // canonical form
	Cost        int64  `json:"cost"`
}

// ChargePlan is the priced breakdown of one batch before commit.
// Items preserves input order with one element per requested operation,
// duplicates included; Breakdown sums costs per canonical id.
type ChargePlan struct {
	TotalCost int64            `json:"total_cost"`
	Breakdown map[string]int64 `json:"breakdown"`
	Items     []ChargeItem     `json:"items"`
}

// ChargeRequest is the upfront all-or-nothing commit for one job.
type ChargeRequest struct {
	AccountID    string
	OperationIDs []string
	// IdempotencyKey, when set, makes a retried charge return the original
	// batch instead of charging again.
	IdempotencyKey *string
}

// ChargeResult correlates the charge with later execution results.
type ChargeResult struct {
	BatchID    uuid.UUID `json:"batch_id"`
	TotalCost  int64     `json:"total_cost"`
	NewBalance int64     `json:"new_balance"`
}

// BillingService computes batch costs and performs the upfront charge.
type BillingService interface {
	Plan(ctx context.Context, operationIDs []string) (*ChargePlan, error)
	ChargeBatch(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// IngestRequest is one verified payment-gateway notification.
type IngestRequest struct {
	EventID   string
	AccountID string
	Amount    int64
	Reason    string
}

// IngestResult reports whether the notification was applied or recognized
// as a duplicate delivery.
type IngestResult struct {
	Applied    bool  `json:"applied"`
	NewBalance int64 `json:"new_balance,omitempty"`
}

// PaymentIngestService applies gateway credits exactly once per event id.
type PaymentIngestService interface {
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntryKind classifies a ledger entry. The set is closed: anything else
// is rejected before it reaches storage.
type EntryKind string

const (
	EntryKindPurchase   EntryKind = "PURCHASE"
	EntryKindConsume    EntryKind = "CONSUME"
	EntryKindRefund     EntryKind = "REFUND"
	EntryKindAdjustment EntryKind = "ADJUSTMENT"
	EntryKindGrant      EntryKind = "GRANT"
)

// Valid reports whether k is one of the closed set of entry kinds.
func (k EntryKind) Valid() bool {
	switch k {
	case EntryKindPurchase, EntryKindConsume, EntryKindRefund, EntryKindAdjustment, EntryKindGrant:
		return true
	}
	return false
}

// CreditKind reports whether k may appear on a positive-delta grant.
func (k EntryKind) CreditKind() bool {
	switch k {
	case EntryKindPurchase, EntryKindRefund, EntryKindGrant:
		return true
	}
	return false
}

// LedgerEntry is one immutable balance change. Entries are append-only;
// the wallet balance equals the sum of all deltas for the account.
type LedgerEntry struct {
	ID              uuid.UUID  `json:"id"`
	AccountID       string     `json:"account_id"`
	Delta           int64      `json:"delta"` // Positive for credit, negative for consumption
	Kind            EntryKind  `json:"kind"`
	Reason          string     `json:"reason"`
	OperationID     *string    `json:"operation_id,omitempty"`
	BatchID         *uuid.UUID `json:"batch_id,omitempty"`
	ExternalEventID *string    `json:"external_event_id,omitempty"` // Unique when present
	CreatedAt       time.Time  `json:"created_at"`
}

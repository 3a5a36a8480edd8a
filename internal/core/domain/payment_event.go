package domain

import "time"

// ExternalEventRecord marks one processed payment-gateway notification.
// It exists purely for duplicate detection and is kept separate from the
// ledger so replay detection survives a failed ledger write.
type ExternalEventRecord struct {
	EventID     string    `json:"event_id"`
	AccountID   string    `json:"account_id"`
	Amount      int64     `json:"amount"`
	ProcessedAt time.Time `json:"processed_at"`
}

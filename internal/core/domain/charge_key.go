package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChargeKey records the outcome of a batch charge under a caller-supplied
// idempotency key, so a retried charge after a timeout returns the original
// batch instead of double-charging.
type ChargeKey struct {
	Key          string    `json:"key"`
	AccountID    string    `json:"account_id"`
	BatchID      uuid.UUID `json:"batch_id"`
	ResponseJSON []byte    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxAccountIDLength bounds account identifiers at the boundary.
const MaxAccountIDLength = 128

// Wallet holds the prepaid credit balance for one account.
// Wallets are created lazily on first credit, consumption attempt or
// balance read, and are never deleted. The balance column is a running
// sum of the account's ledger entries and must never go negative.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	AccountID string    `json:"account_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeAccountID trims surrounding whitespace from a raw account id.
func NormalizeAccountID(raw string) string {
	return strings.TrimSpace(raw)
}

// ValidAccountID reports whether an already-normalized account id is usable.
func ValidAccountID(id string) bool {
	return id != "" && len(id) <= MaxAccountIDLength
}

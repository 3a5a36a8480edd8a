package domain

import (
	"strings"
	"time"
)

// CostEntry maps a canonical operation id to its credit cost.
// Read-heavy, updated only by administrative action.
type CostEntry struct {
	OperationID string    `json:"operation_id"`
	Cost        int64     `json:"cost"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NormalizeOperationID converts a raw operation identifier into its
// canonical lowercase-hyphenated form: "Semantic_Mapper" and
// "semantic mapper" both resolve to "semantic-mapper".
func NormalizeOperationID(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Map(func(r rune) rune {
		switch r {
		case '_', ' ', '\t':
			return '-'
		}
		return r
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}

// ValidOperationID reports whether a canonical operation id is well formed.
func ValidOperationID(id string) bool {
	if id == "" || len(id) > MaxAccountIDLength {
		return false
	}
	for _, r := range id {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}

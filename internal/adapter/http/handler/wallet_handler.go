package handler

import (
	"strconv"

	"credit-ledger/internal/core/ports"
	"credit-ledger/pkg/apperror"
	"credit-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet read endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetWallet handles GET /api/v1/wallets/:account.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	view, err := h.walletSvc.GetWallet(c.Request.Context(), c.Param("account"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// ListEntries handles GET /api/v1/wallets/:account/entries.
// Query params: cursor (entry id of previous page's last entry), limit (<=100).
func (h *WalletHandler) ListEntries(c *gin.Context) {
	var cursor *uuid.UUID
	if raw := c.Query("cursor"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, apperror.Validation("cursor must be a valid entry id"))
			return
		}
		cursor = &id
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, apperror.Validation("limit must be an integer"))
			return
		}
		limit = n
	}

	entries, err := h.walletSvc.ListEntries(c.Request.Context(), c.Param("account"), cursor, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"entries": entries})
}

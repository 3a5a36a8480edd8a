package handler

import (
	"credit-ledger/internal/core/ports"
	"credit-ledger/pkg/apperror"
	"credit-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles administrative endpoints: cost registry updates
// and balance corrections.
type AdminHandler struct {
	registry  ports.CostRegistry
	walletSvc ports.WalletService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(registry ports.CostRegistry, walletSvc ports.WalletService) *AdminHandler {
	return &AdminHandler{registry: registry, walletSvc: walletSvc}
}

type setCostRequest struct {
	Cost *int64 `json:"cost" binding:"required"`
}

// SetCost handles PUT /api/v1/admin/costs/:operation.
func (h *AdminHandler) SetCost(c *gin.Context) {
	var req setCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	entry, err := h.registry.SetCost(c.Request.Context(), c.Param("operation"), *req.Cost)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entry)
}

// ListCosts handles GET /api/v1/admin/costs.
func (h *AdminHandler) ListCosts(c *gin.Context) {
	entries, err := h.registry.ListCosts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"costs": entries})
}

type adjustRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// AdjustBalance handles POST /api/v1/admin/wallets/:account/adjust.
func (h *AdminHandler) AdjustBalance(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	newBalance, err := h.walletSvc.Adjust(c.Request.Context(), c.Param("account"), req.Amount, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"new_balance": newBalance})
}

package handler

import (
	"credit-ledger/internal/core/ports"
	"credit-ledger/pkg/apperror"
	"credit-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// BillingHandler handles batch pricing and charging endpoints.
type BillingHandler struct {
	billingSvc ports.BillingService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(billingSvc ports.BillingService) *BillingHandler {
	return &BillingHandler{billingSvc: billingSvc}
}

type planRequest struct {
	OperationIDs []string `json:"operation_ids" binding:"required"`
}

// Plan handles POST /api/v1/billing/plan.
func (h *BillingHandler) Plan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	plan, err := h.billingSvc.Plan(c.Request.Context(), req.OperationIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plan)
}

type chargeRequest struct {
	AccountID      string   `json:"account_id" binding:"required"`
	OperationIDs   []string `json:"operation_ids" binding:"required"`
	IdempotencyKey *string  `json:"idempotency_key,omitempty"`
}

// ChargeBatch handles POST /api/v1/billing/charge.
func (h *BillingHandler) ChargeBatch(c *gin.Context) {
	var req chargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.billingSvc.ChargeBatch(c.Request.Context(), ports.ChargeRequest{
		AccountID:      req.AccountID,
		OperationIDs:   req.OperationIDs,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

package handler

import (
	"credit-ledger/internal/core/ports"
	"credit-ledger/pkg/apperror"
	"credit-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// PaymentHandler handles payment-gateway notification ingestion. The
// gateway-facing transport verifies the notification's signature before
// it reaches this endpoint.
type PaymentHandler struct {
	ingestSvc ports.PaymentIngestService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ingestSvc ports.PaymentIngestService) *PaymentHandler {
	return &PaymentHandler{ingestSvc: ingestSvc}
}

type ingestRequest struct {
	EventID   string `json:"event_id" binding:"required"`
	AccountID string `json:"account_id" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
	Reason    string `json:"reason"`
}

// Ingest handles POST /api/v1/payments/ingest. Duplicate deliveries are
// acknowledged with 200 and applied=false so the gateway stops retrying.
func (h *PaymentHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.ingestSvc.Ingest(c.Request.Context(), ports.IngestRequest{
		EventID:   req.EventID,
		AccountID: req.AccountID,
		Amount:    req.Amount,
		Reason:    req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

package handler

import (
	"net/http"

	"credit-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
// Authentication and gateway signature verification live in the
// surrounding product; this service assumes a verified caller.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	BillingSvc     ports.BillingService
	IngestSvc      ports.PaymentIngestService
	CostRegistry   ports.CostRegistry
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(requestID())

	r.GET("/healthz", HealthCheck(deps.HealthCheckers...))

	v1 := r.Group("/api/v1")

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets")
	{
		wallets.GET("/:account", walletHandler.GetWallet)
		wallets.GET("/:account/entries", walletHandler.ListEntries)
	}

	billingHandler := NewBillingHandler(deps.BillingSvc)
	billing := v1.Group("/billing")
	{
		billing.POST("/plan", billingHandler.Plan)
		billing.POST("/charge", billingHandler.ChargeBatch)
	}

	paymentHandler := NewPaymentHandler(deps.IngestSvc)
	v1.POST("/payments/ingest", paymentHandler.Ingest)

	adminHandler := NewAdminHandler(deps.CostRegistry, deps.WalletSvc)
	admin := v1.Group("/admin")
	{
		admin.PUT("/costs/:operation", adminHandler.SetCost)
		admin.GET("/costs", adminHandler.ListCosts)
		admin.POST("/wallets/:account/adjust", adminHandler.AdjustBalance)
	}

	return r
}

// HealthCheck reports connectivity of all registered dependencies.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}

// requestID attaches a request id for the response envelope.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

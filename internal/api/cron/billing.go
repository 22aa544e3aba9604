package cron

import (
	"net/http"

	"github.com/billcycle/billcycle/internal/logger"
	"github.com/billcycle/billcycle/internal/service"
	"github.com/gin-gonic/gin"
)

// BillingHandler exposes the batch billing operations as cron endpoints. An
// external scheduler hits these on a fixed interval; overlapping invocations
// are safe because subscription updates are conditional on version.
type BillingHandler struct {
	billingService service.BillingService
	logger         *logger.Logger
}

// NewBillingHandler creates a new billing cron handler
func NewBillingHandler(billingService service.BillingService, logger *logger.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		logger:         logger,
	}
}

// RunRecurringBilling charges all due subscriptions
func (h *BillingHandler) RunRecurringBilling(c *gin.Context) {
	ctx := c.Request.Context()
	response, err := h.billingService.ProcessRecurringBilling(ctx)
	if err != nil {
		h.logger.Errorw("recurring billing run failed",
			"error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// RunRenewals charges subscriptions approaching their end date
func (h *BillingHandler) RunRenewals(c *gin.Context) {
	ctx := c.Request.Context()
	response, err := h.billingService.ProcessSubscriptionRenewal(ctx)
	if err != nil {
		h.logger.Errorw("renewal run failed",
			"error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// RunRetries retries subscriptions with failed payments
func (h *BillingHandler) RunRetries(c *gin.Context) {
	ctx := c.Request.Context()
	response, err := h.billingService.ProcessFailedPaymentRetry(ctx)
	if err != nil {
		h.logger.Errorw("payment retry run failed",
			"error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopswift/storefront/payments"
	"github.com/shopswift/storefront/services"
)

// PaymentController handles the gateway callback webhook.
type PaymentController struct {
	orderService *services.OrderService
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(orderService *services.OrderService) *PaymentController {
	return &PaymentController{orderService: orderService}
}

// HandleCallback handles POST /payments/callback from the gateway.
// Success, failure and cancellation are three distinct outcomes; duplicate
// success callbacks for an already-paid order are acknowledged as no-ops.
func (pc *PaymentController) HandleCallback(ctx *gin.Context) {
	var cb payments.Callback
	if err := ctx.ShouldBindJSON(&cb); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid callback payload", "details": err.Error()})
		return
	}

	order, svcErr := pc.orderService.HandlePaymentCallback(ctx.Request.Context(), cb)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus,
	})
}

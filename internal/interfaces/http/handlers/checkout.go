// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/checkout-engine/internal/domain/cart"
	"github.com/your-org/checkout-engine/internal/domain/checkout"
	"github.com/your-org/checkout-engine/internal/domain/order"
	"github.com/your-org/checkout-engine/internal/domain/payment"
	"github.com/your-org/checkout-engine/internal/interfaces/http/middleware"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// CheckoutHandler exposes the checkout operation
type CheckoutHandler struct {
	checkouts *checkout.Service
	carts     *cart.Service
	payments  *payment.Service
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkouts *checkout.Service, carts *cart.Service, payments *payment.Service) *CheckoutHandler {
	return &CheckoutHandler{checkouts: checkouts, carts: carts, payments: payments}
}

// Checkout converts the caller's cart into an order.
// The minimum partial-payment policy is enforced here, at the request
// boundary, before the orchestrator runs.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok || !ident.Authenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request: %v", err))
		return
	}

	if req.PaymentMethod == order.MethodPartial {
		userCart, err := h.carts.GetCart(ident)
		if err != nil {
			respondError(c, err)
			return
		}
		if !h.payments.CanAcceptPartialPayment(userCart.Total, req.InitialPaymentAmount) {
			respondError(c, errs.Validation(
				"initial payment must be between %d and %d",
				h.payments.MinimumPartialPayment(userCart.Total), userCart.Total))
			return
		}
	}

	ord, err := h.checkouts.Checkout(c.Request.Context(), ident, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": ord})
}

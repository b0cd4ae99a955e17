// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/checkout-engine/internal/domain/payment"
	"github.com/your-org/checkout-engine/internal/interfaces/http/middleware"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// PaymentHandler exposes payment settlement operations
type PaymentHandler struct {
	payments *payment.Service
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments *payment.Service) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type processPaymentRequest struct {
	OrderID uint                  `json:"order_id" binding:"required"`
	Method  string                `json:"method" binding:"required"`
	Amount  int64                 `json:"amount" binding:"required"`
	Details payment.ChargeDetails `json:"details"`
}

type refundRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason"`
}

// Process settles a payment against an order
func (h *PaymentHandler) Process(c *gin.Context) {
	ident, _ := middleware.GetIdentity(c)

	var req processPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request: %v", err))
		return
	}

	pmt, err := h.payments.ProcessPayment(c.Request.Context(), ident, req.OrderID, req.Method, req.Amount, req.Details)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": pmt})
}

// Get returns a single payment
func (h *PaymentHandler) Get(c *gin.Context) {
	ident, _ := middleware.GetIdentity(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid payment id"))
		return
	}
	pmt, err := h.payments.GetPayment(ident, uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": pmt})
}

// History lists all payments for an order
func (h *PaymentHandler) History(c *gin.Context) {
	ident, _ := middleware.GetIdentity(c)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid order id"))
		return
	}
	payments, err := h.payments.GetPaymentHistory(ident, uint(orderID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// ConfirmCashOnDelivery confirms collection of a COD payment (admin)
func (h *PaymentHandler) ConfirmCashOnDelivery(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid payment id"))
		return
	}
	pmt, err := h.payments.ConfirmCashOnDelivery(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": pmt})
}

// Refund returns money on a completed payment (admin)
func (h *PaymentHandler) Refund(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid payment id"))
		return
	}

	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request: %v", err))
		return
	}

	pmt, err := h.payments.Refund(c.Request.Context(), uint(id), req.Amount, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": pmt})
}

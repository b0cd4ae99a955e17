// internal/interfaces/http/handlers/response.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// respondError maps domain errors onto HTTP responses. Anything outside the
// domain taxonomy is an infrastructure failure and becomes a 500 without
// leaking internals.
func respondError(c *gin.Context, err error) {
	var (
		validation   *errs.ValidationError
		stock        *errs.InsufficientStockError
		overpayment  *errs.OverpaymentError
		paymentState *errs.InvalidPaymentStateError
		refund       *errs.RefundExceedsAmountError
		transition   *errs.InvalidStateTransitionError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.Is(err, errs.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &stock):
		c.JSON(http.StatusConflict, gin.H{
			"error":        stock.Error(),
			"product_id":   stock.ProductID,
			"product_name": stock.ProductName,
			"available":    stock.Available,
		})
	case errors.As(err, &overpayment):
		c.JSON(http.StatusBadRequest, gin.H{"error": overpayment.Error()})
	case errors.As(err, &refund):
		c.JSON(http.StatusBadRequest, gin.H{"error": refund.Error()})
	case errors.As(err, &paymentState):
		c.JSON(http.StatusConflict, gin.H{"error": paymentState.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"error": transition.Error()})
	case errors.Is(err, errs.ErrOrderConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrPaymentDeclined):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func paginationMeta(page, limit int, total int64) gin.H {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return gin.H{
		"page":  page,
		"limit": limit,
		"total": total,
	}
}

// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/checkout-engine/internal/domain/order"
	"github.com/your-org/checkout-engine/internal/interfaces/http/middleware"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// OrderHandler exposes order reads and lifecycle operations
type OrderHandler struct {
	orders *order.Service
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type shipRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type noteRequest struct {
	Note string `json:"note" binding:"required"`
}

// List returns orders visible to the caller
func (h *OrderHandler) List(c *gin.Context) {
	ident, _ := middleware.GetIdentity(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	filters := order.ListFilters{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("payment_status"),
		Page:          page,
		Limit:         limit,
	}

	orders, total, err := h.orders.ListOrders(ident, filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders":     orders,
		"pagination": paginationMeta(page, limit, total),
	})
}

// Get returns a single order with items, address and payments
func (h *OrderHandler) Get(c *gin.Context) {
	ident, _ := middleware.GetIdentity(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid order id"))
		return
	}
	ord, err := h.orders.GetOrder(ident, uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": ord})
}

// Cancel cancels an order and restores reserved stock
func (h *OrderHandler) Cancel(c *gin.Context) {
	ident, _ := middleware.GetIdentity(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid order id"))
		return
	}

	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondError(c, errs.Validation("invalid request: %v", err))
		return
	}

	ord, err := h.orders.Cancel(ident, uint(id), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": ord})
}

// Confirm moves a pending order to confirmed (admin)
func (h *OrderHandler) Confirm(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid order id"))
		return
	}
	ord, err := h.orders.Confirm(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": ord})
}

// Ship marks an order shipped (admin)
func (h *OrderHandler) Ship(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid order id"))
		return
	}

	var req shipRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondError(c, errs.Validation("invalid request: %v", err))
		return
	}

	ord, err := h.orders.MarkAsShipped(uint(id), req.TrackingNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": ord})
}

// Deliver marks an order delivered (admin)
func (h *OrderHandler) Deliver(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid order id"))
		return
	}
	ord, err := h.orders.MarkAsDelivered(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": ord})
}

// UpdateStatus performs a direct administrative status change (admin)
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid order id"))
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request: %v", err))
		return
	}

	ord, err := h.orders.UpdateStatus(uint(id), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": ord})
}

// AddNote appends an admin note to an order (admin)
func (h *OrderHandler) AddNote(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid order id"))
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request: %v", err))
		return
	}

	ord, err := h.orders.AddAdminNote(uint(id), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": ord})
}

// Statistics returns order counts and revenue (admin)
func (h *OrderHandler) Statistics(c *gin.Context) {
	stats, err := h.orders.GetStatistics()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": stats})
}

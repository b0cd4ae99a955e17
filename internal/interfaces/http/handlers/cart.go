// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/checkout-engine/internal/domain/cart"
	"github.com/your-org/checkout-engine/internal/interfaces/http/middleware"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// CartHandler exposes shopping cart operations
type CartHandler struct {
	carts *cart.Service
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.Service) *CartHandler {
	return &CartHandler{carts: carts}
}

type addItemRequest struct {
	ProductID uint              `json:"product_id" binding:"required"`
	Quantity  int               `json:"quantity" binding:"required,min=1"`
	Options   map[string]string `json:"options"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type couponRequest struct {
	Code string `json:"code" binding:"required"`
}

// Get returns the caller's cart
func (h *CartHandler) Get(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "identity required"})
		return
	}
	result, err := h.carts.GetCart(ident)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": result})
}

// AddItem adds a product to the cart
func (h *CartHandler) AddItem(c *gin.Context) {
	ident, _ := middleware.GetIdentity(c)

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request: %v", err))
		return
	}

	result, err := h.carts.AddItem(ident, req.ProductID, req.Quantity, req.Options)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": result})
}

// UpdateItem changes a cart line's quantity
func (h *CartHandler) UpdateItem(c *gin.Context) {
	ident, _ := middleware.GetIdentity(c)

	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid item id"))
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request: %v", err))
		return
	}

	result, err := h.carts.UpdateItem(ident, uint(itemID), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": result})
}

// RemoveItem deletes a cart line
func (h *CartHandler) RemoveItem(c *gin.Context) {
	ident, _ := middleware.GetIdentity(c)

	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid item id"))
		return
	}

	result, err := h.carts.RemoveItem(ident, uint(itemID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": result})
}

// Clear empties the cart
func (h *CartHandler) Clear(c *gin.Context) {
	ident, _ := middleware.GetIdentity(c)

	result, err := h.carts.Clear(ident)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": result})
}

// ApplyCoupon applies a coupon code to the cart
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	ident, _ := middleware.GetIdentity(c)

	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request: %v", err))
		return
	}

	result, err := h.carts.ApplyCoupon(ident, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": result})
}

// RemoveCoupon removes the coupon from the cart
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	ident, _ := middleware.GetIdentity(c)

	result, err := h.carts.RemoveCoupon(ident)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": result})
}

// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/checkout-engine/internal/domain/catalog"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// ProductHandler exposes catalog reads
type ProductHandler struct {
	products *catalog.Service
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *catalog.Service) *ProductHandler {
	return &ProductHandler{products: products}
}

// List returns active products with pagination
func (h *ProductHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	products, total, err := h.products.ListProducts(page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products":   products,
		"pagination": paginationMeta(page, limit, total),
	})
}

// Get returns a single product by id
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, errs.Validation("invalid product id"))
		return
	}
	product, err := h.products.GetProduct(uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// Stock status values derived from quantity and the low stock threshold.
const (
	StockStatusInStock    = "in_stock"
	StockStatusLowStock   = "low_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// Product represents a sellable product
type Product struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	SKU               string         `json:"sku" gorm:"uniqueIndex;not null;size:100"`
	Name              string         `json:"name" gorm:"not null;size:255"`
	Slug              string         `json:"slug" gorm:"uniqueIndex;not null;size:255"`
	Description       string         `json:"description" gorm:"type:text"`
	Price             int64          `json:"price" gorm:"not null"` // Price in cents
	TrackInventory    bool           `json:"track_inventory" gorm:"default:true"`
	Quantity          int            `json:"quantity" gorm:"default:0"`
	LowStockThreshold int            `json:"low_stock_threshold" gorm:"default:5"`
	StockStatus       string         `json:"stock_status" gorm:"default:'in_stock';size:20"`
	Weight            float64        `json:"weight" gorm:"default:0"`
	IsActive          bool           `json:"is_active" gorm:"default:true"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName returns the table name for Product model
func (Product) TableName() string {
	return "products"
}

// InStock checks whether the requested quantity can currently be served.
// Products that do not track inventory are always in stock.
func (p *Product) InStock(requested int) bool {
	if !p.IsActive {
		return false
	}
	if !p.TrackInventory {
		return true
	}
	return p.Quantity >= requested
}

// ComputeStockStatus derives the stock status from the current quantity.
func (p *Product) ComputeStockStatus() string {
	switch {
	case p.Quantity <= 0:
		return StockStatusOutOfStock
	case p.Quantity <= p.LowStockThreshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

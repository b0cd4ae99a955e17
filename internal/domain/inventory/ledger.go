// internal/domain/inventory/ledger.go
package inventory

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/checkout-engine/internal/domain/catalog"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// Ledger is the single authority over product stock levels.
// Reserve and Release run inside the caller's transaction so that stock
// movement commits or rolls back together with the business operation.
type Ledger interface {
	// Reserve atomically decrements stock for a product. It fails with
	// InsufficientStockError when the available quantity is too low, and
	// never lets stock go negative.
	Reserve(tx *gorm.DB, productID uint, quantity int) error

	// Release returns previously reserved stock to a product.
	Release(tx *gorm.DB, productID uint, quantity int) error

	// Available reports the current sellable quantity for a product.
	Available(tx *gorm.DB, productID uint) (int, error)
}

// GormLedger implements Ledger on top of the products table.
type GormLedger struct{}

// NewGormLedger creates the database-backed stock ledger
func NewGormLedger() *GormLedger {
	return &GormLedger{}
}

// Reserve decrements stock with a conditional update. The quantity guard in
// the WHERE clause makes concurrent reservations race-safe: whichever update
// loses the race simply matches zero rows.
func (l *GormLedger) Reserve(tx *gorm.DB, productID uint, quantity int) error {
	if quantity <= 0 {
		return errs.Validation("reserve quantity must be positive, got %d", quantity)
	}

	result := tx.Model(&catalog.Product{}).
		Where("id = ? AND is_active = ? AND track_inventory = ? AND quantity >= ?",
			productID, true, true, quantity).
		Update("quantity", gorm.Expr("quantity - ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to reserve stock: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var product catalog.Product
		if err := tx.Where("id = ? AND is_active = ?", productID, true).First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrNotFound
			}
			return fmt.Errorf("failed to load product: %w", err)
		}
		// Untracked products never run out.
		if !product.TrackInventory {
			return nil
		}
		return &errs.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Quantity,
			Requested:   quantity,
		}
	}

	return l.refreshStockStatus(tx, productID)
}

// Release increments stock for a product
func (l *GormLedger) Release(tx *gorm.DB, productID uint, quantity int) error {
	if quantity <= 0 {
		return errs.Validation("release quantity must be positive, got %d", quantity)
	}

	result := tx.Model(&catalog.Product{}).
		Where("id = ? AND track_inventory = ?", productID, true).
		Update("quantity", gorm.Expr("quantity + ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to release stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var product catalog.Product
		if err := tx.Select("id", "track_inventory").Where("id = ?", productID).
			First(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrNotFound
			}
			return fmt.Errorf("failed to load product: %w", err)
		}
		// Nothing to return for untracked products.
		return nil
	}

	return l.refreshStockStatus(tx, productID)
}

// Available returns the current quantity for a product
func (l *GormLedger) Available(tx *gorm.DB, productID uint) (int, error) {
	var product catalog.Product
	if err := tx.Select("id", "quantity").Where("id = ?", productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errs.ErrNotFound
		}
		return 0, fmt.Errorf("failed to load product: %w", err)
	}
	return product.Quantity, nil
}

// refreshStockStatus recomputes the denormalized stock status after a movement.
func (l *GormLedger) refreshStockStatus(tx *gorm.DB, productID uint) error {
	var product catalog.Product
	if err := tx.Select("id", "quantity", "low_stock_threshold", "stock_status").
		Where("id = ?", productID).First(&product).Error; err != nil {
		return fmt.Errorf("failed to load product for status refresh: %w", err)
	}

	status := product.ComputeStockStatus()
	if status == product.StockStatus {
		return nil
	}
	if err := tx.Model(&catalog.Product{}).Where("id = ?", productID).
		Update("stock_status", status).Error; err != nil {
		return fmt.Errorf("failed to update stock status: %w", err)
	}
	return nil
}

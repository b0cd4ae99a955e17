// internal/domain/inventory/memory.go
package inventory

import (
	"sync"

	"gorm.io/gorm"

	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

type memoryItem struct {
	name     string
	quantity int
	tracked  bool
}

// MemoryLedger is a mutex-guarded in-memory Ledger. It ignores the
// transaction handle and is intended for tests and local development.
type MemoryLedger struct {
	mu    sync.Mutex
	items map[uint]*memoryItem
}

// NewMemoryLedger creates an empty in-memory stock ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{items: make(map[uint]*memoryItem)}
}

// SetStock seeds or replaces the stock level for a tracked product.
func (l *MemoryLedger) SetStock(productID uint, name string, quantity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[productID] = &memoryItem{name: name, quantity: quantity, tracked: true}
}

// SetUntracked registers a product that does not track inventory.
func (l *MemoryLedger) SetUntracked(productID uint, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[productID] = &memoryItem{name: name, tracked: false}
}

// Reserve decrements stock, failing when not enough is available
func (l *MemoryLedger) Reserve(_ *gorm.DB, productID uint, quantity int) error {
	if quantity <= 0 {
		return errs.Validation("reserve quantity must be positive, got %d", quantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[productID]
	if !ok {
		return errs.ErrNotFound
	}
	if !item.tracked {
		return nil
	}
	if item.quantity < quantity {
		return &errs.InsufficientStockError{
			ProductID:   productID,
			ProductName: item.name,
			Available:   item.quantity,
			Requested:   quantity,
		}
	}
	item.quantity -= quantity
	return nil
}

// Release returns stock to a product
func (l *MemoryLedger) Release(_ *gorm.DB, productID uint, quantity int) error {
	if quantity <= 0 {
		return errs.Validation("release quantity must be positive, got %d", quantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[productID]
	if !ok {
		return errs.ErrNotFound
	}
	if !item.tracked {
		return nil
	}
	item.quantity += quantity
	return nil
}

// Available reports the current quantity for a product
func (l *MemoryLedger) Available(_ *gorm.DB, productID uint) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.items[productID]
	if !ok {
		return 0, errs.ErrNotFound
	}
	return item.quantity, nil
}

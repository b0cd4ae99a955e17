// internal/domain/order/service.go
package order

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/checkout-engine/internal/config"
	"github.com/your-org/checkout-engine/internal/domain/identity"
	"github.com/your-org/checkout-engine/internal/domain/inventory"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// Service drives the order lifecycle state machine
type Service struct {
	db     *gorm.DB
	config *config.Config
	ledger inventory.Ledger
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, ledger inventory.Ledger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		ledger: ledger,
	}
}

// ListFilters narrows order listings
type ListFilters struct {
	Status        string
	PaymentStatus string
	Page          int
	Limit         int
}

// GetOrder loads an order with all owned records, enforcing ownership.
func (s *Service) GetOrder(ident identity.Identity, orderID uint) (*Order, error) {
	var ord Order
	err := s.db.Preload("Items").Preload("ShippingAddress").Preload("Payments").
		First(&ord, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !ident.CanAccessOrder(ord.UserID) {
		return nil, errs.ErrUnauthorized
	}
	return &ord, nil
}

// GetOrderByNumber loads an order by its human-readable number.
func (s *Service) GetOrderByNumber(ident identity.Identity, orderNumber string) (*Order, error) {
	var ord Order
	err := s.db.Preload("Items").Preload("ShippingAddress").Preload("Payments").
		Where("order_number = ?", orderNumber).First(&ord).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !ident.CanAccessOrder(ord.UserID) {
		return nil, errs.ErrUnauthorized
	}
	return &ord, nil
}

// ListOrders returns orders visible to the identity, newest first.
// Non-administrators only see their own orders.
func (s *Service) ListOrders(ident identity.Identity, filters ListFilters) ([]Order, int64, error) {
	page := filters.Page
	limit := filters.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&Order{})
	if !ident.IsAdmin {
		if !ident.Authenticated() {
			return nil, 0, errs.ErrUnauthorized
		}
		query = query.Where("user_id = ?", *ident.UserID)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filters.PaymentStatus)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	offset := (page - 1) * limit
	if err := query.Preload("Items").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// Confirm moves a pending order to confirmed.
func (s *Service) Confirm(orderID uint) (*Order, error) {
	return s.transition(orderID, StatusConfirmed, func(ord *Order, now time.Time) {
		ord.ConfirmedAt = &now
	})
}

// MarkAsShipped moves an order to shipped, optionally recording tracking.
func (s *Service) MarkAsShipped(orderID uint, trackingNumber string) (*Order, error) {
	return s.transition(orderID, StatusShipped, func(ord *Order, now time.Time) {
		ord.ShippedAt = &now
		if trackingNumber != "" {
			ord.TrackingNumber = &trackingNumber
		}
	})
}

// MarkAsDelivered moves a shipped order to delivered.
func (s *Service) MarkAsDelivered(orderID uint) (*Order, error) {
	return s.transition(orderID, StatusDelivered, func(ord *Order, now time.Time) {
		ord.DeliveredAt = &now
	})
}

// Cancel cancels an order and returns reserved stock to the ledger.
// Stock release and the status change commit atomically.
func (s *Service) Cancel(ident identity.Identity, orderID uint, reason string) (*Order, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var ord Order
	if err := tx.Preload("Items").First(&ord, orderID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !ident.CanAccessOrder(ord.UserID) {
		tx.Rollback()
		return nil, errs.ErrUnauthorized
	}
	if !ord.CanBeCancelled() {
		tx.Rollback()
		return nil, &errs.InvalidStateTransitionError{From: ord.Status, To: StatusCancelled}
	}

	for _, item := range ord.Items {
		if !item.TrackInventory {
			continue
		}
		if err := s.ledger.Release(tx, item.ProductID, item.Quantity); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to restore stock for product %d: %w", item.ProductID, err)
		}
	}

	now := time.Now()
	ord.Status = StatusCancelled
	ord.CancelledAt = &now
	if reason != "" {
		note := fmt.Sprintf("Cancelled: %s", reason)
		if ord.AdminNotes != "" {
			ord.AdminNotes = ord.AdminNotes + "\n" + note
		} else {
			ord.AdminNotes = note
		}
	}

	if err := tx.Save(&ord).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return &ord, nil
}

// UpdateStatus performs an administrative direct status change. Statuses
// with dedicated side effects must go through their named operation, so
// cancelled, confirmed, shipped and delivered are rejected here.
func (s *Service) UpdateStatus(orderID uint, status string) (*Order, error) {
	switch status {
	case StatusCancelled, StatusConfirmed, StatusShipped, StatusDelivered:
		return nil, errs.Validation("status %q must be set through its dedicated operation", status)
	case StatusPending, StatusProcessing, StatusRefunded:
	default:
		return nil, errs.Validation("unknown order status %q", status)
	}
	return s.transition(orderID, status, nil)
}

// AddAdminNote appends a note to the order's admin notes.
func (s *Service) AddAdminNote(orderID uint, note string) (*Order, error) {
	if note == "" {
		return nil, errs.Validation("note is required")
	}
	var ord Order
	if err := s.db.First(&ord, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if ord.AdminNotes != "" {
		ord.AdminNotes = ord.AdminNotes + "\n" + note
	} else {
		ord.AdminNotes = note
	}
	if err := s.db.Save(&ord).Error; err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}
	return &ord, nil
}

// Statistics summarizes order counts and revenue for the admin dashboard
type Statistics struct {
	TotalOrders     int64            `json:"total_orders"`
	OrdersByStatus  map[string]int64 `json:"orders_by_status"`
	TotalRevenue    int64            `json:"total_revenue"`
	CollectedAmount int64            `json:"collected_amount"`
}

// GetStatistics aggregates order counts per status and revenue totals.
func (s *Service) GetStatistics() (*Statistics, error) {
	stats := &Statistics{OrdersByStatus: make(map[string]int64)}

	if err := s.db.Model(&Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	if err := s.db.Model(&Order{}).Select("status, COUNT(*) as count").
		Group("status").Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to group orders by status: %w", err)
	}
	for _, c := range counts {
		stats.OrdersByStatus[c.Status] = c.Count
	}

	row := s.db.Model(&Order{}).
		Select("COALESCE(SUM(total), 0) as revenue, COALESCE(SUM(paid_amount), 0) as collected").
		Where("status NOT IN ?", []string{StatusCancelled, StatusRefunded})
	var sums struct {
		Revenue   int64
		Collected int64
	}
	if err := row.Scan(&sums).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	stats.TotalRevenue = sums.Revenue
	stats.CollectedAmount = sums.Collected
	return stats, nil
}

// transition applies a named status change with its timestamp side effect.
func (s *Service) transition(orderID uint, to string, stamp func(*Order, time.Time)) (*Order, error) {
	var ord Order
	if err := s.db.First(&ord, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if !ord.CanTransitionTo(to) {
		return nil, &errs.InvalidStateTransitionError{From: ord.Status, To: to}
	}

	ord.Status = to
	if stamp != nil {
		stamp(&ord, time.Now())
	}
	if err := s.db.Save(&ord).Error; err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	return &ord, nil
}

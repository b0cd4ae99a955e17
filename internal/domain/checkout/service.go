// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/your-org/checkout-engine/internal/config"
	"github.com/your-org/checkout-engine/internal/domain/cart"
	"github.com/your-org/checkout-engine/internal/domain/catalog"
	"github.com/your-org/checkout-engine/internal/domain/identity"
	"github.com/your-org/checkout-engine/internal/domain/inventory"
	"github.com/your-org/checkout-engine/internal/domain/order"
	"github.com/your-org/checkout-engine/internal/domain/payment"
	"github.com/your-org/checkout-engine/internal/domain/shipping"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// AddressInput carries the shipping destination for a checkout.
type AddressInput struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Phone      string `json:"phone"`
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

// Request is the full checkout input.
type Request struct {
	PaymentMethod        string                `json:"payment_method" binding:"required"`
	ShippingAddress      AddressInput          `json:"shipping_address" binding:"required"`
	InitialPaymentAmount int64                 `json:"initial_payment_amount"`
	PaymentDetails       payment.ChargeDetails `json:"payment_details"`
	CustomerNotes        string                `json:"customer_notes"`
}

// Service converts a cart into an order in one atomic transaction
type Service struct {
	db       *gorm.DB
	config   *config.Config
	carts    *cart.Service
	shipping *shipping.Service
	ledger   inventory.Ledger
	payments *payment.Service
}

// NewService creates a new checkout service
func NewService(db *gorm.DB, cfg *config.Config, carts *cart.Service, ship *shipping.Service, ledger inventory.Ledger, payments *payment.Service) *Service {
	return &Service{
		db:       db,
		config:   cfg,
		carts:    carts,
		shipping: ship,
		ledger:   ledger,
		payments: payments,
	}
}

// Checkout turns the identity's cart into an order: quotes shipping,
// snapshots the order, reserves stock for every line, persists the shipping
// address, settles any upfront payment and clears the cart. Every step
// commits or rolls back together.
func (s *Service) Checkout(ctx context.Context, ident identity.Identity, req Request) (*order.Order, error) {
	if !ident.Authenticated() {
		return nil, errs.ErrUnauthorized
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	userCart, err := s.carts.GetCart(ident)
	if err != nil {
		return nil, err
	}
	if userCart.IsEmpty() {
		return nil, errs.ErrEmptyCart
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	shippingCost := s.shipping.Quote(req.ShippingAddress.PostalCode, userCart.Subtotal)
	userCart.Recalculate(s.config.Checkout.TaxRate, shippingCost, userCart.Discount)

	ord, err := s.createOrder(tx, *ident.UserID, userCart, req)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, line := range userCart.Items {
		if err := s.ledger.Reserve(tx, line.ProductID, line.Quantity); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := s.createOrderItems(tx, ord, userCart); err != nil {
		tx.Rollback()
		return nil, err
	}

	address := order.ShippingAddress{
		OrderID:    ord.ID,
		FirstName:  req.ShippingAddress.FirstName,
		LastName:   req.ShippingAddress.LastName,
		Phone:      req.ShippingAddress.Phone,
		Street:     req.ShippingAddress.Street,
		City:       req.ShippingAddress.City,
		State:      req.ShippingAddress.State,
		PostalCode: req.ShippingAddress.PostalCode,
		Country:    req.ShippingAddress.Country,
	}
	if err := tx.Create(&address).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create shipping address: %w", err)
	}

	if req.PaymentMethod == order.MethodOnline || req.PaymentMethod == order.MethodPartial {
		amount := ord.Total
		if req.PaymentMethod == order.MethodPartial {
			amount = req.InitialPaymentAmount
		}
		if _, err := s.payments.ProcessInTx(ctx, tx, ord, req.PaymentMethod, amount, req.PaymentDetails); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := s.carts.ClearInTx(tx, userCart); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}

	var full order.Order
	if err := s.db.Preload("Items").Preload("ShippingAddress").Preload("Payments").
		First(&full, ord.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return &full, nil
}

// createOrder persists the order header, retrying on order-number collision.
func (s *Service) createOrder(tx *gorm.DB, userID uint, userCart *cart.Cart, req Request) (*order.Order, error) {
	var lastErr error
	for attempt := 0; attempt < s.config.Checkout.OrderNumberRetries; attempt++ {
		ord := &order.Order{
			OrderNumber:     s.generateOrderNumber(),
			UserID:          userID,
			Status:          order.StatusPending,
			PaymentStatus:   order.PaymentStatusPending,
			PaymentMethod:   req.PaymentMethod,
			Subtotal:        userCart.Subtotal,
			Tax:             userCart.Tax,
			ShippingCost:    userCart.Shipping,
			Discount:        userCart.Discount,
			Total:           userCart.Total,
			RemainingAmount: userCart.Total,
			CouponCode:      userCart.CouponCode,
			CustomerNotes:   req.CustomerNotes,
		}
		err := tx.Create(ord).Error
		if err == nil {
			return ord, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", errs.ErrOrderConflict, lastErr)
}

// createOrderItems snapshots every cart line as an immutable order item.
func (s *Service) createOrderItems(tx *gorm.DB, ord *order.Order, userCart *cart.Cart) error {
	for _, line := range userCart.Items {
		var product catalog.Product
		if err := tx.Select("id", "track_inventory").
			First(&product, line.ProductID).Error; err != nil {
			return fmt.Errorf("failed to load product %d: %w", line.ProductID, err)
		}
		item := order.OrderItem{
			OrderID:        ord.ID,
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			ProductSKU:     line.ProductSKU,
			Price:          line.Price,
			Quantity:       line.Quantity,
			Subtotal:       line.Price * int64(line.Quantity),
			Options:        line.Options,
			TrackInventory: product.TrackInventory,
		}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

// generateOrderNumber builds a human-readable unique order number,
// e.g. ORD-20260830-3FA9C1. Uniqueness is enforced by the database index
// and a retry loop in createOrder.
func (s *Service) generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s",
		s.config.Checkout.OrderNumberPrefix,
		time.Now().Format("20060102"),
		suffix)
}

func validateRequest(req Request) error {
	switch req.PaymentMethod {
	case order.MethodOnline, order.MethodCashOnDelivery:
	case order.MethodPartial:
		if req.InitialPaymentAmount <= 0 {
			return errs.Validation("initial payment amount is required for partial payment")
		}
	default:
		return errs.Validation("unsupported payment method %q", req.PaymentMethod)
	}

	addr := req.ShippingAddress
	if addr.FirstName == "" || addr.LastName == "" || addr.Street == "" ||
		addr.City == "" || addr.PostalCode == "" || addr.Country == "" {
		return errs.Validation("shipping address is incomplete")
	}
	return nil
}

// internal/domain/cart/service.go
package cart

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/checkout-engine/internal/config"
	"github.com/your-org/checkout-engine/internal/domain/catalog"
	"github.com/your-org/checkout-engine/internal/domain/identity"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// Service handles shopping cart business logic
type Service struct {
	db      *gorm.DB
	config  *config.Config
	coupons CouponPolicy
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config, coupons CouponPolicy) *Service {
	return &Service{
		db:      db,
		config:  cfg,
		coupons: coupons,
	}
}

// GetCart returns the identity's cart, creating an empty one if none exists.
func (s *Service) GetCart(ident identity.Identity) (*Cart, error) {
	if !ident.Valid() {
		return nil, errs.Validation("cart owner identity is required")
	}
	return s.getOrCreate(s.db, ident)
}

// AddItem adds a product to the cart, merging into an existing line when the
// same product and options are already present.
func (s *Service) AddItem(ident identity.Identity, productID uint, quantity int, options map[string]string) (*Cart, error) {
	if !ident.Valid() {
		return nil, errs.Validation("cart owner identity is required")
	}
	if quantity <= 0 {
		return nil, errs.Validation("quantity must be a positive integer, got %d", quantity)
	}

	var product catalog.Product
	if err := s.db.Where("id = ? AND is_active = ?", productID, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	cart, err := s.getOrCreate(tx, ident)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// The stock check covers everything already carted for this product,
	// not just the increment being added.
	cumulative := cart.QuantityOf(productID) + quantity
	if !product.InStock(cumulative) {
		tx.Rollback()
		return nil, &errs.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Quantity,
			Requested:   cumulative,
		}
	}

	encoded := EncodeOptions(options)
	if line := cart.FindLine(productID, encoded); line != nil {
		line.Quantity += quantity
		line.Subtotal = line.Price * int64(line.Quantity)
		if err := tx.Save(line).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	} else {
		item := CartItem{
			CartID:      cart.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			ProductSKU:  product.SKU,
			Price:       product.Price,
			Quantity:    quantity,
			Subtotal:    product.Price * int64(quantity),
			Options:     encoded,
		}
		if err := tx.Create(&item).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}

	if err := s.saveTotals(tx, cart); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cart update: %w", err)
	}
	return s.getOrCreate(s.db, ident)
}

// UpdateItem changes the quantity of an existing cart line.
func (s *Service) UpdateItem(ident identity.Identity, itemID uint, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, errs.Validation("quantity must be a positive integer, got %d", quantity)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	cart, err := s.getOrCreate(tx, ident)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	var line *CartItem
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			line = &cart.Items[i]
			break
		}
	}
	if line == nil {
		tx.Rollback()
		return nil, errs.ErrNotFound
	}

	var product catalog.Product
	if err := tx.Where("id = ? AND is_active = ?", line.ProductID, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tx.Rollback()
			return nil, errs.ErrNotFound
		}
		tx.Rollback()
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	cumulative := cart.QuantityOf(line.ProductID) - line.Quantity + quantity
	if !product.InStock(cumulative) {
		tx.Rollback()
		return nil, &errs.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Quantity,
			Requested:   cumulative,
		}
	}

	line.Quantity = quantity
	line.Subtotal = line.Price * int64(quantity)
	if err := tx.Save(line).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	if err := s.saveTotals(tx, cart); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cart update: %w", err)
	}
	return s.getOrCreate(s.db, ident)
}

// RemoveItem deletes a single line from the cart.
func (s *Service) RemoveItem(ident identity.Identity, itemID uint) (*Cart, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	cart, err := s.getOrCreate(tx, ident)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	found := false
	remaining := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		remaining = append(remaining, item)
	}
	if !found {
		tx.Rollback()
		return nil, errs.ErrNotFound
	}

	if err := tx.Where("id = ? AND cart_id = ?", itemID, cart.ID).Delete(&CartItem{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}
	cart.Items = remaining

	if err := s.saveTotals(tx, cart); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cart update: %w", err)
	}
	return s.getOrCreate(s.db, ident)
}

// Clear removes all items and the coupon from the cart.
func (s *Service) Clear(ident identity.Identity) (*Cart, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	cart, err := s.getOrCreate(tx, ident)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := s.clearInTx(tx, cart); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cart clear: %w", err)
	}
	return s.getOrCreate(s.db, ident)
}

// ClearInTx empties a cart inside the caller's transaction. Used by checkout
// so the cart clear commits together with the order.
func (s *Service) ClearInTx(tx *gorm.DB, cart *Cart) error {
	return s.clearInTx(tx, cart)
}

func (s *Service) clearInTx(tx *gorm.DB, cart *Cart) error {
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	cart.Items = nil
	cart.CouponCode = nil
	return s.saveTotals(tx, cart)
}

// ApplyCoupon records a coupon on the cart and recomputes the discount.
func (s *Service) ApplyCoupon(ident identity.Identity, code string) (*Cart, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	cart, err := s.getOrCreate(tx, ident)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if cart.IsEmpty() {
		tx.Rollback()
		return nil, errs.ErrEmptyCart
	}

	// Validate against the policy before storing the code.
	if _, err := s.coupons.Discount(code, cart.Subtotal); err != nil {
		tx.Rollback()
		return nil, err
	}
	cart.CouponCode = &code

	if err := s.saveTotals(tx, cart); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit coupon: %w", err)
	}
	return s.getOrCreate(s.db, ident)
}

// RemoveCoupon drops the coupon and recomputes totals.
func (s *Service) RemoveCoupon(ident identity.Identity) (*Cart, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	cart, err := s.getOrCreate(tx, ident)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	cart.CouponCode = nil

	if err := s.saveTotals(tx, cart); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit coupon removal: %w", err)
	}
	return s.getOrCreate(s.db, ident)
}

// MergeGuestCart folds an anonymous session cart into the user's cart at
// login. Matching product+options lines sum quantities, unmatched lines
// transfer, and the guest cart is deleted.
func (s *Service) MergeGuestCart(sessionID string, userID uint) (*Cart, error) {
	if sessionID == "" {
		return nil, errs.Validation("session id is required")
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var guest Cart
	err := tx.Preload("Items").Where("session_id = ?", sessionID).First(&guest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return s.getOrCreate(s.db, identity.ForUser(userID, false))
	}
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to load guest cart: %w", err)
	}

	userCart, err := s.getOrCreate(tx, identity.ForUser(userID, false))
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, guestItem := range guest.Items {
		if line := userCart.FindLine(guestItem.ProductID, guestItem.Options); line != nil {
			line.Quantity += guestItem.Quantity
			line.Subtotal = line.Price * int64(line.Quantity)
			if err := tx.Save(line).Error; err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("failed to merge cart item: %w", err)
			}
			if err := tx.Delete(&CartItem{}, guestItem.ID).Error; err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("failed to delete merged guest item: %w", err)
			}
		} else {
			if err := tx.Model(&CartItem{}).Where("id = ?", guestItem.ID).
				Update("cart_id", userCart.ID).Error; err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("failed to transfer guest item: %w", err)
			}
			guestItem.CartID = userCart.ID
			userCart.Items = append(userCart.Items, guestItem)
		}
	}

	if err := tx.Delete(&Cart{}, guest.ID).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to delete guest cart: %w", err)
	}

	if err := s.saveTotals(tx, userCart); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cart merge: %w", err)
	}
	return s.getOrCreate(s.db, identity.ForUser(userID, false))
}

// getOrCreate loads the identity's cart with items, creating it lazily.
func (s *Service) getOrCreate(tx *gorm.DB, ident identity.Identity) (*Cart, error) {
	var cart Cart
	query := tx.Preload("Items")
	if ident.Authenticated() {
		query = query.Where("user_id = ?", *ident.UserID)
	} else {
		query = query.Where("session_id = ?", ident.SessionID)
	}

	err := query.First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = Cart{ExpiresAt: time.Now().Add(s.config.Checkout.CartTTL)}
		if ident.Authenticated() {
			cart.UserID = ident.UserID
		} else {
			sessionID := ident.SessionID
			cart.SessionID = &sessionID
		}
		if err := tx.Create(&cart).Error; err != nil {
			return nil, fmt.Errorf("failed to create cart: %w", err)
		}
		return &cart, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &cart, nil
}

// saveTotals recomputes the discount and derived totals, then persists the
// cart header. Shipping stays zero until checkout quotes the destination.
func (s *Service) saveTotals(tx *gorm.DB, cart *Cart) error {
	var subtotal int64
	for i := range cart.Items {
		subtotal += cart.Items[i].Price * int64(cart.Items[i].Quantity)
	}

	var discount int64
	if cart.CouponCode != nil && subtotal > 0 {
		d, err := s.coupons.Discount(*cart.CouponCode, subtotal)
		if err != nil {
			return err
		}
		discount = d
	}

	cart.Recalculate(s.config.Checkout.TaxRate, cart.Shipping, discount)
	cart.ExpiresAt = time.Now().Add(s.config.Checkout.CartTTL)

	if err := tx.Model(&Cart{}).Where("id = ?", cart.ID).Updates(map[string]interface{}{
		"subtotal":    cart.Subtotal,
		"tax":         cart.Tax,
		"shipping":    cart.Shipping,
		"discount":    cart.Discount,
		"total":       cart.Total,
		"coupon_code": cart.CouponCode,
		"expires_at":  cart.ExpiresAt,
	}).Error; err != nil {
		return fmt.Errorf("failed to save cart totals: %w", err)
	}
	return nil
}

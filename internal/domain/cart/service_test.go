// internal/domain/cart/service_test.go
package cart

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/your-org/checkout-engine/internal/config"
	"github.com/your-org/checkout-engine/internal/domain/catalog"
	"github.com/your-org/checkout-engine/internal/domain/identity"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&catalog.Product{}, &Cart{}, &CartItem{}))

	cfg := &config.Config{
		Checkout: config.CheckoutConfig{
			TaxRate:            0.20,
			CouponDiscountRate: 0.10,
			CartTTL:            time.Hour,
		},
	}
	return NewService(db, cfg, NewRateCouponPolicy(cfg.Checkout.CouponDiscountRate)), db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price int64, quantity int) catalog.Product {
	t.Helper()
	p := catalog.Product{
		SKU:               uuid.New().String(),
		Name:              name,
		Slug:              uuid.New().String(),
		Price:             price,
		TrackInventory:    true,
		Quantity:          quantity,
		LowStockThreshold: 2,
		StockStatus:       catalog.StockStatusInStock,
		IsActive:          true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func assertTotalInvariant(t *testing.T, c *Cart) {
	t.Helper()
	assert.Equal(t, c.Subtotal+c.Tax+c.Shipping-c.Discount, c.Total,
		"total must equal subtotal + tax + shipping - discount")
}

func TestAddItemComputesTotals(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, "T-Shirt", 1999, 10)
	ident := identity.ForUser(1, false)

	c, err := svc.AddItem(ident, p.ID, 2, nil)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, int64(3998), c.Subtotal)
	assert.Equal(t, int64(800), c.Tax) // 20% of 39.98, rounded
	assert.Equal(t, int64(0), c.Shipping)
	assert.Equal(t, int64(0), c.Discount)
	assertTotalInvariant(t, c)
}

func TestAddItemMergesMatchingLines(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, "T-Shirt", 1999, 10)
	ident := identity.ForUser(1, false)

	_, err := svc.AddItem(ident, p.ID, 2, map[string]string{"size": "M"})
	require.NoError(t, err)
	c, err := svc.AddItem(ident, p.ID, 3, map[string]string{"size": "M"})
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.Equal(t, int64(1999*5), c.Items[0].Subtotal)
	assertTotalInvariant(t, c)
}

func TestAddItemKeepsDistinctOptionLines(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, "T-Shirt", 1999, 10)
	ident := identity.ForUser(1, false)

	_, err := svc.AddItem(ident, p.ID, 1, map[string]string{"size": "M"})
	require.NoError(t, err)
	c, err := svc.AddItem(ident, p.ID, 1, map[string]string{"size": "L"})
	require.NoError(t, err)

	assert.Len(t, c.Items, 2)
	assertTotalInvariant(t, c)
}

func TestAddItemValidatesCumulativeStock(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, "T-Shirt", 1999, 5)
	ident := identity.ForUser(1, false)

	_, err := svc.AddItem(ident, p.ID, 3, nil)
	require.NoError(t, err)

	// 3 already carted, 3 more exceeds the 5 available.
	_, err = svc.AddItem(ident, p.ID, 3, nil)
	var stockErr *errs.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 6, stockErr.Requested)
}

func TestAddItemRejectsInvalidQuantity(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, "T-Shirt", 1999, 5)
	ident := identity.ForUser(1, false)

	var validation *errs.ValidationError
	_, err := svc.AddItem(ident, p.ID, 0, nil)
	assert.True(t, errors.As(err, &validation))
	_, err = svc.AddItem(ident, p.ID, -2, nil)
	assert.True(t, errors.As(err, &validation))
}

func TestUpdateItemRecomputesTotals(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, "Mug", 899, 20)
	ident := identity.ForUser(1, false)

	c, err := svc.AddItem(ident, p.ID, 2, nil)
	require.NoError(t, err)

	c, err = svc.UpdateItem(ident, c.Items[0].ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Items[0].Quantity)
	assert.Equal(t, int64(899*4), c.Subtotal)
	assertTotalInvariant(t, c)
}

func TestRemoveItemAndClear(t *testing.T) {
	svc, db := setupService(t)
	p1 := seedProduct(t, db, "Mug", 899, 20)
	p2 := seedProduct(t, db, "Shirt", 1999, 20)
	ident := identity.ForUser(1, false)

	_, err := svc.AddItem(ident, p1.ID, 1, nil)
	require.NoError(t, err)
	c, err := svc.AddItem(ident, p2.ID, 1, nil)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)

	c, err = svc.RemoveItem(ident, c.Items[0].ID)
	require.NoError(t, err)
	assert.Len(t, c.Items, 1)
	assertTotalInvariant(t, c)

	c, err = svc.Clear(ident)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.Equal(t, int64(0), c.Total)
	assertTotalInvariant(t, c)
}

func TestRemoveItemNotFound(t *testing.T) {
	svc, _ := setupService(t)
	ident := identity.ForUser(1, false)

	_, err := svc.RemoveItem(ident, 12345)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestApplyAndRemoveCoupon(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, "Shirt", 10000, 10)
	ident := identity.ForUser(1, false)

	_, err := svc.AddItem(ident, p.ID, 2, nil)
	require.NoError(t, err)

	c, err := svc.ApplyCoupon(ident, "WELCOME")
	require.NoError(t, err)
	require.NotNil(t, c.CouponCode)
	assert.Equal(t, int64(2000), c.Discount) // 10% of 200.00
	assertTotalInvariant(t, c)

	c, err = svc.RemoveCoupon(ident)
	require.NoError(t, err)
	assert.Nil(t, c.CouponCode)
	assert.Equal(t, int64(0), c.Discount)
	assertTotalInvariant(t, c)
}

func TestApplyCouponOnEmptyCart(t *testing.T) {
	svc, _ := setupService(t)
	ident := identity.ForUser(1, false)

	_, err := svc.ApplyCoupon(ident, "WELCOME")
	assert.ErrorIs(t, err, errs.ErrEmptyCart)
}

func TestCouponDiscountSurvivesItemMutations(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, "Shirt", 10000, 10)
	ident := identity.ForUser(1, false)

	c, err := svc.AddItem(ident, p.ID, 1, nil)
	require.NoError(t, err)
	_, err = svc.ApplyCoupon(ident, "WELCOME")
	require.NoError(t, err)

	c, err = svc.AddItem(ident, p.ID, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), c.Discount) // recomputed against the new subtotal
	assertTotalInvariant(t, c)
}

func TestGuestCartMerge(t *testing.T) {
	svc, db := setupService(t)
	p1 := seedProduct(t, db, "Mug", 899, 50)
	p2 := seedProduct(t, db, "Shirt", 1999, 50)
	guest := identity.ForSession("session-abc")

	_, err := svc.AddItem(guest, p1.ID, 2, nil)
	require.NoError(t, err)
	_, err = svc.AddItem(guest, p2.ID, 1, nil)
	require.NoError(t, err)

	userIdent := identity.ForUser(42, false)
	_, err = svc.AddItem(userIdent, p1.ID, 1, nil)
	require.NoError(t, err)

	merged, err := svc.MergeGuestCart("session-abc", 42)
	require.NoError(t, err)

	require.Len(t, merged.Items, 2)
	assert.Equal(t, 3, merged.QuantityOf(p1.ID)) // 1 existing + 2 merged
	assert.Equal(t, 1, merged.QuantityOf(p2.ID))
	assertTotalInvariant(t, merged)

	// Guest cart is gone.
	var count int64
	require.NoError(t, db.Model(&Cart{}).Where("session_id = ?", "session-abc").Count(&count).Error)
	assert.Zero(t, count)
}

func TestMergeWithoutGuestCart(t *testing.T) {
	svc, _ := setupService(t)

	c, err := svc.MergeGuestCart("never-seen", 42)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
}

func TestCartResolutionIsPerIdentity(t *testing.T) {
	svc, db := setupService(t)
	p := seedProduct(t, db, "Mug", 899, 50)

	_, err := svc.AddItem(identity.ForUser(1, false), p.ID, 1, nil)
	require.NoError(t, err)
	_, err = svc.AddItem(identity.ForSession("s-1"), p.ID, 2, nil)
	require.NoError(t, err)

	userCart, err := svc.GetCart(identity.ForUser(1, false))
	require.NoError(t, err)
	sessionCart, err := svc.GetCart(identity.ForSession("s-1"))
	require.NoError(t, err)

	assert.NotEqual(t, userCart.ID, sessionCart.ID)
	assert.Equal(t, 1, userCart.QuantityOf(p.ID))
	assert.Equal(t, 2, sessionCart.QuantityOf(p.ID))
}

func TestEncodeOptionsIsCanonical(t *testing.T) {
	a := EncodeOptions(map[string]string{"size": "M", "color": "red"})
	b := EncodeOptions(map[string]string{"color": "red", "size": "M"})
	assert.Equal(t, a, b)
	assert.Empty(t, EncodeOptions(nil))
	assert.Equal(t, map[string]string{"size": "M", "color": "red"}, DecodeOptions(a))
}

// internal/domain/cart/entity.go
package cart

import (
	"encoding/json"
	"math"
	"time"
)

// Cart represents a shopping cart owned by a user or an anonymous session.
// Exactly one of UserID and SessionID is set. All monetary values are cents.
type Cart struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	UserID     *uint      `json:"user_id,omitempty" gorm:"index"`
	SessionID  *string    `json:"session_id,omitempty" gorm:"index;size:255"`
	Subtotal   int64      `json:"subtotal" gorm:"default:0"`
	Tax        int64      `json:"tax" gorm:"default:0"`
	Shipping   int64      `json:"shipping" gorm:"default:0"`
	Discount   int64      `json:"discount" gorm:"default:0"`
	Total      int64      `json:"total" gorm:"default:0"`
	CouponCode *string    `json:"coupon_code,omitempty" gorm:"size:100"`
	Items      []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName returns the table name for Cart model
func (Cart) TableName() string {
	return "carts"
}

// CartItem represents a single product line in a cart
type CartItem struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CartID      uint      `json:"cart_id" gorm:"not null;index"`
	ProductID   uint      `json:"product_id" gorm:"not null;index"`
	ProductName string    `json:"product_name" gorm:"not null;size:255"`
	ProductSKU  string    `json:"product_sku" gorm:"size:100"`
	Price       int64     `json:"price" gorm:"not null"` // Unit price snapshotted at add time
	Quantity    int       `json:"quantity" gorm:"not null"`
	Subtotal    int64     `json:"subtotal" gorm:"not null"`
	Options     string    `json:"options,omitempty" gorm:"type:text"` // Canonical JSON of variant options
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the table name for CartItem model
func (CartItem) TableName() string {
	return "cart_items"
}

// EncodeOptions canonicalizes variant options for line matching.
// json.Marshal sorts map keys, so equal option sets encode identically.
func EncodeOptions(options map[string]string) string {
	if len(options) == 0 {
		return ""
	}
	data, err := json.Marshal(options)
	if err != nil {
		return ""
	}
	return string(data)
}

// DecodeOptions parses the stored options back into a map.
func DecodeOptions(encoded string) map[string]string {
	if encoded == "" {
		return nil
	}
	var options map[string]string
	if err := json.Unmarshal([]byte(encoded), &options); err != nil {
		return nil
	}
	return options
}

// FindLine returns the item matching a product and option set, or nil.
func (c *Cart) FindLine(productID uint, encodedOptions string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].Options == encodedOptions {
			return &c.Items[i]
		}
	}
	return nil
}

// QuantityOf returns the quantity already carted for a product across all
// option variants. Stock checks validate the cumulative quantity.
func (c *Cart) QuantityOf(productID uint) int {
	total := 0
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			total += c.Items[i].Quantity
		}
	}
	return total
}

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Recalculate recomputes every derived total from the items.
// Tax applies to the full subtotal before discount.
func (c *Cart) Recalculate(taxRate float64, shipping, discount int64) {
	var subtotal int64
	for i := range c.Items {
		c.Items[i].Subtotal = c.Items[i].Price * int64(c.Items[i].Quantity)
		subtotal += c.Items[i].Subtotal
	}
	c.Subtotal = subtotal
	c.Tax = RoundCents(float64(subtotal) * taxRate)
	c.Shipping = shipping
	c.Discount = discount
	c.Total = c.Subtotal + c.Tax + c.Shipping - c.Discount
}

// RoundCents rounds a fractional cent amount to the nearest cent.
func RoundCents(amount float64) int64 {
	return int64(math.Round(amount))
}

// internal/domain/cart/coupon.go
package cart

import (
	"strings"

	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// CouponPolicy decides how much discount a coupon code grants on a subtotal.
// Validation of codes against a promotion catalog lives behind this interface.
type CouponPolicy interface {
	Discount(code string, subtotal int64) (int64, error)
}

// RateCouponPolicy grants a fixed fraction of the subtotal for any
// well-formed code. Stands in until a real promotion catalog exists.
type RateCouponPolicy struct {
	Rate float64
}

// NewRateCouponPolicy creates a flat-rate coupon policy
func NewRateCouponPolicy(rate float64) *RateCouponPolicy {
	return &RateCouponPolicy{Rate: rate}
}

// Discount computes the discount for a coupon code
func (p *RateCouponPolicy) Discount(code string, subtotal int64) (int64, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, errs.Validation("coupon code is required")
	}
	return RoundCents(float64(subtotal) * p.Rate), nil
}

// internal/domain/shipping/service.go
package shipping

import (
	"github.com/your-org/checkout-engine/internal/config"
)

// Service quotes shipping costs for a destination
type Service struct {
	config *config.Config
}

// NewService creates a new shipping service
func NewService(cfg *config.Config) *Service {
	return &Service{config: cfg}
}

// Quote returns the shipping cost in cents for a destination postal code.
// Orders at or above the free-shipping threshold ship free, everything else
// pays the flat fee. The postal code is accepted for future carrier-rate
// lookups but does not affect the flat policy.
func (s *Service) Quote(postalCode string, subtotal int64) int64 {
	_ = postalCode
	if subtotal >= s.config.Checkout.FreeShippingThreshold {
		return 0
	}
	return s.config.Checkout.FlatShippingFee
}

// internal/domain/shipping/service_test.go
package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/checkout-engine/internal/config"
)

func TestQuote(t *testing.T) {
	svc := NewService(&config.Config{
		Checkout: config.CheckoutConfig{
			FreeShippingThreshold: 10000,
			FlatShippingFee:       599,
		},
	})

	tests := []struct {
		name     string
		subtotal int64
		want     int64
	}{
		{"below threshold pays flat fee", 9999, 599},
		{"at threshold ships free", 10000, 0},
		{"above threshold ships free", 25000, 0},
		{"empty cart pays flat fee", 0, 599},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Quote("10115", tt.subtotal))
		})
	}
}

// internal/infrastructure/database/postgres/seeder.go
package postgres

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/checkout-engine/internal/config"
	"github.com/your-org/checkout-engine/internal/domain/catalog"
	"github.com/your-org/checkout-engine/internal/domain/user"
	"github.com/your-org/checkout-engine/internal/pkg/auth"
)

// SeedDevData inserts a demo admin account and a few products for local
// development. It is a no-op when any user already exists.
func SeedDevData(db *gorm.DB, cfg *config.Config) error {
	var count int64
	if err := db.Model(&user.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword("admin12345", cfg.Security.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}
	admin := user.User{
		Email:     "admin@example.com",
		Password:  hash,
		FirstName: "Admin",
		LastName:  "User",
		IsAdmin:   true,
		IsActive:  true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	products := []catalog.Product{
		{
			SKU:               "TSHIRT-BLK-M",
			Name:              "Black T-Shirt",
			Slug:              "black-t-shirt",
			Description:       "Classic black cotton t-shirt",
			Price:             1999,
			TrackInventory:    true,
			Quantity:          50,
			LowStockThreshold: 5,
			StockStatus:       catalog.StockStatusInStock,
			Weight:            0.2,
			IsActive:          true,
		},
		{
			SKU:               "MUG-WHT-STD",
			Name:              "Ceramic Mug",
			Slug:              "ceramic-mug",
			Description:       "White ceramic mug, 350ml",
			Price:             899,
			TrackInventory:    true,
			Quantity:          120,
			LowStockThreshold: 10,
			StockStatus:       catalog.StockStatusInStock,
			Weight:            0.4,
			IsActive:          true,
		},
		{
			SKU:            "GIFTCARD-50",
			Name:           "Gift Card 50",
			Slug:           "gift-card-50",
			Description:    "Digital gift card worth 50.00",
			Price:          5000,
			TrackInventory: false,
			StockStatus:    catalog.StockStatusInStock,
			IsActive:       true,
		},
	}
	for _, p := range products {
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.SKU, err)
		}
	}
	return nil
}

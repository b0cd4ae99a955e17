// internal/domain/user/service.go
package user

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/checkout-engine/internal/config"
	"github.com/your-org/checkout-engine/internal/pkg/auth"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// Service handles user registration and authentication
type Service struct {
	db     *gorm.DB
	config *config.Config
	jwt    *auth.JWTManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config, jwtManager *auth.JWTManager) *Service {
	return &Service{
		db:     db,
		config: cfg,
		jwt:    jwtManager,
	}
}

// TokenPair holds the issued access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates a new user account
func (s *Service) Register(email, password, firstName, lastName string) (*User, error) {
	if email == "" || password == "" {
		return nil, errs.Validation("email and password are required")
	}
	if len(password) < 8 {
		return nil, errs.Validation("password must be at least 8 characters")
	}

	var existing User
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, errs.Validation("email is already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := auth.HashPassword(password, s.config.Security.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := User{
		Email:     email,
		Password:  hash,
		FirstName: firstName,
		LastName:  lastName,
		IsActive:  true,
	}
	if err := s.db.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

// Login authenticates a user and issues a token pair
func (s *Service) Login(email, password string) (*User, *TokenPair, error) {
	var u User
	if err := s.db.Where("email = ? AND is_active = ?", email, true).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errs.ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !auth.CheckPassword(password, u.Password) {
		return nil, nil, errs.ErrUnauthorized
	}

	accessToken, err := s.jwt.GenerateToken(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwt.GenerateRefreshToken(u.ID, u.Email, u.IsAdmin)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	now := time.Now()
	u.LastLogin = &now
	if err := s.db.Model(&u).Update("last_login", now).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to record login: %w", err)
	}

	return &u, &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// GetUser loads a user by ID
func (s *Service) GetUser(id uint) (*User, error) {
	var u User
	if err := s.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

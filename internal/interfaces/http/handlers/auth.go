// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/checkout-engine/internal/domain/cart"
	"github.com/your-org/checkout-engine/internal/domain/user"
	"github.com/your-org/checkout-engine/internal/interfaces/http/middleware"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

// AuthHandler handles registration and login
type AuthHandler struct {
	users *user.Service
	carts *cart.Service
	log   *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *user.Service, carts *cart.Service, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{users: users, carts: carts, log: log}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new account
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request: %v", err))
		return
	}

	u, err := h.users.Register(req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

// Login authenticates and merges any anonymous cart into the user's cart.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errs.Validation("invalid request: %v", err))
		return
	}

	u, tokens, err := h.users.Login(req.Email, req.Password)
	if err != nil {
		if err == errs.ErrUnauthorized {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		respondError(c, err)
		return
	}

	if sessionID := c.GetHeader("X-Session-ID"); sessionID != "" {
		if _, err := h.carts.MergeGuestCart(sessionID, u.ID); err != nil {
			// Losing the guest cart should not block login.
			h.log.WithError(err).WithField("user_id", u.ID).Warn("guest cart merge failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": u, "tokens": tokens})
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(c *gin.Context) {
	ident, ok := middleware.GetIdentity(c)
	if !ok || !ident.Authenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	u, err := h.users.GetUser(*ident.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/your-org/checkout-engine/internal/interfaces/http/handlers"
	"github.com/your-org/checkout-engine/internal/interfaces/http/middleware"
	"github.com/your-org/checkout-engine/internal/pkg/auth"
)

// Handlers groups every handler the router mounts
type Handlers struct {
	Auth     *handlers.AuthHandler
	Product  *handlers.ProductHandler
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Order    *handlers.OrderHandler
	Payment  *handlers.PaymentHandler
	Health   *handlers.HealthHandler
}

// Setup mounts all API routes on the router
func Setup(router *gin.Engine, h Handlers, jwtManager *auth.JWTManager) {
	router.GET("/health", h.Health.Check)

	v1 := router.Group("/api/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.GET("/me", middleware.RequireAuth(jwtManager), h.Auth.Me)
	}

	products := v1.Group("/products")
	{
		products.GET("", h.Product.List)
		products.GET("/:id", h.Product.Get)
	}

	// Cart endpoints accept authenticated users and anonymous sessions.
	cart := v1.Group("/cart", middleware.OptionalAuth(jwtManager))
	{
		cart.GET("", h.Cart.Get)
		cart.POST("/items", h.Cart.AddItem)
		cart.PUT("/items/:itemId", h.Cart.UpdateItem)
		cart.DELETE("/items/:itemId", h.Cart.RemoveItem)
		cart.DELETE("", h.Cart.Clear)
		cart.POST("/coupon", h.Cart.ApplyCoupon)
		cart.DELETE("/coupon", h.Cart.RemoveCoupon)
	}

	checkout := v1.Group("/checkout", middleware.RequireAuth(jwtManager))
	{
		checkout.POST("", h.Checkout.Checkout)
	}

	orders := v1.Group("/orders", middleware.RequireAuth(jwtManager))
	{
		orders.GET("", h.Order.List)
		orders.GET("/:id", h.Order.Get)
		orders.POST("/:id/cancel", h.Order.Cancel)
		orders.GET("/:id/payments", h.Payment.History)
	}

	payments := v1.Group("/payments", middleware.RequireAuth(jwtManager))
	{
		payments.POST("", h.Payment.Process)
		payments.GET("/:id", h.Payment.Get)
	}

	admin := v1.Group("/admin", middleware.RequireAdmin(jwtManager))
	{
		admin.GET("/orders", h.Order.List)
		admin.POST("/orders/:id/confirm", h.Order.Confirm)
		admin.POST("/orders/:id/ship", h.Order.Ship)
		admin.POST("/orders/:id/deliver", h.Order.Deliver)
		admin.PUT("/orders/:id/status", h.Order.UpdateStatus)
		admin.POST("/orders/:id/notes", h.Order.AddNote)
		admin.GET("/orders/statistics", h.Order.Statistics)
		admin.POST("/payments/:id/confirm", h.Payment.ConfirmCashOnDelivery)
		admin.POST("/payments/:id/refund", h.Payment.Refund)
	}
}

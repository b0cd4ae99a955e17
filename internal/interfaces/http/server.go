// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/checkout-engine/internal/config"
	"github.com/your-org/checkout-engine/internal/domain/cart"
	"github.com/your-org/checkout-engine/internal/domain/catalog"
	"github.com/your-org/checkout-engine/internal/domain/checkout"
	"github.com/your-org/checkout-engine/internal/domain/inventory"
	"github.com/your-org/checkout-engine/internal/domain/order"
	"github.com/your-org/checkout-engine/internal/domain/payment"
	"github.com/your-org/checkout-engine/internal/domain/shipping"
	"github.com/your-org/checkout-engine/internal/domain/user"
	"github.com/your-org/checkout-engine/internal/interfaces/http/handlers"
	"github.com/your-org/checkout-engine/internal/interfaces/http/middleware"
	"github.com/your-org/checkout-engine/internal/interfaces/http/routes"
	"github.com/your-org/checkout-engine/internal/pkg/auth"
)

// Server wraps the HTTP server and its wiring
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	log        *logrus.Logger
}

// NewServer wires services, handlers and middleware into a ready server
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log *logrus.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	jwtManager := auth.NewJWTManager(cfg)

	ledger := inventory.NewGormLedger()
	couponPolicy := cart.NewRateCouponPolicy(cfg.Checkout.CouponDiscountRate)
	gateway := payment.NewSimulatedGateway()

	catalogSvc := catalog.NewService(db)
	cartSvc := cart.NewService(db, cfg, couponPolicy)
	shippingSvc := shipping.NewService(cfg)
	paymentSvc := payment.NewService(db, cfg, gateway)
	orderSvc := order.NewService(db, cfg, ledger)
	checkoutSvc := checkout.NewService(db, cfg, cartSvc, shippingSvc, ledger, paymentSvc)
	userSvc := user.NewService(db, cfg, jwtManager)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimit(redisClient, cfg))

	routes.Setup(router, routes.Handlers{
		Auth:     handlers.NewAuthHandler(userSvc, cartSvc, log),
		Product:  handlers.NewProductHandler(catalogSvc),
		Cart:     handlers.NewCartHandler(cartSvc),
		Checkout: handlers.NewCheckoutHandler(checkoutSvc, cartSvc, paymentSvc),
		Order:    handlers.NewOrderHandler(orderSvc),
		Payment:  handlers.NewPaymentHandler(paymentSvc),
		Health:   handlers.NewHealthHandler(db, redisClient),
	}, jwtManager)

	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		router: router,
		log:    log,
	}
}

// Start begins serving HTTP requests
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Package http provides the API server, its router and shared middleware.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/cuenty/fulfillment/internal/auth/http"
	authService "github.com/cuenty/fulfillment/internal/auth/service"
	automationHTTP "github.com/cuenty/fulfillment/internal/automation/http"
	"github.com/cuenty/fulfillment/internal/config"
	"github.com/cuenty/fulfillment/internal/metrics"
	orderHTTP "github.com/cuenty/fulfillment/internal/order/http"
	paymentHTTP "github.com/cuenty/fulfillment/internal/payment/http"
	webhookHTTP "github.com/cuenty/fulfillment/internal/webhook/http"
)

// Handlers groups the domain handlers mounted by SetupRouter.
type Handlers struct {
	Webhook    *webhookHTTP.WebhookHandler
	Payment    *paymentHTTP.PaymentHandler
	Order      *orderHTTP.OrderHandler
	Automation *automationHTTP.AutomationHandler
}

// Server is the API HTTP server.
type Server struct {
	db     *sql.DB
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new API server. Call SetupRouter before Start.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter builds the gin engine with every route. ctx bounds background
// middleware state such as the rate limiter cleanup.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	handlers Handlers,
	secretService authService.SecretService,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(RequestContextMiddleware())
	// the logger wraps recovery so recovered panics are logged as 500s
	router.Use(CustomLoggerMiddleware(s.logger))
	router.Use(gin.Recovery())

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	webhook := []gin.HandlerFunc{}
	if cfg.WebhookRateLimitEnabled {
		webhook = append(webhook, authHTTP.IPRateLimitMiddleware(
			ctx,
			cfg.WebhookRateLimitRequestsPerSec,
			cfg.WebhookRateLimitBurst,
			s.logger,
		))
	}
	webhook = append(webhook, handlers.Webhook.ReceiveHandler)
	router.POST("/payments/webhook", webhook...)

	if cfg.AdminTokenHash == "" {
		s.logger.Warn("ADMIN_TOKEN_HASH is empty - admin routes reject every request")
	}
	admin := router.Group("/")
	admin.Use(authHTTP.AdminAuthMiddleware(cfg.AdminTokenHash, secretService, s.logger))
	{
		payments := admin.Group("/payments")
		payments.GET("/transactions", handlers.Payment.ListTransactionsHandler)
		payments.GET("/transactions/:reference", handlers.Payment.GetTransactionHandler)
		payments.POST("/transactions/:reference/cancel", handlers.Payment.CancelTransactionHandler)
		payments.GET("/statistics", handlers.Payment.StatisticsHandler)

		orders := admin.Group("/orders")
		orders.POST("", handlers.Order.CreateOrderHandler)
		orders.GET("/:id", handlers.Order.GetOrderHandler)
		orders.POST("/:id/payments", handlers.Payment.CheckoutHandler)
		orders.POST("/:id/cancel", handlers.Order.CancelOrderHandler)

		workflows := admin.Group("/workflows")
		workflows.POST("", handlers.Automation.CreateWorkflowHandler)
		workflows.GET("", handlers.Automation.ListWorkflowsHandler)
		workflows.PUT("/:id/toggle", handlers.Automation.ToggleWorkflowHandler)
		workflows.GET("/:id/logs", handlers.Automation.ListLogsHandler)

		automation := admin.Group("/automation")
		automation.POST("/execute", handlers.Automation.ExecuteHandler)
		automation.GET("/statistics", handlers.Automation.StatisticsHandler)
	}

	s.router = router
	s.server.Handler = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves requests until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return fmt.Errorf("router not configured")
	}
	return listen(ctx, s.server, "http server", s.logger)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return stop(ctx, s.server, "http server", s.logger)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready only when the database answers a ping.
func (s *Server) readinessHandler(c *gin.Context) {
	database := "ok"
	if s.db == nil {
		database = "error"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.WarnContext(ctx, "readiness check failed", slog.Any("error", err))
			database = "error"
		}
	}

	if database != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": gin.H{"database": database},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": gin.H{"database": database},
	})
}

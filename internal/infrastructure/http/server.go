package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	handlers "github.com/spectra-metals/spectra-server/internal/adapter/handler/http"
	"github.com/spectra-metals/spectra-server/internal/config"
	"github.com/spectra-metals/spectra-server/internal/infrastructure/database"
	"github.com/spectra-metals/spectra-server/internal/middleware/auth"
	"github.com/spectra-metals/spectra-server/internal/usecase"
	"github.com/spectra-metals/spectra-server/internal/ws"
	"github.com/spectra-metals/spectra-server/pkg/logger"
	"github.com/stripe/stripe-go/v79"
	"go.uber.org/zap"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	repos  *database.Repositories
}

// Dependencies carries everything the routes need beyond the repositories.
type Dependencies struct {
	Repos       *database.Repositories
	Market      *usecase.MarketService
	Submissions *usecase.SubmissionService
	OTP         *usecase.OTPService
	Checkout    *usecase.CheckoutService
	Payments    *usecase.PaymentService
	Subs        *usecase.SubscriptionService
	Claims      *usecase.ClaimService
	Admin       *usecase.AdminService
	Images      handlers.ImageUploader
	Hub         *ws.Hub
}

func NewServer(cfg *config.Config, log *zap.Logger, deps *Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.NewErrorHandler(log)

	// Initialize Stripe
	stripe.Key = cfg.Service.Stripe.SecretKey

	// Middleware
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
	}))

	s := &Server{
		config: cfg,
		logger: log,
		echo:   e,
		repos:  deps.Repos,
	}
	s.setupRoutes(deps)
	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes(deps *Dependencies) {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	publishableKey := s.config.Service.Stripe.PublishableKey

	// Initialize handlers
	marketHandler := handlers.NewMarketHandler(s.logger, deps.Market)
	submissionHandler := handlers.NewSubmissionHandler(s.logger, deps.Submissions, deps.OTP, deps.Images)
	checkoutHandler := handlers.NewCheckoutHandler(s.logger, deps.Checkout)
	paymentHandler := handlers.NewPaymentHandler(s.logger, deps.Payments, publishableKey)
	subscriptionHandler := handlers.NewSubscriptionHandler(s.logger, deps.Subs, publishableKey)
	claimHandler := handlers.NewClaimHandler(s.logger, deps.Claims, deps.Images)
	adminHandler := handlers.NewAdminHandler(s.logger, deps.Admin)
	webhookHandler := handlers.NewWebhookHandler(s.logger, s.config.Service.Stripe.WebhookSecret, deps.Payments, deps.Subs)

	// Market data and live prices
	s.echo.GET("/data", marketHandler.GetData)
	s.echo.GET("/ws/prices", deps.Hub.Handle)

	// Submissions
	s.echo.GET("/api/sku-suggestions", submissionHandler.GetSKUSuggestions)
	s.echo.GET("/api/sku-data", submissionHandler.GetSKUData)
	s.echo.POST("/api/send-otp", submissionHandler.SendOTP)
	s.echo.POST("/api/verify-otp", submissionHandler.VerifyOTP)
	s.echo.POST("/submit-form", submissionHandler.SubmitForm)

	// Orders and checkout
	orders := s.echo.Group("/orders")
	orders.GET("/checkout/:id", checkoutHandler.GetCheckout)
	orders.POST("/checkout", checkoutHandler.CreateOrder)
	orders.GET("/payment/cancel", paymentHandler.GetPaymentCancel)
	orders.GET("/payment/:orderNumber", paymentHandler.GetPaymentPage)
	orders.POST("/process-payment", paymentHandler.ProcessPayment)
	orders.GET("/payment-success/:orderNumber", paymentHandler.GetPaymentSuccess)
	orders.GET("/payment-already-paid/:orderNumber", paymentHandler.GetPaymentAlreadyPaid)
	orders.GET("/sell-confirmation/:orderNumber", checkoutHandler.GetSellConfirmation)
	orders.POST("/sell-confirmation", checkoutHandler.ConfirmSell)
	orders.GET("/status/:orderNumber", checkoutHandler.GetOrderStatus)
	orders.GET("/:orderNumber", checkoutHandler.GetOrder)

	// Protection plans and claims
	s.echo.GET("/claim-policy/:email/:sku", subscriptionHandler.GetClaimPolicy)
	s.echo.POST("/create-subscription", subscriptionHandler.CreateSubscription)
	s.echo.POST("/retrieve-subscription-payment", subscriptionHandler.RetrieveSubscriptionPayment)
	s.echo.POST("/subscriptions/:id/cancel", subscriptionHandler.CancelSubscription)
	s.echo.GET("/my-subscriptions", subscriptionHandler.GetMySubscriptions)
	s.echo.POST("/claims/create", claimHandler.CreateClaim)
	s.echo.GET("/claims", claimHandler.GetClaims)

	// Admin routes; login and verify-token stay public
	admin := s.echo.Group("/admin")
	admin.POST("/login", adminHandler.Login)
	admin.POST("/verify-token", adminHandler.VerifyToken)

	jwtConfig := auth.JWTConfig{
		Secret: s.config.Service.Admin.JWTSecret,
		Logger: s.logger,
	}
	protected := admin.Group("", auth.JWTMiddleware(jwtConfig))
	protected.GET("/check-session", adminHandler.CheckSession)
	protected.GET("/dashboard", adminHandler.GetDashboard)

	// Webhook route (outside API versioning)
	s.echo.POST("/webhook", webhookHandler.HandleWebhook)
}

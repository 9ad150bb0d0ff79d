package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spectra-metals/spectra-server/internal/config"
	"github.com/spectra-metals/spectra-server/internal/infrastructure/database"
	"github.com/spectra-metals/spectra-server/internal/infrastructure/email"
	httpServer "github.com/spectra-metals/spectra-server/internal/infrastructure/http"
	"github.com/spectra-metals/spectra-server/internal/infrastructure/messaging"
	stripeProvider "github.com/spectra-metals/spectra-server/internal/infrastructure/provider/stripe"
	"github.com/spectra-metals/spectra-server/internal/infrastructure/storage"
	"github.com/spectra-metals/spectra-server/internal/pricefeed"
	"github.com/spectra-metals/spectra-server/internal/usecase"
	"github.com/spectra-metals/spectra-server/internal/ws"
	"github.com/spectra-metals/spectra-server/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		FilePath:    cfg.Log.FilePath,
		Development: cfg.Log.Development,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting service",
		zap.String("name", cfg.Service.Name),
		zap.String("environment", cfg.Service.Environment),
		zap.String("version", cfg.Service.Version),
	)

	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := database.SeedAdmin(db, &cfg.Service.Admin, zapLogger); err != nil {
		zapLogger.Fatal("Failed to seed admin account", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := messaging.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	feed := pricefeed.NewFeed(&cfg.PriceFeed, repos.Price, redisClient, cfg.Redis.PriceChannel, zapLogger)
	if err := feed.Start(ctx); err != nil {
		zapLogger.Fatal("Failed to start price feed", zap.Error(err))
	}

	hub := ws.NewHub(zapLogger)
	go hub.Run(ctx, redisClient, cfg.Redis.PriceChannel)

	imageStore, err := storage.NewImageStore(ctx, &cfg.Storage, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	mailer := email.NewSender(&cfg.SMTP, zapLogger)
	payments := stripeProvider.NewProvider(zapLogger)

	deps := &httpServer.Dependencies{
		Repos:       repos,
		Market:      usecase.NewMarketService(repos.Price, feed, zapLogger),
		Submissions: usecase.NewSubmissionService(repos.Submission, feed, zapLogger),
		OTP:         usecase.NewOTPService(repos.OTP, repos.Submission, mailer, zapLogger),
		Checkout:    usecase.NewCheckoutService(repos.Submission, repos.Order, zapLogger),
		Payments:    usecase.NewPaymentService(repos.Order, payments, zapLogger),
		Subs: usecase.NewSubscriptionService(
			repos.Subscription,
			repos.Submission,
			payments,
			&cfg.Service.Plans,
			cfg.Service.Stripe.ProtectionProductID,
			zapLogger,
		),
		Claims: usecase.NewClaimService(repos.Claim, repos.Subscription, zapLogger),
		Admin: usecase.NewAdminService(
			repos.Admin,
			repos.Submission,
			repos.Order,
			repos.Subscription,
			repos.Claim,
			&cfg.Service.Admin,
			zapLogger,
		),
		Images: imageStore,
		Hub:    hub,
	}

	server := httpServer.NewServer(cfg, zapLogger, deps)

	go func() {
		if err := server.Start(); err != nil {
			zapLogger.Error("Server stopped", zap.Error(err))
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		zapLogger.Info("Shutdown signal received")
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shut down server cleanly", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Jaewhee/fedex-proxy/internal/carrier"
	"github.com/Jaewhee/fedex-proxy/internal/config"
	"github.com/Jaewhee/fedex-proxy/internal/handler"
	"github.com/Jaewhee/fedex-proxy/internal/observability"
	"github.com/Jaewhee/fedex-proxy/internal/service"
	"github.com/Jaewhee/fedex-proxy/internal/shopify"
	"github.com/Jaewhee/fedex-proxy/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Local development convenience; real deployments supply env directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	authProvider, err := carrier.NewAuthProvider(cfg.FedExAPIURL, cfg.FedExAPIKey, cfg.FedExSecretKey)
	if err != nil {
		logger.Fatal("carrier auth provider initialization failed", zap.Error(err))
	}

	trackClient, err := carrier.NewTrackClient(cfg.FedExAPIURL)
	if err != nil {
		logger.Fatal("carrier track client initialization failed", zap.Error(err))
	}

	shopifyClient, err := shopify.NewClient(cfg.ShopifyDomain, cfg.ShopifyAccessToken)
	if err != nil {
		logger.Fatal("order backend client initialization failed", zap.Error(err))
	}

	gateway, err := shopify.NewGateway(shopifyClient, logger)
	if err != nil {
		logger.Fatal("order gateway initialization failed", zap.Error(err))
	}

	reconciler, err := service.NewReconciler(gateway, authProvider, trackClient, logger)
	if err != nil {
		logger.Fatal("reconciler initialization failed", zap.Error(err))
	}
	reconciler.SetMetrics(metrics)

	app := transport.NewApp(logger)
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app)
	if err := handler.RegisterTrackingRoutes(app, reconciler, logger); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	go func() {
		logger.Info("fedex-proxy listening", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

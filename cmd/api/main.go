package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mypackmx/logistics-backend/api/controllers"
	"github.com/mypackmx/logistics-backend/api/routes"
	"github.com/mypackmx/logistics-backend/internal/auth"
	"github.com/mypackmx/logistics-backend/internal/branches"
	checkoutsvc "github.com/mypackmx/logistics-backend/internal/checkout"
	"github.com/mypackmx/logistics-backend/internal/pricing"
	routesvc "github.com/mypackmx/logistics-backend/internal/routes"
	"github.com/mypackmx/logistics-backend/internal/shipments"
	"github.com/mypackmx/logistics-backend/internal/users"
	stripewebhook "github.com/mypackmx/logistics-backend/internal/webhooks/stripe"
	"github.com/mypackmx/logistics-backend/pkg/auth/session"
	"github.com/mypackmx/logistics-backend/pkg/config"
	"github.com/mypackmx/logistics-backend/pkg/db"
	"github.com/mypackmx/logistics-backend/pkg/logger"
	"github.com/mypackmx/logistics-backend/pkg/metrics"
	"github.com/mypackmx/logistics-backend/pkg/outbox"
	"github.com/mypackmx/logistics-backend/pkg/redis"
	"github.com/mypackmx/logistics-backend/pkg/storage/gcs"
	"github.com/mypackmx/logistics-backend/pkg/stripe"
)

// Stripe retries webhooks for up to three days; the dedupe window outlives
// that comfortably.
const webhookGuardTTL = 7 * 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs client", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	shipmentMetrics := metrics.NewShipmentMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	shipmentsRepo := shipments.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	pricingService, err := pricing.NewService(pricing.NewRepository(dbClient.DB()), logg, shipmentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	shipmentService, err := shipments.NewService(shipmentsRepo, dbClient, outboxService, logg, shipmentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipments service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		checkoutsvc.NewRepository(dbClient.DB()),
		dbClient,
		pricingService,
		checkoutsvc.NewStripeClient(stripeClient),
		outboxService,
		logg,
		cfg.App.PublicURL,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	routeService, err := routesvc.NewService(routesvc.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create routes service", err)
		os.Exit(1)
	}

	branchService, err := branches.NewService(branches.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create branches service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookGuardTTL, "stripe-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	stripeWebhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		ShipmentsRepo:     shipmentsRepo,
		TransactionRunner: dbClient,
		Guard:             webhookGuard,
		Guides:            stripewebhook.NewGuideIssuer(gcsClient, cfg.App.PublicURL),
		Outbox:            outboxService,
		Logger:            logg,
		Metrics:           shipmentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	handler := routes.NewRouter(routes.Deps{
		Config:           cfg,
		Logger:           logg,
		SessionManager:   sessionManager,
		IdempotencyStore: redisClient,

		AuthService:     authService,
		PricingService:  pricingService,
		CheckoutService: checkoutService,
		ShipmentService: shipmentService,
		RouteService:    routeService,
		BranchService:   branchService,

		StripeClient:         stripeClient,
		StripeWebhookService: stripeWebhookService,

		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"gcs":      gcsClient,
		},
	})

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "error shutting down api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

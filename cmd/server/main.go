package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/app"
	"dispatch/internal/config"
	"dispatch/internal/handler"
	internalRedis "dispatch/internal/redis"
	"dispatch/internal/repository/postgres"
	"dispatch/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, dispatcher := wireServer(db, redisClient, nrApp, cfg)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	// Stop in-flight dispatch loops after the HTTP surface is closed.
	dispatcher.Stop()

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server and
// the dispatch coordinator, which the caller must stop on shutdown.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.DispatchCoordinator) {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	ruleRepo := postgres.NewRuleRepository(db)
	otpRepo := postgres.NewOTPRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	locationRepo := postgres.NewLocationRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService(notificationRepo)
	registry := service.NewLocationRegistry(userRepo, locationRepo, locationStore, cfg.Dispatch.LocationFreshness)
	fareCalculator := service.NewFareCalculator(ruleRepo, service.FractionIncentivePolicy{Fraction: cfg.Dispatch.IncentiveFraction})
	rewardEngine := service.NewRewardEngine(ruleRepo)
	lifecycle := service.NewRideStateMachine()
	dispatcher := service.NewDispatchCoordinator(
		cfg.Dispatch, rideRepo, userRepo, registry,
		fareCalculator, rewardEngine, lifecycle, lockStore, notificationService,
	)
	rideService := service.NewRideService(rideRepo, userRepo, dispatcher, fareCalculator, rewardEngine, lifecycle, notificationService)
	userService := service.NewUserService(userRepo)
	gateway := service.NewHMACGateway(cfg.Payment.KeyID, cfg.Payment.KeySecret)
	paymentService := service.NewPaymentReconciler(paymentRepo, rideRepo, gateway, notificationService)
	otpService := service.NewOTPService(otpRepo, userRepo, service.LogOTPSender{})

	// Initialize handlers.
	userHandler := handler.NewUserHandler(userService, notificationService)
	rideHandler := handler.NewRideHandler(rideService)
	driverHandler := handler.NewDriverHandler(registry, dispatcher)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	otpHandler := handler.NewOTPHandler(otpService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		UserHandler:    userHandler,
		RideHandler:    rideHandler,
		DriverHandler:  driverHandler,
		PaymentHandler: paymentHandler,
		OTPHandler:     otpHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, dispatcher
}

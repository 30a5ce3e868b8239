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

	"github.com/laura2ndrea/payment-links/internal/app"
	"github.com/laura2ndrea/payment-links/internal/config"
	"github.com/laura2ndrea/payment-links/internal/handler"
	internalRedis "github.com/laura2ndrea/payment-links/internal/redis"
	"github.com/laura2ndrea/payment-links/internal/repository/postgres"
	"github.com/laura2ndrea/payment-links/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic first so the database driver can be instrumented.
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
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, sweeper := wireServer(db, redisClient, nrApp, cfg)

	// The sweeper owns the CREATED -> EXPIRED edge; started and stopped
	// explicitly with the process.
	sweeper.Start()
	defer sweeper.Stop()

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

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// expiration sweeper.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.Sweeper) {
	// Redis stores.
	linkCache := internalRedis.NewLinkCache(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Repositories.
	merchantRepo := postgres.NewMerchantRepository(db)
	linkRepo := postgres.NewPaymentLinkRepository(db)
	attemptRepo := postgres.NewPaymentAttemptRepository(db)
	txManager := postgres.NewTxManager(db)

	// Services.
	references := service.NewReferenceGenerator()
	authService := service.NewAuthService(merchantRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	linkService := service.NewLinkService(linkRepo, merchantRepo, txManager, references, linkCache)
	paymentService := service.NewPaymentService(linkRepo, attemptRepo, txManager, linkCache)
	sweeper := service.NewSweeper(linkRepo, lockStore, nrApp, cfg.Sweep.Interval)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	linkHandler := handler.NewLinkHandler(linkService, paymentService)

	router := app.NewRouter(app.RouterDeps{
		AuthHandler:    authHandler,
		LinkHandler:    linkHandler,
		TokenValidator: authService,
		NewRelicApp:    nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, sweeper
}

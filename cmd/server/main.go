package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jcoder/internal/config"
	"jcoder/internal/handlers"
	"jcoder/internal/observability"
	"jcoder/internal/repository"
	"jcoder/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Setup Logger
	logger := observability.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Database
	db, err := repository.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// 4. Run Migrations
	if repository.IsPostgres(cfg.DatabaseURL) {
		logger.Info("Running database migrations...")
		if err := repository.RunMigrations(cfg.DatabaseURL, ""); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	} else if err := repository.AutoMigrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// 5. Initialize Redis (optional: lookups fall back to the database)
	var rdb *redis.Client
	if rdb, err = repository.InitRedis(cfg.RedisURL, cfg.RedisPassword, 0); err != nil {
		logger.Warn("Failed to connect to Redis, user cache disabled", "error", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// 6. Initialize Services
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	users := repository.NewUserRepository(db, rdb, cfg.UserCacheTTL, logger)
	auditService := services.NewAuditService(db, logger)
	geoIPService := services.NewGeoIPService(cfg, logger)
	authService := services.NewAuthService(db, users, auditService)
	viewService := services.NewViewService(db, users, geoIPService, metrics, logger)
	engagementService := services.NewEngagementService(db, users, metrics, logger)
	profileService := services.NewProfileService(db, users, auditService)
	qrService := services.NewQRService()

	rateLimiter := services.NewIPRateLimiter(5, 10, logger)
	trackViewLimiter := services.NewPerMinuteLimiter(cfg.TrackViewRatePerMinute, logger)

	scheduler := services.NewScheduler(logger)
	if err := scheduler.RegisterMaintenance(
		geoIPService, cfg.GeoIPUpdateSchedule,
		auditService, cfg.AuditRetentionDays, cfg.AuditCleanupSchedule,
	); err != nil {
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}

	// 7. Initialize Handler
	h := handlers.NewHandler(cfg, logger, authService, viewService, engagementService, profileService, qrService, metrics)

	// 8. Setup Router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := h.SetupRouter(rateLimiter, trackViewLimiter)

	// 9. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Background Context for workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	// Start Background Workers
	go auditService.Start(workerCtx)
	go geoIPService.Init(workerCtx)
	rateLimiter.StartCleanup(workerCtx, 10*time.Minute)
	trackViewLimiter.StartCleanup(workerCtx, 10*time.Minute)
	scheduler.Start()

	// Initializing server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for context cancellation or server error
	var runErr error
	select {
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	// Graceful shutdown timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	scheduler.Stop(shutdownCtx)
	workerCancel()

	logger.Info("Server exiting")
	return runErr
}

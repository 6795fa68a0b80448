package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/counterpos/pos-service/internal/api/handler"
	"github.com/counterpos/pos-service/internal/config"
	"github.com/counterpos/pos-service/internal/db"
	"github.com/counterpos/pos-service/internal/db/repository"
	"github.com/counterpos/pos-service/internal/logger"
	"github.com/counterpos/pos-service/internal/middleware"
	"github.com/counterpos/pos-service/internal/models"
	"github.com/counterpos/pos-service/internal/ratelimit"
	"github.com/counterpos/pos-service/internal/router"
	"github.com/counterpos/pos-service/internal/scheduler"
	"github.com/counterpos/pos-service/internal/service"
	"github.com/counterpos/pos-service/internal/telemetry"
	"github.com/counterpos/pos-service/internal/websockets"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	flush, err := logger.Init(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer flush()

	if err := run(cfg); err != nil {
		zap.L().Error("server exited with error", zap.Error(err))
		flush()
		os.Exit(1)
	}
	zap.L().Info("server exited properly")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(cfg.Telemetry, os.Stdout)
	if err != nil {
		return err
	}

	// Initialize database
	database, err := db.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	// Run database migrations
	if err := db.Migrate(cfg.Database); err != nil {
		return err
	}

	repos := repository.NewFactory(database.DB)

	location, err := cfg.Reports.LoadLocation()
	if err != nil {
		return err
	}

	var limiter service.LoginLimiter
	if cfg.Redis.Addr != "" {
		client, err := ratelimit.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			zap.L().Warn("login throttling disabled", zap.Error(err))
		} else {
			defer client.Close()
			limiter = ratelimit.New(client, cfg.LoginLimit.MaxAttempts, cfg.LoginLimit.WindowDuration())
		}
	}

	// Initialize WebSocket hub
	hub := websockets.NewHub()

	authService := service.NewAuthService(repos.User, limiter, service.JWTConfig{
		Secret:    cfg.JWT.Secret,
		ExpiresIn: cfg.JWT.ExpiresIn,
	})
	inventoryService := service.NewInventoryService(repos.Category, repos.Product, hub)
	orderService := service.NewOrderService(repos.Order, hub)
	receiptService := service.NewReceiptService(orderService, models.StoreDetails{
		Name:    cfg.Receipt.StoreName,
		Address: cfg.Receipt.Address,
		Contact: cfg.Receipt.Contact,
		TIN:     cfg.Receipt.TIN,
	})
	reportService := service.NewReportService(repos.Order, location)
	userService := service.NewUserService(repos.User, repos.Reference)

	jobs := scheduler.New(location, reportService)
	if err := jobs.AddDailyClose(cfg.Reports.DailyCloseCron); err != nil {
		return err
	}

	corsConfig := middleware.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxAge:         cfg.CORS.MaxAge,
	}
	upgrader := websockets.NewUpgrader(func(origin string) bool {
		return middleware.OriginAllowed(origin, cfg.CORS.AllowedOrigins)
	})

	// Initialize router
	r := router.New(router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Inventory: handler.NewInventoryHandler(inventoryService),
		Order:     handler.NewOrderHandler(orderService),
		Receipt:   handler.NewReceiptHandler(receiptService),
		Report:    handler.NewReportHandler(reportService),
		User:      handler.NewUserHandler(userService),
		Health:    handler.NewHealthHandler(database),
		WebSocket: handler.NewWebSocketHandler(hub, upgrader, authService),
	}, authService, router.Options{
		CORS:        corsConfig,
		ServiceName: cfg.Telemetry.ServiceName,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		zap.L().Info("server starting", zap.String("address", cfg.Server.Address), zap.String("mode", cfg.Server.Mode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	jobs.Start()

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")

		// Create shutdown context with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()

		if err := jobs.Stop(shutdownCtx); err != nil {
			zap.L().Warn("scheduler did not stop in time", zap.Error(err))
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			zap.L().Warn("failed to flush traces", zap.Error(err))
		}
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Platewise | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/platewise/backend/internal/admin"
	"github.com/platewise/backend/internal/auth"
	"github.com/platewise/backend/internal/billing"
	"github.com/platewise/backend/internal/config"
	"github.com/platewise/backend/internal/core"
	"github.com/platewise/backend/internal/establishment"
	"github.com/platewise/backend/internal/health"
	"github.com/platewise/backend/internal/inventory"
	"github.com/platewise/backend/internal/member"
	"github.com/platewise/backend/internal/middleware"
	"github.com/platewise/backend/internal/server"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	validate := validator.New(validator.WithRequiredStructEnabled())

	estRepo := establishment.NewRepository(db.DB)
	estSvc := establishment.NewService(estRepo)
	estHandler := establishment.NewHandler(estSvc, validate, logger)

	memberRepo := member.NewRepository(db.DB)
	memberSvc := member.NewService(db.DB, memberRepo, logger)
	memberHandler := member.NewHandler(memberSvc, validate, logger)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(authRepo, jwtManager, memberSvc, redis.Client)
	authHandler := auth.NewHandler(authSvc)

	inventoryRepo := inventory.NewRepository(db.DB)
	inventorySvc := inventory.NewService(db.DB, inventoryRepo, estSvc, logger)
	inventoryHandler := inventory.NewHandler(inventorySvc, validate, logger)

	stripeGateway := billing.NewStripeGateway(cfg.Stripe)
	billingSvc := billing.NewService(stripeGateway, estRepo, logger)
	billingHandler := billing.NewHandler(
		billingSvc,
		memberSvc,
		cfg.Stripe.WebhookSecret,
		logger,
	)

	healthHandler := health.NewHandler()
	healthHandler.AddChecker("database", db)
	healthHandler.AddChecker("redis", redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:             db.Stats,
		RedisStats:          redis.PoolStats,
		DBPing:              db.Ping,
		RedisPing:           redis.Ping,
		CountEstablishments: estRepo.Count,
		CountMembers:        memberRepo.CountActive,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())
	router.Post("/webhooks/stripe", billingHandler.Webhook)

	// authSvc layers the logout blacklist and token-version check on top of
	// the JWT manager's signature verification.
	authenticator := middleware.Authenticator(authSvc)
	adminOnly := middleware.RequireAdmin
	planLimiter := middleware.PlanRateLimiter(
		redis.Client,
		middleware.DefaultPlans,
		estSvc.PlanFor,
	)

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(planLimiter)

			r.Route("/team", memberHandler.RegisterTeamRoutes)
			r.Route("/presence", memberHandler.RegisterPresenceRoutes)
			r.Route("/establishment", estHandler.RegisterRoutes)
			r.Route("/inventory", inventoryHandler.RegisterRoutes)
			r.Route("/billing", billingHandler.RegisterRoutes)
		})

		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/lorrc/service-desk-kpi/internal/adapters/primary/http"
	mw "github.com/lorrc/service-desk-kpi/internal/adapters/primary/http/middleware"
	"github.com/lorrc/service-desk-kpi/internal/adapters/secondary/cache"
	"github.com/lorrc/service-desk-kpi/internal/adapters/secondary/postgres"
	"github.com/lorrc/service-desk-kpi/internal/auth"
	"github.com/lorrc/service-desk-kpi/internal/config"
	"github.com/lorrc/service-desk-kpi/internal/core/ports"
	"github.com/lorrc/service-desk-kpi/internal/core/services"
	"github.com/lorrc/service-desk-kpi/internal/infrastructure/logging"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})
	slog.SetDefault(logger)

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	// 3. Initialize Database Pool
	ctx := context.Background()
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.Database.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")

	// 4. Report Cache
	healthCheckers := map[string]httpAdapter.HealthChecker{"database": pool}
	var reportCache ports.ReportCache = cache.NopCache{}
	cacheTTL := time.Duration(0)

	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(cache.Options{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		defer func() {
			if err := redisCache.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		}()

		// The cache is optional; an unreachable Redis only degrades health.
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis ping failed, reports will be computed uncached", "addr", cfg.Redis.Addr, "error", err)
		} else {
			logger.Info("redis connection established", "addr", cfg.Redis.Addr)
		}

		reportCache = redisCache
		cacheTTL = cfg.Report.CacheTTL
		healthCheckers["redis"] = redisCache
	}

	// 5. Initialize Rate Limiters
	var generalRateLimiter, reportRateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		trustedProxies, err := mw.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
		if err != nil {
			logger.Error("invalid trusted proxies", "error", err)
			os.Exit(1)
		}

		generalRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
			TrustedProxies:    trustedProxies,
		})
		defer generalRateLimiter.Stop()

		reportRateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.ReportRPS,
			BurstSize:         cfg.RateLimit.ReportBurst,
			CleanupInterval:   time.Minute,
			TTL:               5 * time.Minute,
			TrustedProxies:    trustedProxies,
		})
		defer reportRateLimiter.Stop()
	}

	// 6. Dependency Injection (Wiring the Hexagon)
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	errorHandler := httpAdapter.NewErrorHandler(logger)

	// Repositories (Secondary Adapters)
	ticketReportRepo := postgres.NewTicketReportRepository(pool)
	authzRepo := postgres.NewAuthorizationRepository(pool)

	// Services (Core)
	authzService := services.NewAuthorizationService(authzRepo)
	reportService := services.NewReportService(
		ticketReportRepo,
		authzService,
		reportCache,
		ports.SystemClock{},
		logger,
		services.ReportConfig{
			Rules:    cfg.Report.SLARules,
			Location: cfg.Report.Location,
			CacheTTL: cacheTTL,
		},
	)

	logger.Info("sla rules loaded",
		"rules", cfg.Report.SLARules.Fingerprint(),
		"timezone", cfg.Report.TimezoneName,
	)

	// Handlers (Primary Adapters)
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		Logger:         logger,
		TokenManager:   tokenManager,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimiter:    generalRateLimiter,
		ReportLimiter:  reportRateLimiter,
		Health:         httpAdapter.NewHealthHandler(cfg.App.Version, healthCheckers),
		Me:             httpAdapter.NewMeHandler(authzService, errorHandler, logger),
		Reports:        httpAdapter.NewReportHandler(reportService, errorHandler, logger),
	})

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return
	}

	logger.Info("server shutdown complete")
}

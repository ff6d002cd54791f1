// Command server runs the Syrotech account API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/syrotech/backend/internal/auth"
	"github.com/syrotech/backend/internal/config"
	"github.com/syrotech/backend/internal/health"
	"github.com/syrotech/backend/internal/logger"
	"github.com/syrotech/backend/internal/metrics"
	appmw "github.com/syrotech/backend/internal/middleware"
	"github.com/syrotech/backend/internal/repository"
)

// Version is set at build time
var Version = "dev"

func main() {
	log := logger.New(logger.DefaultConfig())
	slog.SetDefault(log)

	cfg := config.Load()
	if cfg.JWT.Secret == "" {
		log.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	dbPool, err := setupDatabase(cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	userRepo := repository.NewUserRepository(dbPool)

	tokenService := auth.NewTokenService(auth.TokenServiceConfig{
		Secret:      cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.TokenExpiry,
		Issuer:      cfg.JWT.Issuer,
	})
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	lockout := auth.NewLockoutPolicy(userRepo, cfg.Auth.LockoutThreshold, cfg.Auth.LockoutDuration)

	accountService := auth.NewAccountService(userRepo, hasher, tokenService, lockout, log)
	accountHandler := auth.NewHandler(accountService, log)

	gateway := appmw.NewAuthGateway(tokenService, userRepo, log)
	rateLimiter := appmw.NewAPIRateLimiter(100, 15*time.Minute)

	healthHandler := health.NewHandler(health.Config{
		DBPool:  dbPool,
		Version: Version,
	})

	dbStats := metrics.NewDBStatsCollector(dbPool, log)
	dbStats.Start(15 * time.Second)
	defer dbStats.Stop()

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(appmw.NewLoggingMiddleware(log).Handler)
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://syrotech.com", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", welcome)
	r.Get("/health", healthHandler.Health)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Get("/health/live", healthHandler.Liveness)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimiter.Handler)
		auth.RegisterRoutes(r, accountHandler, gateway.Authenticate)
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	healthHandler.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server exited")
}

// welcome answers the API index route
func welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Welcome to Syrotech API",
		"version": Version,
		"endpoints": map[string]string{
			"health":   "/health",
			"register": "/api/auth/register",
			"login":    "/api/auth/login",
			"profile":  "/api/auth/profile",
			"verify":   "/api/auth/verify",
		},
	})
}

// setupDatabase creates and configures the database connection pool
func setupDatabase(cfg *config.Config, log *slog.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("connected to database",
		"db", cfg.Database.DBName,
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
	)
	return pool, nil
}

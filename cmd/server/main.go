package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/api"
	"storefront/internal/config"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/pkg/constraints"
	"storefront/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger.InitLogger(cfg.Server.Environment)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("application startup failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	// Redis is optional for the dev backend: it backs the refresh allow-list
	// and the rate limiter when configured.
	var sessions repository.SessionRepository = repository.NewMemorySessionRepository()
	var limiterStore redis.Scripter
	if cfg.Auth.SessionBackend == "redis" {
		rdb, err := initRedis(cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		sessions = repository.NewRedisSessionRepository(rdb)
		limiterStore = rdb
	}

	authSvc := service.NewAuthService(repository.NewMemoryUserRepository(), sessions,
		cfg.Auth.SigningKey, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err := seedUsers(ctx, authSvc); err != nil {
		return err
	}

	signer := service.NewVNPaySigner(cfg.Payment.VNPayTmnCode, cfg.Payment.VNPaySecret,
		cfg.Payment.VNPayURL, cfg.Payment.VNPayReturnURL)

	r := api.RegisterRoutes(api.RouterConfig{
		Auth:              authSvc,
		Shop:              service.NewShopService(signer),
		Redis:             limiterStore,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		SecureCookies:     cfg.Server.SecureCookies,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", cfg.Server.Port),
			zap.String("env", cfg.Server.Environment),
			zap.String("sessions", cfg.Auth.SessionBackend),
			zap.Duration("access_ttl", cfg.Auth.AccessTokenTTL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited properly")
	return nil
}

// seedUsers creates the demo accounts the CLI and load test log in with.
func seedUsers(ctx context.Context, auth *service.AuthService) error {
	users := []struct {
		user     model.User
		password string
	}{
		{model.User{Username: "alice", Email: "alice@example.com", Name: "Alice Nguyen", ImageURL: "https://cdn.storefront.local/u/alice.png", Phone: "0912345678"}, "secret"},
		{model.User{Username: "admin", Email: "admin@example.com", Name: "Store Admin", Role: string(constraints.RoleAdmin)}, "admin123"},
	}
	for _, u := range users {
		if _, err := auth.SeedUser(ctx, u.user, u.password); err != nil {
			return fmt.Errorf("seed %s: %w", u.user.Username, err)
		}
	}
	return nil
}

func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

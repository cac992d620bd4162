package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/edupilot/edupilot/pkg/api"
	"github.com/edupilot/edupilot/pkg/auth"
	"github.com/edupilot/edupilot/pkg/config"
	"github.com/edupilot/edupilot/pkg/middleware"
	"github.com/edupilot/edupilot/pkg/observability"
	"github.com/edupilot/edupilot/pkg/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("configuration error")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, os.Stdout)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	db, err := postgres.Connect(cfg.Store)
	if err != nil {
		logger.WithError(err).Error("database connection failed")
		os.Exit(1)
	}
	defer db.Close()

	kv, err := postgres.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.WithError(err).Error("redis connection failed")
		os.Exit(1)
	}
	defer kv.Close()

	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		logger.WithError(err).Error("invalid bcrypt cost")
		os.Exit(1)
	}
	codec, err := auth.NewTokenCodec(cfg.Auth.SecretKey, cfg.Auth.Algorithm,
		cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		logger.WithError(err).Error("invalid token configuration")
		os.Exit(1)
	}

	users := postgres.NewUserStore(db, cfg.Store.Timeout)
	classes := postgres.NewClassStore(db, cfg.Store.Timeout)
	roles := auth.NewRoleCache(kv, users, cfg.Redis.Timeout, logger).WithMetrics(metrics)
	sessions := auth.NewSessionService(users, hasher, codec, logger).WithMetrics(metrics)

	server := api.NewServer(api.ServerConfig{
		Sessions:       sessions,
		Hasher:         hasher,
		Users:          users,
		Classes:        classes,
		Authenticator:  middleware.NewAuthenticator(codec, users, roles),
		RateLimiter:    middleware.NewRateLimiter(kv, cfg.Redis.Timeout, logger),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
		Metrics:        metrics,
	})

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.WithField("addr", addr).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server failed")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("shutdown failed")
		os.Exit(1)
	}
	logger.Info("server stopped")
}

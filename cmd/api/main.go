package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"merchant-acquirer/config"
	httpHandler "merchant-acquirer/internal/adapter/http/handler"
	mq "merchant-acquirer/internal/adapter/mq/kafka"
	pgStorage "merchant-acquirer/internal/adapter/storage/postgres"
	redisStorage "merchant-acquirer/internal/adapter/storage/redis"
	"merchant-acquirer/internal/core/ports"
	"merchant-acquirer/internal/metrics"
	"merchant-acquirer/internal/service"
	"merchant-acquirer/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Merchant Acquirer")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	counterRepo := pgStorage.NewCheckoutCounterRepo(pool)
	userRepo := pgStorage.NewPortalUserRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	pendingStore := redisStorage.NewPendingAliasStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Metrics
	registry := prometheus.NewRegistry()
	regMetrics := metrics.New(registry)

	// Alias registry channel (Kafka request/reply)
	writer := mq.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.CommandTopic)
	defer writer.Close()
	reader := mq.NewReader(cfg.Kafka.Brokers, cfg.Kafka.ReplyTopic, cfg.Kafka.GroupID)
	defer reader.Close()

	channel := mq.NewChannel(writer, reader, mq.ChannelConfig{
		ReplyTo:       cfg.Kafka.ReplyTopic,
		PendingTTL:    cfg.Kafka.PendingTTL,
		SweepInterval: cfg.Kafka.SweepInterval,
	}, regMetrics, log)

	go func() {
		if err := channel.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("alias channel stopped")
		}
	}()

	// Initialize core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	auditSvc := service.NewAuditService(auditRepo, log)

	// Initialize business services
	authSvc := service.NewAuthService(userRepo, hashSvc, tokenSvc, auditSvc, log)
	registrationSvc := service.NewRegistrationService(
		merchantRepo,
		counterRepo,
		auditSvc,
		channel,
		transactor,
		regMetrics,
		log,
	).WithPendingStore(pendingStore, cfg.Kafka.PendingTTL)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:         authSvc,
		RegistrationSvc: registrationSvc,
		AuditSvc:        auditSvc,
		TokenSvc:        tokenSvc,
		RateLimitStore:  rateLimitStore,
		HealthCheckers:  []ports.HealthChecker{pgHealth, redisHealth},
		MetricsGatherer: registry,
		Logger:          log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

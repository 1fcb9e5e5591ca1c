package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dangtuan21/hana-salon/internal/api/router"
	"github.com/dangtuan21/hana-salon/internal/backend"
	"github.com/dangtuan21/hana-salon/internal/booking"
	appconfig "github.com/dangtuan21/hana-salon/internal/config"
	"github.com/dangtuan21/hana-salon/internal/conversation"
	"github.com/dangtuan21/hana-salon/internal/observability/metrics"
	"github.com/dangtuan21/hana-salon/internal/session"
	"github.com/dangtuan21/hana-salon/pkg/logging"
)

func main() {
	// Local development convenience; the file is absent in deployed envs.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting hana-salon scheduling service",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session store: Redis when configured, otherwise in-memory with a
	// background sweeper standing in for Redis TTLs.
	var store session.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		store = session.NewRedisStore(client, cfg.SessionIdleTimeout)
		logger.Info("using redis session store", "addr", cfg.RedisAddr)
	} else {
		mem := session.NewMemoryStore(logger)
		go session.RunSweeper(ctx, mem, cfg.SweepInterval, cfg.SessionIdleTimeout, logger)
		store = mem
		logger.Info("using in-memory session store")
	}

	// Transcript archive is optional; without a database finished
	// conversations are simply dropped.
	var archive *session.TranscriptArchive
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		if err := db.PingContext(ctx); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		archive = session.NewTranscriptArchive(db)
		logger.Info("transcript archive enabled")
	}

	gateway := backend.NewClient(cfg.BackendBaseURL, backend.WithLogger(logger))

	hours := booking.BusinessHours{Open: cfg.BusinessOpen, Close: cfg.BusinessClose}
	resolver := booking.NewAvailabilityResolver(gateway, hours, logger)
	confirm := booking.NewConfirmationEngine(time.Now, logger)
	executor := booking.NewExecutor(gateway, resolver, confirm, logger)

	bookingMetrics := metrics.NewBookingMetrics(nil)

	engine := conversation.NewEngine(store, archive, executor, confirm, bookingMetrics, logger)
	conversationHandler := conversation.NewHandler(engine, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: conversationHandler,
		MetricsHandler:      promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

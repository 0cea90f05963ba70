package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Uttham-412/Whiteboard/internal/core/ports"
	"github.com/Uttham-412/Whiteboard/internal/core/services"
	"github.com/Uttham-412/Whiteboard/internal/infrastructure/monitoring"
	"github.com/Uttham-412/Whiteboard/internal/infrastructure/reliability"
	"github.com/Uttham-412/Whiteboard/internal/infrastructure/repositories/memory"
	redisrepo "github.com/Uttham-412/Whiteboard/internal/infrastructure/repositories/redis"
	wssignal "github.com/Uttham-412/Whiteboard/internal/infrastructure/signal"
	"github.com/Uttham-412/Whiteboard/pkg/circuitbreaker"
	"github.com/Uttham-412/Whiteboard/pkg/config"
	"github.com/Uttham-412/Whiteboard/pkg/logger"
	"github.com/Uttham-412/Whiteboard/pkg/tracing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/whiteboard/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error
	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			log.Printf("loaded config from %s", path)
			break
		}
	}
	if err != nil {
		log.Printf("no config file found, using defaults")
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	zlog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zlog.Sync()
	slog := zlog.Sugar()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		slog.Fatalw("failed to initialize tracing", "error", err)
	}

	// History store: Redis when configured, process memory otherwise. Either
	// way the circuit breaker keeps a flapping store from slowing the relay.
	var history ports.HistoryRepository
	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, slog)
		if err != nil {
			slog.Fatalw("failed to connect to Redis", "error", err)
		}
		defer redisrepo.CloseRedisClient(client)
		history = redisrepo.NewRedisHistoryRepository(client)
	} else {
		history = memory.NewHistoryRepository()
	}
	historyGuard := reliability.NewHistoryRepositoryWrapper(history, circuitbreaker.DefaultConfig(), slog)

	var metrics ports.RelayMetrics = ports.NopRelayMetrics{}
	if cfg.Monitoring.PrometheusEnabled {
		metrics = monitoring.NewPrometheusCollector()
	}

	registry := services.NewRegistry(historyGuard, metrics, slog)
	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	router := wssignal.NewRouter(registry, wssignal.Policy{
		NotifyUnknownTarget: cfg.Relay.NotifyUnknownTarget,
	}, slog)
	wsServer := wssignal.NewWebSocketServer(registry, router, authService, cfg, slog)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.HandleWebSocket)
	mux.HandleFunc("/health", wsServer.HealthCheck)
	if cfg.Monitoring.PrometheusEnabled {
		mux.Handle("/metrics", promhttp.Handler())
	}

	srv := &http.Server{
		Addr:    cfg.Signal.Address,
		Handler: mux,
	}

	go func() {
		slog.Infow("signaling server listening", "address", cfg.Signal.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Infow("shutting down signaling server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Signal.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Errorw("shutdown error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := tp.Shutdown(shutdownCtx); err != nil {
		slog.Errorw("tracing shutdown error", "error", err)
	}
}

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
	httphandlers "github.com/Uttham-412/Whiteboard/internal/handlers/http"
	"github.com/Uttham-412/Whiteboard/internal/infrastructure/middleware"
	"github.com/Uttham-412/Whiteboard/internal/infrastructure/monitoring"
	"github.com/Uttham-412/Whiteboard/internal/infrastructure/reliability"
	"github.com/Uttham-412/Whiteboard/internal/infrastructure/repositories/memory"
	redisrepo "github.com/Uttham-412/Whiteboard/internal/infrastructure/repositories/redis"
	"github.com/Uttham-412/Whiteboard/pkg/cache"
	"github.com/Uttham-412/Whiteboard/pkg/circuitbreaker"
	"github.com/Uttham-412/Whiteboard/pkg/config"
	"github.com/Uttham-412/Whiteboard/pkg/logger"
	"github.com/Uttham-412/Whiteboard/pkg/tracing"

	"github.com/gin-gonic/gin"
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
		ServiceName: cfg.Tracing.ServiceName + "-api",
		JaegerURL:   cfg.Tracing.JaegerURL,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		slog.Fatalw("failed to initialize tracing", "error", err)
	}

	var boards ports.BoardRepository
	var history ports.HistoryRepository
	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, slog)
		if err != nil {
			slog.Fatalw("failed to connect to Redis", "error", err)
		}
		defer redisrepo.CloseRedisClient(client)
		boards = redisrepo.NewRedisBoardRepository(client)
		history = redisrepo.NewRedisHistoryRepository(client)
	} else {
		boards = memory.NewBoardRepository()
		history = memory.NewHistoryRepository()
	}
	historyGuard := reliability.NewHistoryRepositoryWrapper(history, circuitbreaker.DefaultConfig(), slog)

	boardCache := cache.New(30 * time.Second)
	defer boardCache.Stop()

	authService := services.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	boardService := services.NewBoardService(boards, historyGuard, boardCache, slog)

	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddCheck("history_store", func(ctx context.Context) (bool, error) {
		_, err := historyGuard.Load(ctx, "healthcheck")
		return err == nil, err
	}, 2*time.Second)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.RecoveryMiddleware(slog),
		middleware.TracingMiddleware(),
		middleware.NewHTTPRateLimitMiddleware(cfg),
		middleware.ErrorHandlerMiddleware(slog),
	)

	httphandlers.NewAuthHandler(authService, cfg.Auth.AccessTokenTTL).SetupRoutes(engine)
	httphandlers.NewBoardHandler(boardService).SetupRoutes(engine, middleware.AuthMiddleware(authService))

	engine.GET("/health", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
	if cfg.Monitoring.PrometheusEnabled {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Infow("api server listening", "address", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Infow("shutting down api server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
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

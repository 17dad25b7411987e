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

	"gridcast/internal/core/domain"
	"gridcast/internal/core/services"
	httphandlers "gridcast/internal/handlers/http"
	"gridcast/internal/infrastructure/compositor"
	"gridcast/internal/infrastructure/events"
	"gridcast/internal/infrastructure/middleware"
	"gridcast/internal/infrastructure/monitoring"
	repositories "gridcast/internal/infrastructure/repositories"
	"gridcast/internal/infrastructure/storage"
	"gridcast/internal/infrastructure/streaming"
	"gridcast/pkg/config"
	"gridcast/pkg/logger"
	"gridcast/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/gridcast/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		cfg = config.Default()
	}

	zlog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.Tracing.Enabled {
		tp, err := tracing.Init(tracing.Config{
			Enabled:     true,
			ServiceName: cfg.Tracing.ServiceName,
			JaegerURL:   cfg.Tracing.JaegerURL,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			zlog.Fatalw("failed to init tracing", "error", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		}()
	}

	repoFactory, err := repositories.NewRepositoryFactory(cfg, zlog)
	if err != nil {
		zlog.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	sessionRepo := repoFactory.CreateSessionRepository()
	segmentRepo := repoFactory.CreateSegmentRepository()

	ctx := context.Background()

	sessionService := services.NewSessionService(ctx, sessionRepo, cfg.Session.MaxStreams, zlog)

	collector := monitoring.NewPrometheusCollector()
	collector.ObserveSession(sessionService.Snapshot())

	hub := events.NewHub(zlog)

	// Cross-instance event mirroring over Redis pub/sub, when available.
	var bus *events.EventBus
	if client := repoFactory.RedisClient(); client != nil {
		bus = events.NewEventBus(client, cfg.Session.Namespace, uuid.NewString(), zlog)
		go func() {
			if err := bus.Subscribe(ctx, hub.Broadcast); err != nil && !errors.Is(err, context.Canceled) {
				zlog.Warnw("event bus subscription ended", "error", err)
			}
		}()
		defer bus.Close()
	}

	broadcast := func(event domain.ChangeEvent) {
		hub.Broadcast(event)
		collector.SetEventClients(hub.ClientCount())
		if bus != nil {
			if err := bus.Publish(ctx, event); err != nil {
				zlog.Warnw("failed to publish event", "type", event.Type, "error", err)
			}
		}
	}

	sessionService.Subscribe(func(event domain.ChangeEvent) {
		collector.ObserveSession(sessionService.Snapshot())
		broadcast(event)
	})

	frames := streaming.NewPatternFrameSource(cfg.Compositor.Width, cfg.Compositor.Height, zlog)

	comp := compositor.New(compositor.Config{
		Width:        cfg.Compositor.Width,
		Height:       cfg.Compositor.Height,
		FrameRate:    cfg.Compositor.FrameRate,
		ShowLabels:   cfg.Compositor.ShowLabels,
		Watermark:    cfg.Compositor.Watermark,
		ChromeHeight: cfg.Compositor.ChromeHeight,
	}, sessionService, frames, collector.RecordCompositorTick, zlog)

	sink, err := storage.NewChunkStore(cfg.Recording.OutputPath, zlog)
	if err != nil {
		zlog.Fatalw("failed to create chunk store", "error", err)
	}
	quota := storage.NewDiskQuota(cfg.Recording.OutputPath, cfg.Recording.QuotaBytes)

	recorder := services.NewRecorderService(
		sessionService,
		comp.Output(),
		sink,
		segmentRepo,
		quota,
		cfg.Recording.TickInterval,
		broadcast,
		zlog,
	)

	health := monitoring.NewHealthChecker()
	if client := repoFactory.RedisClient(); client != nil {
		health.AddRedisCheck(client, 2*time.Second)
	}
	health.AddSegmentStoreCheck(segmentRepo, 2*time.Second)
	health.AddStorageQuotaCheck(quota, 2*time.Second)
	// idle (not yet started) counts as healthy; stopped does not
	health.AddCheck("compositor", func(ctx context.Context) (bool, error) {
		return comp.State() != compositor.StateStopped, nil
	}, time.Second)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(zlog))
	router.Use(middleware.ErrorHandlerMiddleware(zlog))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	httphandlers.NewSystemHandler(health, hub).SetupRoutes(router, cfg.Monitoring.PrometheusEnabled)

	api := router.Group("/api/v1")
	if cfg.Auth.Enabled {
		api.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
	}
	httphandlers.NewSessionHandler(sessionService).SetupRoutes(api)
	httphandlers.NewRecordingHandler(recorder).SetupRoutes(api)
	httphandlers.NewCompositorHandler(comp).SetupRoutes(api)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		zlog.Infof("Starting gridcast server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		zlog.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		zlog.Infow("Received shutdown signal", "signal", sig)
	}

	zlog.Info("Shutting down gridcast server...")

	// An in-flight recording is finalized, not abandoned.
	if recorder.Active() != nil {
		if _, err := recorder.Stop(ctx); err != nil {
			zlog.Errorw("Error stopping active recording", "error", err)
		}
	}
	if comp.State() == compositor.StateRunning {
		if err := comp.Stop(); err != nil {
			zlog.Errorw("Error stopping compositor", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			zlog.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		zlog.Info("Server shutdown gracefully")
	}

	if err := repoFactory.Close(); err != nil {
		zlog.Errorw("Error closing repository factory", "error", err)
	}

	zlog.Info("gridcast server stopped")
}

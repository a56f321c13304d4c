package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/vendaplan/backend/api/handler"
	"github.com/vendaplan/backend/internal/config"
	"github.com/vendaplan/backend/internal/infrastructure/buffer"
	"github.com/vendaplan/backend/internal/infrastructure/localstore"
	"github.com/vendaplan/backend/internal/infrastructure/monitor"
	pgInfra "github.com/vendaplan/backend/internal/infrastructure/postgres"
	redisInfra "github.com/vendaplan/backend/internal/infrastructure/redis"
	"github.com/vendaplan/backend/internal/middleware"
	"github.com/vendaplan/backend/internal/router"
	"github.com/vendaplan/backend/internal/services"
	"github.com/vendaplan/backend/internal/services/lifecycle"
	"github.com/vendaplan/backend/pkg/httpcontext"
	"github.com/vendaplan/backend/pkg/logger"
	"github.com/vendaplan/backend/repository/postgres"
	redisRepo "github.com/vendaplan/backend/repository/redis"
	maintenanceUC "github.com/vendaplan/backend/usecase/maintenance"
	scheduleUC "github.com/vendaplan/backend/usecase/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Service:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.RegisterCloser("redis", redisClient)

	localStore, err := localstore.Open(cfg.Local.CachePath)
	if err != nil {
		zapLogger.Fatal("failed to open local schedule store", zap.Error(err))
	}
	manager.RegisterCloser("localstore", localStore)

	pendingQueue, err := buffer.Open(cfg.Local.QueuePath, "pending_changes")
	if err != nil {
		zapLogger.Fatal("failed to open pending-change queue", zap.Error(err))
	}
	manager.RegisterCloser("queue", pendingQueue)

	mon := monitor.New(pool, redisClient, pendingQueue, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	profileRepo := postgres.NewProfileRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)
	archiveRepo := postgres.NewArchiveRepository(pool)
	snapshotCache := redisRepo.NewScheduleCache(redisClient, cfg.Snapshot.TTL)

	queueProcessor := services.NewQueueProcessor(
		pendingQueue,
		mon,
		activityRepo,
		snapshotCache,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Queue.SyncInterval,
			BatchSize:  cfg.Queue.BatchSize,
			MaxRetries: cfg.Queue.MaxRetry,
		},
	)
	queueProcessor.Start()
	manager.Register("queue_processor", func(ctx context.Context) error {
		queueProcessor.Stop(ctx)
		return nil
	})

	syncBridge := services.NewSyncBridge(queueProcessor)

	scheduleUseCase := scheduleUC.New(
		profileRepo,
		activityRepo,
		archiveRepo,
		localStore,
		snapshotCache,
		syncBridge,
		zapLogger,
	)
	maintenanceUseCase := maintenanceUC.New(activityRepo, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Schedule:    apiHandler.NewScheduleHandler(scheduleUseCase, ctxAdapter, zapLogger),
		Maintenance: apiHandler.NewMaintenanceHandler(maintenanceUseCase, ctxAdapter, zapLogger),
		Transfer:    apiHandler.NewTransferHandler(scheduleUseCase, ctxAdapter, zapLogger),
		Health:      apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

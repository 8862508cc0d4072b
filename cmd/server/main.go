package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-sync/config"
	"inventory-sync/internal/api"
	"inventory-sync/internal/broker"
	"inventory-sync/internal/gateway"
	"inventory-sync/internal/models"
	"inventory-sync/internal/redisclient"
	"inventory-sync/internal/service"
	"inventory-sync/internal/store"
	"inventory-sync/internal/syncqueue"
	"inventory-sync/internal/util"
	"inventory-sync/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting inventory sync service")

	if cfg.Observ.TracingEnabled {
		tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	var gw gateway.Gateway
	switch cfg.Gateway.Mode {
	case config.GatewayModeMemory:
		gw = gateway.NewMemory()
	default:
		if len(cfg.Gateway.Endpoints) == 0 {
			logger.Warn("No collection endpoints configured; every remote call will fail")
		}
		gw = gateway.NewHTTPClient(cfg.Gateway.Endpoints, cfg.Gateway.Timeout)
	}
	logger.Info("Gateway ready", zap.String("mode", cfg.Gateway.Mode), zap.Int("endpoints", len(cfg.Gateway.Endpoints)))

	var (
		storage   syncqueue.Storage
		db        *store.Store
		ready     func(ctx context.Context) error
		publisher = broker.FanoutPublisher{}
	)
	switch cfg.Queue.Backend {
	case config.BackendMemory:
		storage = syncqueue.NewMemoryStorage()
		logger.Warn("Queue storage is in memory; pending writes are lost on restart")
	case config.BackendRedis:
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Queue.StorageKey)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		storage = redisClient
		ready = func(ctx context.Context) error { return redisClient.GetClient().Ping(ctx).Err() }
		logger.Info("Redis connected")
	default:
		var err error
		db, err = store.NewStore(cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		storage = store.NewQueueStorage(db, cfg.Queue.StorageKey)
		ready = db.Ping
		publisher = append(publisher, broker.NewSyncLogPublisher(db))
		logger.Info("Database connected", zap.String("driver", cfg.Database.Driver))
	}

	var commands *broker.CommandPublisher
	var reconcileWorker *worker.ReconcileWorker
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSyncEvents)
		defer producer.Close()
		publisher = append(publisher, broker.NewSyncEventPublisher(producer))

		commandProducer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicCommands)
		defer commandProducer.Close()
		commands = broker.NewCommandPublisher(commandProducer)
		logger.Info("Kafka producers initialized")
	}

	queueOpts := []syncqueue.Option{
		syncqueue.WithInterTaskDelay(cfg.Queue.InterTaskDelay),
		syncqueue.WithRetryDelay(cfg.Queue.RetryDelay),
		syncqueue.WithStartupDelay(cfg.Queue.StartupDelay),
	}
	if len(publisher) > 0 {
		queueOpts = append(queueOpts, syncqueue.WithPublisher(publisher))
	}
	queue := syncqueue.New(gw, storage, queueOpts...)

	composer := service.NewComposer(queue)
	reconciler := service.NewReconciler(gw, queue)

	ctx := context.Background()
	if err := queue.Load(ctx); err != nil {
		logger.Fatal("Failed to load sync queue", zap.Error(err))
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicCommands, cfg.Kafka.ConsumerGroup)
		reconcileWorker = worker.NewReconcileWorker(consumer, reconciler)
		go func() {
			if err := reconcileWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Reconcile worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := api.Dependencies{
		Queue:       queue,
		Composer:    composer,
		Production:  service.NewProductionService(gw, composer),
		Sales:       service.NewSalesService(gw, composer),
		Reconciler:  reconciler,
		Balances:    service.NewBalanceService(gw),
		Diagnostics: service.NewDiagnostics(gw, models.Collections),
		Ready:       ready,
	}
	if db != nil {
		deps.History = db
	}
	if commands != nil {
		deps.Commands = commands
	}

	router := gin.New()
	handler := api.NewHandler(deps)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if reconcileWorker != nil {
		reconcileWorker.Stop()
	}

	if err := queue.Shutdown(shutdownCtx); err != nil {
		logger.Error("Sync queue did not stop cleanly", zap.Error(err))
	}
	logger.Info("Server exited", zap.Int("pending", queue.Pending()))
}

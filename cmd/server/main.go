package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/auth"
	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/store"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront")

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	ctx := context.Background()
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	if err := seedAdmin(ctx, db, cfg.Auth.SeedAdminEmail, cfg.Auth.SeedAdminPassword); err != nil {
		logger.Error("Failed to seed admin account", zap.Error(err))
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.VisitorTTL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicOrder))

	eventPublisher := broker.NewEventPublisher(producer)

	aggregator := service.NewCartAggregator(db, cfg.Business.FallbackCurrency, cfg.Business.AggregateConcurrency)
	checkout := service.NewCheckoutService(aggregator, db, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	orderConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	orderWorker := worker.NewOrderWorker(orderConsumer, db, redisClient, cfg.Business.FeedSize)
	go func() {
		if err := orderWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Order worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Dependencies{
		Catalog:     db,
		Aggregator:  aggregator,
		Checkout:    checkout,
		Visitors:    redisClient,
		Tokens:      auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL),
		Credentials: db,
		Orders:      db,
		Feed:        redisClient,
		FeedSize:    cfg.Business.FeedSize,
		Cookies: api.NewVisitorCookies(
			cfg.Server.SessionSecret,
			int(cfg.Redis.VisitorTTL.Seconds()),
			cfg.Server.Env == "production",
		),
		Readiness: []api.Pinger{db, redisClient},
	})
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
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := orderWorker.Stop(); err != nil {
		logger.Warn("Error stopping order worker", zap.Error(err))
	}

	logger.Info("Server exited")
}

// seedAdmin creates the configured admin account if it does not exist yet
func seedAdmin(ctx context.Context, db *store.Store, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	return db.CreateAdmin(ctx, &models.Admin{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
	})
}

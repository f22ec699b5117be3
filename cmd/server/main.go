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

	"anime-market/config"
	"anime-market/internal/api"
	"anime-market/internal/auth"
	"anime-market/internal/broker"
	"anime-market/internal/i18n"
	"anime-market/internal/redisclient"
	"anime-market/internal/service"
	"anime-market/internal/store"
	"anime-market/internal/util"
	"anime-market/internal/worker"

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
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	logger.Info("Starting anime market", zap.String("env", cfg.Server.Env), zap.String("port", cfg.Server.Port))

	tp, err := util.InitTracer("anime-market", cfg.Observ.JaegerEndpoint)
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

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

	translator, err := i18n.New(cfg.I18n.DefaultLanguage)
	if err != nil {
		logger.Fatal("Failed to load translations", zap.Error(err))
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	eventPublisher := broker.NewEventPublisher(producer)

	messageService := service.NewMessageService(db, translator, translator.Fallback())
	orderService := service.NewOrderService(db,
		service.WithCache(redisClient, cfg.Business.IdempotencyTTL(), cfg.Business.OrderCacheTTL()),
		service.WithEvents(eventPublisher),
		service.WithNotifier(messageService),
		service.WithRefundRestock(cfg.Business.RestockOnRefund),
	)
	eventHandler := service.NewOrderEventHandler(db, messageService)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	notificationWorker := worker.NewNotificationWorker(consumer, eventHandler)
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Notification worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Services{
		Orders:   orderService,
		Products: service.NewProductService(db),
		Users:    service.NewUserService(db, tokens),
		Messages: messageService,
		Admin:    service.NewAdminService(db),
		Reports:  service.NewReportService(db),
	}, tokens, translator)
	handler.AddReadinessCheck("postgres", db)
	handler.AddReadinessCheck("redis", redisClient)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
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
	if err := notificationWorker.Stop(); err != nil {
		logger.Error("Failed to stop notification worker", zap.Error(err))
	}

	logger.Info("Server exited")
}

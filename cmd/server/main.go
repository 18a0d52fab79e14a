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

	"storefront/config"
	"storefront/internal/api"
	"storefront/internal/broker"
	"storefront/internal/realtime"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/store"
	"storefront/internal/store/memstore"
	"storefront/internal/util"
	"storefront/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// rowStore is everything the services need from the database
type rowStore interface {
	service.ProductRepository
	service.CartRepository
	service.OrderRepository
	service.MessageRepository
	session.UserStore
	api.Pinger
}

func main() {

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env,
		util.WithLevel(cfg.Server.LogLevel),
		util.WithService("storefront", cfg.Server.Version)); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting storefront")

	tp, err := util.InitTracer(util.TracerConfig{
		ServiceName:    "storefront",
		ServiceVersion: cfg.Server.Version,
		Environment:    cfg.Server.Env,
		Endpoint:       cfg.Observ.JaegerEndpoint,
		SampleRatio:    cfg.Observ.TraceSampleRatio,
	})
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

	var db rowStore
	if cfg.Database.URL == "memory" {
		db = memstore.New()
		logger.Warn("Using in-memory store; data is lost on exit")
	} else {
		if cfg.Database.MigrateOnStart {
			if err := store.Migrate(cfg.Database.URL); err != nil {
				logger.Fatal("Failed to migrate database", zap.Error(err))
			}
			logger.Info("Database migrated")
		}

		pg, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer pg.Close()
		db = pg
		logger.Info("Database connected")
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicChanges)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicChanges))

	eventPublisher := broker.NewEventPublisher(producer)

	pricing := service.Pricing{
		FreeShippingThreshold: cfg.Business.FreeShippingThreshold,
		ShippingFee:           cfg.Business.ShippingFee,
	}

	productService := service.NewProductService(db, eventPublisher, cfg.Business.LowStockThreshold)
	cartService := service.NewCartService(db, eventPublisher)
	checkoutService := service.NewCheckoutService(db, redisClient, eventPublisher, pricing,
		cfg.Business.CheckoutLockTTL, cfg.Business.IdempotencyTTL)
	orderService := service.NewOrderService(db, eventPublisher)
	contactService := service.NewContactService(db, eventPublisher)

	sessions := session.NewManager(db, redisClient,
		session.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), cfg.Business.RoleCacheTTL)
	unsubscribe := sessions.Subscribe(func(e session.Event) {
		util.AuthEventsTotal.WithLabelValues(string(e.Type)).Inc()
		logger.Debug("Session event",
			zap.String("type", string(e.Type)),
			zap.String("user_id", e.Principal.UserID.String()))
	})
	defer unsubscribe()

	hub := realtime.NewHub(64)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	changeConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicChanges, cfg.Kafka.ConsumerGroup)
	changeWorker := worker.NewChangeFeedWorker(changeConsumer, hub)
	go func() {
		if err := changeWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			logger.Error("Change feed worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(api.Deps{
		Sessions: sessions,
		Products: productService,
		Cart:     cartService,
		Checkout: checkoutService,
		Orders:   orderService,
		Contact:  contactService,
		Hub:      hub,
		Readiness: map[string]api.Pinger{
			"database": db,
			"redis":    redisClient,
		},
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

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := changeWorker.Stop(); err != nil {
		logger.Warn("Error stopping change feed worker", zap.Error(err))
	}

	logger.Info("Server exited")
}

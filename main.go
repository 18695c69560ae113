package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bookstore-backend/controllers"
	"bookstore-backend/database"
	"bookstore-backend/logger"
	"bookstore-backend/repository"
	"bookstore-backend/routes"
	"bookstore-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		panic("config load failed: " + err.Error())
	}

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()
	log := logger.Log

	if err := database.Connect(log); err != nil {
		log.Fatal("DB connection failed", zap.Error(err))
	}
	defer database.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	} else {
		log.Warn("REDIS_ADDR not set, live new-book channel disabled")
	}

	// Repositories
	bookRepo := repository.NewGormBookRepository(database.DB)
	cartRepo := repository.NewGormCartRepository(database.DB)
	orderRepo := repository.NewGormOrderRepository(database.DB)
	subRepo := repository.NewGormSubscriptionRepository(database.DB)
	outboxRepo := repository.NewGormOutboxRepository(database.DB)

	// Services
	cartService := services.NewCartService(cartRepo, bookRepo, log)
	checkoutService := services.NewCheckoutService(cartService, orderRepo, cartRepo, outboxRepo, log)
	orderService := services.NewOrderService(orderRepo, outboxRepo, log)
	registry := services.NewPushRegistry(subRepo, log)
	sender := services.NewWebPushSender(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubscriber)
	dispatcher := services.NewPushDispatcher(sender, registry, log)
	composer := services.NewMessageComposer(cfg.OperatorPhone)

	operatorID := uuid.Nil
	if cfg.AdminUserID != "" {
		operatorID, err = uuid.Parse(cfg.AdminUserID)
		if err != nil {
			log.Fatal("ADMIN_USER_ID is not a valid UUID", zap.Error(err))
		}
	}

	worker := services.NewOutboxWorker(
		outboxRepo, orderRepo, bookRepo,
		registry, dispatcher, composer,
		services.NewLogSink(log),
		operatorID, cfg.PublicBaseURL,
		15*time.Second, log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go worker.Start(ctx)

	// Controllers
	ctl := routes.Controllers{
		Cart:     controllers.NewCartController(cartService, log),
		Checkout: controllers.NewCheckoutController(checkoutService, log),
		Order:    controllers.NewOrderController(orderService, log),
		AdminOrder: controllers.NewAdminOrderController(
			orderService, log,
		),
		Notification: controllers.NewNotificationController(
			registry, dispatcher, sender, bookRepo, redisClient, cfg.PublicBaseURL, log,
		),
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())
	routes.Register(r, cfg.JWTSecret, cfg.AdminEmail, ctl)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

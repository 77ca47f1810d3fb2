package main

import (
	"context"
	"fmt"
	"log"

	"github.com/screenpro/account-server/config"
	"github.com/screenpro/account-server/internal/api"
	"github.com/screenpro/account-server/internal/api/handler"
	"github.com/screenpro/account-server/internal/database"
	"github.com/screenpro/account-server/internal/integration/paddle"
	"github.com/screenpro/account-server/internal/pkg/authcode"
	"github.com/screenpro/account-server/internal/pkg/deeplink"
	"github.com/screenpro/account-server/internal/pkg/notify"
	"github.com/screenpro/account-server/internal/pkg/oauth"
	"github.com/screenpro/account-server/internal/pkg/pubsub"
	"github.com/screenpro/account-server/internal/pkg/queue"
	"github.com/screenpro/account-server/internal/pkg/ws"
	"github.com/screenpro/account-server/internal/repository"
	"github.com/screenpro/account-server/internal/service"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// Repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	eventRepo := repository.NewWebhookEventRepository(db)
	feedbackRepo := repository.NewCancelFeedbackRepository(db)

	// Shared infrastructure
	wsHub := ws.NewHub()
	webhookQueue := queue.NewQueue(rdb, cfg.Queue.WebhookQueue)
	notifier := notify.NewService(cfg.Notify.SlackWebhookURL)
	vendor := paddle.NewClient(cfg.Paddle.APIKey, cfg.Paddle.BaseURL)
	links := deeplink.NewBuilder(cfg.Deeplink.Scheme, cfg.Deeplink.UniversalLinkBase, cfg.Deeplink.WebBaseURL)

	codeTTL := cfg.Deeplink.CodeTTLSeconds
	if codeTTL <= 0 {
		codeTTL = 60
	}

	// Services
	authService := service.NewAuthService(
		userRepo, sessionRepo,
		oauth.NewRegistry(&cfg.OAuth),
		oauth.NewStateStore(rdb),
		authcode.NewStore(rdb, codeTTL),
		cfg,
	)
	subscriptionService := service.NewSubscriptionService(subRepo)
	planService := service.NewPlanService(subscriptionService, subRepo, vendor, cfg)
	deviceService := service.NewDeviceService(deviceRepo, subscriptionService)
	accountService := service.NewAccountService(userRepo, subRepo, feedbackRepo, vendor, notifier)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, subscriptionService, links)
	accountHandler := handler.NewAccountHandler(authService, accountService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService, planService, accountService, authService)
	deviceHandler := handler.NewDeviceHandler(deviceService)
	webhookHandler := handler.NewWebhookHandler(eventRepo, webhookQueue, cfg.Paddle.WebhookSecret)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	// The worker applies webhook events in its own process; updates
	// reach this one over pubsub. Drop the cached snapshot and nudge
	// any connected clients.
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.Subscribe(context.Background(), func(msg *pubsub.EntitlementMessage) {
			subscriptionService.Invalidate(msg.UserID)
			if err := wsHub.SendToUser(msg.UserID, &ws.Message{Type: msg.Type, Data: msg}); err != nil {
				log.Printf("Failed to push entitlement update to user %d: %v", msg.UserID, err)
			}
		})
		if err != nil && err != context.Canceled {
			log.Printf("Entitlement subscriber stopped: %v", err)
		}
	}()
	log.Println("Entitlement subscriber started")

	router := api.NewRouter(
		authHandler,
		accountHandler,
		subscriptionHandler,
		deviceHandler,
		webhookHandler,
		websocketHandler,
		cfg,
	)
	engine := router.Setup()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/screenpro/account-server/config"
	"github.com/screenpro/account-server/internal/api/handler"
	"github.com/screenpro/account-server/internal/api/middleware"
)

type Router struct {
	authHandler         *handler.AuthHandler
	accountHandler      *handler.AccountHandler
	subscriptionHandler *handler.SubscriptionHandler
	deviceHandler       *handler.DeviceHandler
	webhookHandler      *handler.WebhookHandler
	websocketHandler    *handler.WebSocketHandler
	cfg                 *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	accountHandler *handler.AccountHandler,
	subscriptionHandler *handler.SubscriptionHandler,
	deviceHandler *handler.DeviceHandler,
	webhookHandler *handler.WebhookHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:         authHandler,
		accountHandler:      accountHandler,
		subscriptionHandler: subscriptionHandler,
		deviceHandler:       deviceHandler,
		webhookHandler:      webhookHandler,
		websocketHandler:    websocketHandler,
		cfg:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", r.websocketHandler.Handle)

		// Vendor webhooks; authenticated by signature, not by session
		api.POST("/webhooks/paddle", r.webhookHandler.HandlePaddle)

		// Public auth endpoints
		auth := api.Group("/auth")
		{
			auth.GET("/signin/:provider", r.authHandler.SignIn)
			auth.GET("/callback", r.authHandler.Callback)
			auth.POST("/refresh", r.authHandler.Refresh)
			auth.POST("/exchange-code", r.authHandler.ExchangeCode)
		}

		// Authenticated endpoints
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			authenticated.POST("/auth/signout", r.authHandler.SignOut)
			authenticated.POST("/auth/generate-code", r.authHandler.GenerateCode)

			user := authenticated.Group("/user")
			{
				user.GET("/me", r.accountHandler.Me)
				user.DELETE("", r.accountHandler.Delete)
			}

			subscription := authenticated.Group("/subscription")
			{
				subscription.GET("", r.subscriptionHandler.Get)
				subscription.POST("/plan/preview", r.subscriptionHandler.Preview)
				subscription.POST("/plan/confirm", r.subscriptionHandler.Confirm)
				subscription.POST("/plan/lifetime-checkout", r.subscriptionHandler.LifetimeCheckout)
				subscription.POST("/reactivate", r.subscriptionHandler.Reactivate)
				subscription.GET("/portal", r.subscriptionHandler.Portal)
				subscription.POST("/cancel-feedback", r.subscriptionHandler.CancelFeedback)
			}

			device := authenticated.Group("/device")
			{
				device.GET("", r.deviceHandler.Get)
				device.POST("", r.deviceHandler.Activate)
				device.DELETE("", r.deviceHandler.Deactivate)
			}
		}
	}

	return engine
}

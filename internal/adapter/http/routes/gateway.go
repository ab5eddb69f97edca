package routes

import (
	"x402_gateway/internal/adapter/http/handlers"
	"x402_gateway/internal/adapter/http/middleware"
	"x402_gateway/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	PathWebhook     = "/webhook"
	PathDev         = "/dev"
	PathSettlements = "/settlements"
)

func newRouter(cfg config.Config, deps *dependencies, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(ServiceName))
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())

	healthHandler := handlers.NewHealthHandler(string(cfg.StoreBackend), deps.breakerState)
	webhookHandler := handlers.NewWebhookHandler(deps.settlements, cfg.WebhookSecret, logger)
	settlementHandler := handlers.NewSettlementHandler(deps.settlements, deps.worker, cfg.DevSettleEnabled, logger)
	resourceHandler := handlers.NewResourceHandler()

	router.GET("/metrics", middleware.PrometheusHandler())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", healthHandler.Health)
	router.POST(PathWebhook, webhookHandler.ReceiveSettlement)

	v1 := router.Group("/v1")
	v1.GET("/ping", healthHandler.Ping)
	addDevRoutes(v1, settlementHandler)
	addSettlementRoutes(v1, settlementHandler, middleware.RequireSession(deps.sessions))

	gateOpts := middleware.PaymentGateOptions{ResourceRootURL: cfg.ResourceRootURL}
	if cfg.ProcessInline {
		gateOpts.Worker = deps.worker
	}
	protected := router.Group(cfg.ProtectedPathPrefix, middleware.PaymentGate(deps.gate, gateOpts, logger))
	protected.GET("/*path", resourceHandler.Serve)

	return router
}

func addDevRoutes(rg *gin.RouterGroup, h *handlers.SettlementHandler) {
	dev := rg.Group(PathDev)
	{
		dev.POST("/settle", h.ManualSettle)
		dev.POST("/reconcile", h.Reconcile)
	}
}

func addSettlementRoutes(rg *gin.RouterGroup, h *handlers.SettlementHandler, session gin.HandlerFunc) {
	settlements := rg.Group(PathSettlements, session)
	{
		settlements.GET("", h.ListSettlements)
		settlements.GET("/:payment_attempt_id", h.GetSettlement)
	}
}

// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"bancaflow/internal/domain/auth"
	"bancaflow/internal/domain/catalog"
	"bancaflow/internal/domain/documents/delivery"
	"bancaflow/internal/domain/documents/returncall"
	"bancaflow/internal/domain/reports"
	"bancaflow/internal/domain/sales"
	"bancaflow/internal/infrastructure/http/v1/handlers"
	"bancaflow/internal/infrastructure/http/v1/middleware"
	"bancaflow/pkg/logger"
)

// RouterConfig holds everything the HTTP surface depends on.
type RouterConfig struct {
	Pool *pgxpool.Pool

	Logger *logger.Logger

	JWTValidator middleware.JWTValidator

	AuthService       *auth.Service
	CatalogService    *catalog.Service
	DeliveryService   *delivery.Service
	ReturnCallService *returncall.Service
	SalesService      *sales.Service
	ReportService     *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints, no auth required
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler()

	api := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(base, cfg.AuthService)

		public := api.Group("/auth")
		{
			public.POST("/register", authHandler.Register)
			public.POST("/login", authHandler.Login)
			public.POST("/refresh", authHandler.Refresh)
		}

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		registerCatalogRoutes(protected, base, cfg)
		registerDocumentRoutes(protected, base, cfg)
		registerSaleRoutes(protected, base, cfg)
		registerReportRoutes(protected, base, cfg)
	}

	return router
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewMagazineHandler(base, cfg.CatalogService)

	magazines := rg.Group("/magazines")
	{
		magazines.GET("", h.List)
		magazines.GET("/search", h.Search)
		magazines.GET("/barcode/:barcode", h.GetByBarcode)
		magazines.GET("/edition/:edition", h.GetByEdition)
		magazines.GET("/:id", h.Get)
		magazines.POST("/:id/barcode", h.RegisterBarcode)
		magazines.POST("/cover", h.UploadCover)
	}
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	deliveryHandler := handlers.NewDeliveryHandler(base, cfg.DeliveryService)
	returnHandler := handlers.NewReturnCallHandler(base, cfg.ReturnCallService)

	deliveries := rg.Group("/deliveries")
	{
		deliveries.POST("", deliveryHandler.Ingest)
		deliveries.GET("", deliveryHandler.List)
		deliveries.GET("/:id", deliveryHandler.Get)
	}

	returns := rg.Group("/returns")
	{
		returns.POST("", returnHandler.Ingest)
		returns.GET("", returnHandler.List)
		returns.GET("/:id", returnHandler.Get)
		returns.POST("/:id/confirm", returnHandler.Confirm)
	}
}

func registerSaleRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewSaleHandler(base, cfg.SalesService)

	salesGroup := rg.Group("/sales")
	{
		salesGroup.POST("", h.Record)
		salesGroup.GET("/recent", h.Recent)
	}
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewReportHandler(base, cfg.ReportService)

	reportsGroup := rg.Group("/reports")
	{
		reportsGroup.GET("/dashboard", h.Dashboard)
		reportsGroup.GET("/kpis", h.KPIs)
		reportsGroup.GET("/payments", h.Payments)
		reportsGroup.GET("/return-alerts", h.ReturnAlerts)
	}
}

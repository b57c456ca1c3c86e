// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"backoffice/internal/domain/cart"
	"backoffice/internal/domain/company"
	"backoffice/internal/domain/connection"
	"backoffice/internal/domain/refund"
	"backoffice/internal/domain/vendor"
	"backoffice/internal/domain/vendorproduct"
	"backoffice/internal/infrastructure/http/v1/handlers"
	"backoffice/internal/infrastructure/http/v1/middleware"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	Pool   *postgres.Pool
	Redis  *redis.Client
	Logger *logger.Logger

	TokenValidator middleware.TokenValidator

	// SettlementCallbackToken authenticates the settlement processor's
	// callback. Empty disables the check (local development).
	SettlementCallbackToken string

	// Idempotency guards the refund mutation routes against duplicate
	// submissions. Nil disables the middleware.
	Idempotency *postgres.IdempotencyStore

	Companies   *company.Service
	Vendors     *vendor.Service
	Connections *connection.Service
	Products    *vendorproduct.Service
	Refunds     *refund.Service
	Carts       *cart.Service
	Widgets     *cart.WidgetService
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

	base := handlers.NewBaseHandler()

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool, cfg.Redis)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	refundHandler := handlers.NewRefundHandler(base, cfg.Refunds)

	v1 := router.Group("/api/v1")
	{
		// Settlement provider posts payout outcomes here; authenticated
		// by a shared secret, not by a user token.
		v1.POST("/settlements/callback",
			middleware.SharedSecret("X-Callback-Token", cfg.SettlementCallbackToken),
			refundHandler.SettlementCallback)

		registerStorefrontRoutes(v1, base, cfg)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.TokenValidator))

		registerCompanyRoutes(protected, base, cfg)
		registerRefundRoutes(protected, refundHandler, cfg)
		registerAdminRoutes(protected, base, cfg)
	}

	return router
}

// registerStorefrontRoutes registers the session-keyed cart and widget
// endpoints consumed by site frontends.
func registerStorefrontRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	cartHandler := handlers.NewCartHandler(base, cfg.Carts)
	widgetHandler := handlers.NewWidgetHandler(base, cfg.Widgets)

	carts := rg.Group("/sites/:siteId/cart")
	{
		carts.GET("", cartHandler.Get)
		carts.POST("/items", cartHandler.AddItem)
		carts.PUT("/items/:productId", cartHandler.UpdateItem)
		carts.DELETE("/items/:productId", cartHandler.RemoveItem)
		carts.POST("/upsell", cartHandler.Upsell)
		carts.DELETE("", cartHandler.Clear)
	}

	widgets := rg.Group("/sites/:siteId/widgets")
	{
		widgets.GET("", widgetHandler.SiteWidgets)
		widgets.POST("/events", widgetHandler.RecordEvent)
	}
}

func registerCompanyRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	companyHandler := handlers.NewCompanyHandler(base, cfg.Companies)

	companies := rg.Group("/companies")
	{
		companies.GET("", companyHandler.List)
		companies.POST("", companyHandler.Create)
		companies.GET("/stats", companyHandler.Stats)
		companies.GET("/stats/export", companyHandler.Export)
		companies.GET("/:id", companyHandler.Get)
		companies.PUT("/:id", companyHandler.Update)
		companies.DELETE("/:id", companyHandler.Delete)
		companies.GET("/:id/sites", companyHandler.ListSites)
	}
}

func registerRefundRoutes(rg *gin.RouterGroup, refundHandler *handlers.RefundHandler, cfg RouterConfig) {
	refunds := rg.Group("/refunds")
	// Refund creation and decisions move money; duplicate submissions
	// replay the recorded response instead of running twice.
	if cfg.Idempotency != nil {
		refunds.Use(middleware.Idempotency(cfg.Idempotency))
	}
	{
		refunds.GET("", refundHandler.List)
		refunds.POST("", refundHandler.Create)
		refunds.GET("/stats", refundHandler.Stats)
		refunds.GET("/export", refundHandler.Export)
		refunds.GET("/settings/current", refundHandler.GetSettings)
		refunds.PUT("/settings/current", refundHandler.UpdateSettings)
		refunds.GET("/:id", refundHandler.Get)
		refunds.POST("/:id/approve", refundHandler.Approve)
		refunds.POST("/:id/reject", refundHandler.Reject)
		refunds.POST("/:id/process", refundHandler.Process)
		refunds.DELETE("/:id", refundHandler.Cancel)
	}
}

// registerAdminRoutes registers the vendor marketplace endpoints; all of
// them require an administrative scope.
func registerAdminRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	admin := rg.Group("/admin")
	admin.Use(middleware.RequireAdminScope())

	vendorHandler := handlers.NewVendorHandler(base, cfg.Vendors)
	vendors := admin.Group("/vendors")
	{
		vendors.GET("", vendorHandler.List)
		vendors.POST("", vendorHandler.Create)
		vendors.GET("/:id", vendorHandler.Get)
		vendors.PUT("/:id", vendorHandler.Update)
		vendors.DELETE("/:id", vendorHandler.Delete)
		vendors.POST("/:id/verify", vendorHandler.Verify)
		vendors.GET("/:id/companies", vendorHandler.ListCompanies)
		vendors.POST("/:id/companies", vendorHandler.CreateCompany)
	}

	vendorCompanies := admin.Group("/vendor-companies")
	{
		vendorCompanies.GET("/:id", vendorHandler.GetCompany)
		vendorCompanies.PUT("/:id", vendorHandler.UpdateCompany)
		vendorCompanies.DELETE("/:id", vendorHandler.DeleteCompany)
	}

	connectionHandler := handlers.NewConnectionHandler(base, cfg.Connections)
	connections := admin.Group("/vendor-connections")
	{
		connections.GET("", connectionHandler.List)
		connections.POST("", connectionHandler.Create)
		connections.GET("/:id", connectionHandler.Get)
		connections.POST("/:id/approve", connectionHandler.Approve)
		connections.POST("/:id/reject", connectionHandler.Reject)
	}

	widgetHandler := handlers.NewWidgetHandler(base, cfg.Widgets)
	admin.PUT("/sites/:siteId/widgets", widgetHandler.Configure)

	productHandler := handlers.NewProductHandler(base, cfg.Products)
	products := admin.Group("/vendor-products")
	{
		products.GET("", productHandler.List)
		products.POST("", productHandler.Create)
		products.GET("/low-stock", productHandler.LowStock)
		products.POST("/bulk-stock", productHandler.BulkStock)
		products.GET("/:id", productHandler.Get)
		products.PUT("/:id", productHandler.Update)
		products.DELETE("/:id", productHandler.Delete)
	}
}

package api

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/stayprice/stayprice/internal/api/v1"
	"github.com/stayprice/stayprice/internal/config"
	"github.com/stayprice/stayprice/internal/logger"
	"github.com/stayprice/stayprice/internal/rest/middleware"
)

// Handlers bundles the HTTP handlers for DI
type Handlers struct {
	Property *v1.PropertyHandler
	Group    *v1.GroupHandler
	Booking  *v1.BookingHandler
	Tenant   *v1.TenantHandler
	PMS      *v1.PMSHandler
	Webhook  *v1.WebhookHandler
}

// NewRouter assembles the gin engine. Webhooks are mounted outside the
// authenticated group since the provider signature is their auth.
func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware(cfg.Server.FrontendURL),
		middleware.ErrorHandler(log),
	)

	router.GET("/health", v1.Health)
	router.POST("/webhooks/stripe", handlers.Webhook.HandleStripe)

	private := router.Group("/v1")
	private.Use(middleware.AuthMiddleware())
	registerV1Routes(private, handlers)

	return router
}

func registerV1Routes(rg *gin.RouterGroup, h Handlers) {
	properties := rg.Group("/properties")
	{
		properties.POST("", h.Property.Create)
		properties.GET("", h.Property.List)
		properties.GET("/:id", h.Property.Get)
		properties.DELETE("/:id", h.Property.Delete)
		properties.PUT("/:id/strategy", h.Property.UpdateStrategy)
		properties.PUT("/:id/rules", h.Property.UpdateRules)
		properties.PUT("/:id/status", h.Property.UpdateStatus)
		properties.GET("/:id/calendar", h.Property.GetCalendar)
		properties.POST("/:id/calendar/generate", h.Property.GenerateCalendar)
		properties.PUT("/:id/calendar/override", h.Property.SetOverride)
		properties.GET("/:id/logs", h.Property.GetLogs)
		properties.GET("/:id/bookings", h.Booking.ListByProperty)
	}

	groups := rg.Group("/groups")
	{
		groups.POST("", h.Group.Create)
		groups.GET("", h.Group.List)
		groups.DELETE("/:id", h.Group.Delete)
		groups.POST("/:id/properties", h.Group.AddProperty)
		groups.DELETE("/:id/properties/:propertyId", h.Group.RemoveProperty)
		groups.PUT("/:id/main", h.Group.SetMainProperty)
	}

	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.Booking.Create)
		bookings.GET("/stats", h.Booking.Stats)
		bookings.PUT("/:id", h.Booking.Update)
		bookings.DELETE("/:id", h.Booking.Delete)
	}

	account := rg.Group("/account")
	{
		account.GET("", h.Tenant.Get)
		account.PUT("/revenue-targets", h.Tenant.UpdateRevenueTargets)
		account.PUT("/auto-pricing", h.Tenant.UpdateAutoPricing)
		account.POST("/end-trial", h.Tenant.EndTrial)
	}

	pms := rg.Group("/pms")
	{
		pms.GET("", h.PMS.List)
		pms.POST("/connect", h.PMS.Connect)
		pms.POST("/:type/import", h.PMS.Import)
		pms.DELETE("/:type", h.PMS.Disconnect)
	}
}

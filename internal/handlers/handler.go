package handlers

import (
	"core_innovators/internal/logger"
	"core_innovators/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Live readings and notifications on the same port.
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.identityMiddleware)
	{
		api.GET("/me", h.me)
		h.registerReadingRoutes(api)
		h.registerKnowledgeRoutes(api)
		h.registerAssistantRoutes(api)
		h.registerDeviceRoutes(api)
		h.registerAutomationRoutes(api)
		h.registerAlertRoutes(api)
		h.registerSettingsRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerReadingRoutes(api *gin.RouterGroup) {
	readings := api.Group("/readings")
	{
		readings.GET("", h.listReadings)
		readings.POST("", h.ingestReading)
		readings.GET("/latest", h.latestReading)
		readings.GET("/status", h.readingStatus)
	}
}

func (h *Handler) registerKnowledgeRoutes(api *gin.RouterGroup) {
	kb := api.Group("/knowledge")
	{
		kb.GET("/search", h.searchKnowledge)
		kb.GET("/categories", h.listCategories)
		kb.GET("/categories/:id", h.entriesByCategory)
		kb.GET("/high-priority", h.highPriority)
		kb.GET("/entries/:id", h.getEntry)
		kb.GET("/entries/:id/related", h.relatedEntries)
	}
}

func (h *Handler) registerAssistantRoutes(api *gin.RouterGroup) {
	api.POST("/assistant/command", h.assistantCommand)
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	devices := api.Group("/devices")
	{
		devices.GET("", h.listDevices)
		devices.GET("/:id", h.getDevice)
		devices.POST("/:id/toggle", h.toggleDevice)
		// Body example: {"mode":"sleep"}
		devices.POST("/:id/mode", h.setDeviceMode)
		// Body example: {"kind":"set_type","device_type":"fan","state":"on"}
		devices.POST("/actions", h.applyAction)
	}
}

func (h *Handler) registerAutomationRoutes(api *gin.RouterGroup) {
	rules := api.Group("/automation/rules")
	{
		rules.GET("", h.listRules)
		rules.POST("", h.createRule)
		rules.GET("/:id", h.getRule)
		rules.PUT("/:id", h.updateRule)
		rules.PATCH("/:id/enabled", h.setRuleEnabled)
		rules.DELETE("/:id", h.deleteRule)
	}
}

func (h *Handler) registerAlertRoutes(api *gin.RouterGroup) {
	alerts := api.Group("/alerts")
	{
		alerts.GET("/history", h.alertHistory)
		alerts.GET("/recent", h.recentNotifications)
	}
}

func (h *Handler) registerSettingsRoutes(api *gin.RouterGroup) {
	settings := api.Group("/settings")
	{
		settings.GET("/notification-email", h.getNotificationEmail)
		settings.PUT("/notification-email", h.setNotificationEmail)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}

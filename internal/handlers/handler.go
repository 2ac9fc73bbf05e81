package handlers

import (
	"net/http"

	"air_quality_monitor/internal/logger"
	"air_quality_monitor/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const statusOK = "ok"

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

	h.registerAPIRoutes(router)

	// Live snapshot push, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerDashboardRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerDashboardRoutes(api *gin.RouterGroup) {
	api.GET("/dashboard", h.getDashboard)
	api.GET("/readings", h.getReadings)
	api.GET("/summary", h.getSummary)
	api.GET("/status", h.getStatus)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	api.GET("/logs", h.getLogs)
}

// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// logAndJSONError logs err under logKey (when a logger is set) and writes
// userMsg as the error body.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

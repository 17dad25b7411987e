package http

import (
	"net/http"

	"gridcast/internal/infrastructure/events"
	"gridcast/internal/infrastructure/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SystemHandler exposes health, metrics and the WebSocket event feed.
type SystemHandler struct {
	health *monitoring.HealthChecker
	hub    *events.Hub
}

func NewSystemHandler(health *monitoring.HealthChecker, hub *events.Hub) *SystemHandler {
	return &SystemHandler{health: health, hub: hub}
}

func (h *SystemHandler) SetupRoutes(router *gin.Engine, metricsEnabled bool) {
	router.GET("/health", h.Health)
	if metricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	router.GET("/ws/events", h.EventFeed)
}

func (h *SystemHandler) Health(c *gin.Context) {
	status := h.health.CheckAll(c.Request.Context())

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

func (h *SystemHandler) EventFeed(c *gin.Context) {
	h.hub.HandleWebSocket(c.Writer, c.Request)
}

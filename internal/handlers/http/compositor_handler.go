package http

import (
	"net/http"

	"gridcast/internal/infrastructure/compositor"

	"github.com/gin-gonic/gin"
)

type CompositorHandler struct {
	compositor *compositor.Compositor
}

func NewCompositorHandler(c *compositor.Compositor) *CompositorHandler {
	return &CompositorHandler{compositor: c}
}

func (h *CompositorHandler) SetupRoutes(api *gin.RouterGroup) {
	api.POST("/compositor/start", h.StartCompositor)
	api.POST("/compositor/stop", h.StopCompositor)
	api.GET("/compositor/stats", h.CompositorStats)
}

func (h *CompositorHandler) StartCompositor(c *gin.Context) {
	if err := h.compositor.Start(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.compositor.State()})
}

func (h *CompositorHandler) StopCompositor(c *gin.Context) {
	if err := h.compositor.Stop(); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.compositor.State()})
}

func (h *CompositorHandler) CompositorStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stats": h.compositor.Stats()})
}

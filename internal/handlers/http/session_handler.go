package http

import (
	"net/http"
	"strconv"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/layout"
	"gridcast/internal/core/ports"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessionService ports.SessionService
}

func NewSessionHandler(sessionService ports.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) SetupRoutes(api *gin.RouterGroup) {
	api.GET("/session", h.GetSession)
	api.DELETE("/session", h.ClearSession)
	api.GET("/session/layout", h.GetLayout)
	api.PUT("/session/layout", h.SetLayout)
	api.PUT("/session/layout/custom", h.SetCustomLayout)

	api.POST("/session/streams", h.AddStream)
	api.POST("/session/streams/reorder", h.ReorderStreams)
	api.DELETE("/session/streams/:id", h.RemoveStream)
	api.PATCH("/session/streams/:id", h.UpdateStream)
	api.PUT("/session/streams/:id/volume", h.SetVolume)
	api.POST("/session/streams/:id/mute", h.ToggleMute)
	api.PUT("/session/streams/:id/quality", h.SetQuality)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"session": h.sessionService.Snapshot(),
	})
}

func (h *SessionHandler) ClearSession(c *gin.Context) {
	if err := h.sessionService.ClearAll(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (h *SessionHandler) AddStream(c *gin.Context) {
	var req struct {
		ID          domain.StreamID `json:"id"`
		Platform    domain.Platform `json:"platform" binding:"required"`
		ChannelName string          `json:"channel_name" binding:"required"`
		DisplayName string          `json:"display_name"`
		Title       string          `json:"title"`
		Category    string          `json:"category"`
		Language    string          `json:"language"`
		SourceURL   string          `json:"source_url"`
		IsLive      bool            `json:"is_live"`
		Tags        []string        `json:"tags"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stream := &domain.Stream{
		ID:          req.ID,
		Platform:    req.Platform,
		ChannelName: req.ChannelName,
		DisplayName: req.DisplayName,
		Title:       req.Title,
		Category:    req.Category,
		Language:    req.Language,
		SourceURL:   req.SourceURL,
		IsLive:      req.IsLive,
		Tags:        req.Tags,
	}

	state, err := h.sessionService.AddStream(c.Request.Context(), stream)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"stream": stream,
		"state":  state,
	})
}

func (h *SessionHandler) RemoveStream(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))

	if err := h.sessionService.RemoveStream(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (h *SessionHandler) UpdateStream(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))

	var update domain.StreamUpdate
	if err := c.BindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessionService.UpdateStream(c.Request.Context(), id, update); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *SessionHandler) SetVolume(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))

	var req struct {
		Volume int `json:"volume"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessionService.SetVolume(c.Request.Context(), id, req.Volume); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *SessionHandler) ToggleMute(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))

	if err := h.sessionService.ToggleMute(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "toggled"})
}

func (h *SessionHandler) SetQuality(c *gin.Context) {
	id := domain.StreamID(c.Param("id"))

	var req struct {
		Quality domain.Quality `json:"quality" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessionService.SetQuality(c.Request.Context(), id, req.Quality); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *SessionHandler) ReorderStreams(c *gin.Context) {
	var req struct {
		FromIndex int `json:"from_index"`
		ToIndex   int `json:"to_index"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessionService.Reorder(c.Request.Context(), req.FromIndex, req.ToIndex); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reordered"})
}

func (h *SessionHandler) SetLayout(c *gin.Context) {
	var req struct {
		Mode domain.LayoutMode `json:"mode" binding:"required"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessionService.SetGridLayout(c.Request.Context(), req.Mode); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *SessionHandler) SetCustomLayout(c *gin.Context) {
	var req struct {
		Rows int `json:"rows" binding:"required,min=1"`
		Cols int `json:"cols" binding:"required,min=1"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.sessionService.SetCustomLayout(c.Request.Context(), req.Rows, req.Cols); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// GetLayout computes cell geometry for the caller's viewport. The session's
// current layout mode and stream order drive the result; viewport dimensions
// come from query parameters.
func (h *SessionHandler) GetLayout(c *gin.Context) {
	width := queryFloat(c, "width", 1920)
	height := queryFloat(c, "height", 1080)
	chrome := queryFloat(c, "chrome_height", 0)

	session := h.sessionService.Snapshot()

	focusFirst := false
	if len(session.Streams) > 0 {
		if state, ok := session.States[session.Streams[0].ID]; ok {
			focusFirst = state.IsPinned
		}
	}

	grid := layout.Compute(
		session.LayoutMode,
		session.CustomLayout,
		len(session.Streams),
		width, height, chrome,
		focusFirst,
	)

	c.JSON(http.StatusOK, gin.H{
		"mode": session.LayoutMode,
		"grid": grid,
	})
}

func queryFloat(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

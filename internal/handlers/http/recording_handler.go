package http

import (
	"net/http"
	"time"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"

	"github.com/gin-gonic/gin"
)

type RecordingHandler struct {
	recorder ports.RecorderService
}

func NewRecordingHandler(recorder ports.RecorderService) *RecordingHandler {
	return &RecordingHandler{recorder: recorder}
}

func (h *RecordingHandler) SetupRoutes(api *gin.RouterGroup) {
	api.POST("/recordings/start", h.StartRecording)
	api.POST("/recordings/pause", h.PauseRecording)
	api.POST("/recordings/resume", h.ResumeRecording)
	api.POST("/recordings/stop", h.StopRecording)
	api.GET("/recordings", h.ListRecordings)
	api.GET("/recordings/active", h.ActiveRecording)
	api.DELETE("/recordings/:id", h.DeleteRecording)
}

func (h *RecordingHandler) StartRecording(c *gin.Context) {
	var req struct {
		Name            string         `json:"name" binding:"required,min=1,max=120"`
		Quality         domain.Quality `json:"quality"`
		AutoSplit       bool           `json:"auto_split"`
		SplitMinutes    int            `json:"split_minutes" binding:"min=0"`
		MaxMinutes      int            `json:"max_minutes" binding:"min=0"`
		MinSegmentBytes int64          `json:"min_segment_bytes" binding:"min=0"`
	}

	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings := domain.RecordingSettings{
		Name:            req.Name,
		Quality:         req.Quality,
		AutoSplit:       req.AutoSplit,
		SplitDuration:   time.Duration(req.SplitMinutes) * time.Minute,
		MaxDuration:     time.Duration(req.MaxMinutes) * time.Minute,
		MinSegmentBytes: req.MinSegmentBytes,
	}
	if settings.Quality == "" {
		settings.Quality = domain.QualityAuto
	}

	segment, err := h.recorder.Start(c.Request.Context(), settings)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"segment": segment})
}

func (h *RecordingHandler) PauseRecording(c *gin.Context) {
	if err := h.recorder.Pause(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paused"})
}

func (h *RecordingHandler) ResumeRecording(c *gin.Context) {
	if err := h.recorder.Resume(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recording"})
}

func (h *RecordingHandler) StopRecording(c *gin.Context) {
	segment, err := h.recorder.Stop(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"segment": segment})
}

func (h *RecordingHandler) ListRecordings(c *gin.Context) {
	segments, err := h.recorder.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"segments": segments})
}

func (h *RecordingHandler) ActiveRecording(c *gin.Context) {
	segment := h.recorder.Active()
	if segment == nil {
		c.JSON(http.StatusOK, gin.H{"segment": nil, "recording": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"segment": segment, "recording": true})
}

func (h *RecordingHandler) DeleteRecording(c *gin.Context) {
	id := domain.SegmentID(c.Param("id"))

	if err := h.recorder.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hotelpms/backend/internal/interfaces/http/dto"
)

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	sweep     SweepStatusReporter
}

// SweepStatusReporter exposes the overdue sweep scheduler state
type SweepStatusReporter interface {
	GetStatus() map[string]any
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(sweep SweepStatusReporter) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		sweep:     sweep,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns basic system information including version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "Hotel PMS API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping checks if the API is responsive
func (h *SystemHandler) Ping(c *gin.Context) {
	response := PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	}

	c.JSON(http.StatusOK, dto.NewSuccessResponse(response))
}

// GetSweepStatus reports the overdue sweep scheduler state
func (h *SystemHandler) GetSweepStatus(c *gin.Context) {
	if h.sweep == nil {
		h.Success(c, gin.H{"enabled": false})
		return
	}

	h.Success(c, h.sweep.GetStatus())
}

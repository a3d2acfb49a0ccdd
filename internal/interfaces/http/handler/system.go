package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler exposes basic service metadata endpoints
type SystemHandler struct {
	BaseHandler
	name    string
	version string
	env     string
	started time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version, env string) *SystemHandler {
	return &SystemHandler{
		name:    name,
		version: version,
		env:     env,
		started: time.Now(),
	}
}

// Ping responds with a simple liveness message
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, gin.H{"message": "pong"})
}

// Info returns service metadata
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, gin.H{
		"name":       h.name,
		"version":    h.version,
		"env":        h.env,
		"go_version": runtime.Version(),
		"uptime":     time.Since(h.started).String(),
	})
}

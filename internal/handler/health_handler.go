package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/snehachy12/campus-event-system-sub002/internal/response"
)

// HealthHandler answers liveness and readiness probes
type HealthHandler struct {
	version string
	checks  map[string]func(context.Context) error
}

func NewHealthHandler(version string, checks map[string]func(context.Context) error) *HealthHandler {
	return &HealthHandler{version: version, checks: checks}
}

// Live handles GET /health
func (h *HealthHandler) Live(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok", "version": h.version})
}

// Ready handles GET /ready, probing each configured dependency
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	results := gin.H{}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			healthy = false
		} else {
			results[name] = "ok"
		}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": results})
		return
	}
	response.Success(c, gin.H{"status": "ready", "checks": results})
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/websurvey-backend/internal/response"
)

// Pinger is a dependency the health check can probe.
type Pinger func(ctx context.Context) error

// HealthHandler reports whether the database and Redis are reachable.
type HealthHandler struct {
	checks    map[string]Pinger
	startTime time.Time
	log       zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checks map[string]Pinger, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		checks:    checks,
		startTime: time.Now(),
		log:       log.With().Str("component", "health_handler").Logger(),
	}
}

// Health godoc
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	deps := make(map[string]string, len(h.checks))
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			deps[name] = "down"
			status = "degraded"
			continue
		}
		deps[name] = "up"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	response.Success(c, code, gin.H{
		"status":       status,
		"dependencies": deps,
		"uptime":       time.Since(h.startTime).Round(time.Second).String(),
	})
}

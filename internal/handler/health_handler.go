package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-timer/internal/response"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports liveness, dependency reachability and the expiry
// queue backlog.
type HealthHandler struct {
	startTime  time.Time
	checks     map[string]HealthCheck
	queueDepth func(ctx context.Context) (int64, error)
	log        zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler. queueDepth may be nil.
func NewHealthHandler(checks map[string]HealthCheck, queueDepth func(ctx context.Context) (int64, error), log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		startTime:  time.Now(),
		checks:     checks,
		queueDepth: queueDepth,
		log:        log.With().Str("component", "health_handler").Logger(),
	}
}

type healthReport struct {
	Status      string            `json:"status"`
	Uptime      string            `json:"uptime"`
	Checks      map[string]string `json:"checks,omitempty"`
	ExpiryQueue *int64            `json:"expiry_queue,omitempty"`
}

// Health godoc
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	report := healthReport{
		Status: "ok",
		Uptime: formatDuration(time.Since(h.startTime)),
		Checks: make(map[string]string, len(h.checks)),
	}
	code := http.StatusOK

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
			report.Checks[name] = "unreachable"
			report.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		report.Checks[name] = "ok"
	}

	if h.queueDepth != nil {
		if n, err := h.queueDepth(ctx); err == nil {
			report.ExpiryQueue = &n
		}
	}

	response.Success(c, code, report)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

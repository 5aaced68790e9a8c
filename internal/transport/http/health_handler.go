package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db      Pinger
	version string
	started time.Time
	logger  *slog.Logger
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(db Pinger, version string, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		db:      db,
		version: version,
		started: time.Now(),
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// Health handles GET /healthz. It is degraded, not down, when the
// database ping fails.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	dbStatus := "up"
	code := http.StatusOK
	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			h.logger.WarnContext(ctx, "database ping failed", slog.String("error", err.Error()))
			status = "degraded"
			dbStatus = "down"
			code = http.StatusServiceUnavailable
		}
	}

	render.Status(r, code)
	render.JSON(w, r, map[string]interface{}{
		"status":   status,
		"database": dbStatus,
		"version":  h.version,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	})
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Pinger
	log    *slog.Logger
}

func NewHealthHandler(log *slog.Logger, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks, log: log}
}

func (h *HealthHandler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Triple API Server is running",
	})
}

// Ready pings every configured dependency and fails on the first error.
func (h *HealthHandler) Ready(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	for name, ping := range h.checks {
		if ping == nil {
			continue
		}

		if err := ping(cctx); err != nil {
			if h.log != nil {
				h.log.WarnContext(cctx, "readiness check failed", "check", name, "err", err)
			}

			ctx.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unavailable",
				"check":  name,
			})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

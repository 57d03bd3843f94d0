package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/particles/internal/engine"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck reports whether the engine's worker pool is running, with its
// step counter and barrier health. A stopped engine answers 503.
func HealthCheck(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "ok", http.StatusOK
		if !eng.Running() {
			status, code = "stopped", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":           status,
			"service":          "particles-api",
			"version":          version,
			"uptime":           time.Since(startTime).String(),
			"step":             eng.StepCount(),
			"active":           eng.Store().Len(),
			"capacity":         eng.Store().Cap(),
			"paused":           eng.Controls().Paused(),
			"barrier_timeouts": eng.BarrierTimeouts(),
		})
	}
}

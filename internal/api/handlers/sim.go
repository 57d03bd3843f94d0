package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/world"
)

const (
	defaultParticleLimit = 1000
	maxParticleLimit     = 10000
	spawnReplyTimeout    = 2 * time.Second
)

// GetSimState returns the engine's counters and live parameters
func GetSimState(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := eng.Stats()
		c.Header("X-Sim-Step", strconv.FormatUint(s.Step, 10))
		c.JSON(http.StatusOK, gin.H{
			"stats":   s,
			"running": eng.Running(),
			"point":   eng.Controls().Point(),
			"grid": gin.H{
				"cols":      eng.Grid().Cols(),
				"rows":      eng.Grid().Rows(),
				"cell_size": eng.Grid().CellSize(),
				"clear":     eng.Grid().Mode().String(),
				"projected": eng.Grid().Projected(),
			},
		})
	}
}

// GetSegments lists the static obstacles
func GetSegments(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		type segmentRow struct {
			world.SegmentView
			Binned bool `json:"binned"`
		}
		segs := eng.Segments()
		rows := make([]segmentRow, len(segs))
		for i, s := range segs {
			rows[i] = segmentRow{SegmentView: s.View(), Binned: s.Horizontal() || s.Vertical()}
		}
		c.JSON(http.StatusOK, gin.H{"segments": rows})
	}
}

// GetZones lists the zones
func GetZones(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"zones": eng.Zones()})
	}
}

// GetParticles pages through the latest published frame
func GetParticles(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultParticleLimit)))
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > maxParticleLimit {
			limit = maxParticleLimit
		}

		f := eng.Latest()
		total := len(f.Particles)
		start := offset
		if start > total {
			start = total
		}
		end := start + limit
		if end > total {
			end = total
		}

		c.JSON(http.StatusOK, gin.H{
			"step":      f.Step,
			"time":      f.Clock,
			"total":     total,
			"offset":    offset,
			"limit":     limit,
			"particles": f.Particles[start:end],
		})
	}
}

// Pause stops the engine at the next step boundary
func Pause(db *sqlx.DB, eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		eng.Controls().Pause()
		audit(db, c, "pause", nil, true)
		c.JSON(http.StatusOK, gin.H{"paused": true})
	}
}

// Resume lets a paused engine run freely
func Resume(db *sqlx.DB, eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		eng.Controls().Resume()
		audit(db, c, "resume", nil, true)
		c.JSON(http.StatusOK, gin.H{"paused": false})
	}
}

// Step requests a single iteration of a paused engine
func Step(db *sqlx.DB, eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !eng.Controls().Paused() {
			c.JSON(http.StatusConflict, gin.H{"error": "engine is not paused"})
			return
		}
		eng.Controls().Step()
		audit(db, c, "step", nil, true)
		c.JSON(http.StatusAccepted, gin.H{"requested": true})
	}
}

// SetQuickstep toggles back-to-back stepping while paused
func SetQuickstep(db *sqlx.DB, eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Enabled *bool `json:"enabled" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required"})
			return
		}
		eng.Controls().SetQuickstep(*req.Enabled)
		audit(db, c, "quickstep", map[string]interface{}{"enabled": *req.Enabled}, true)
		c.JSON(http.StatusOK, gin.H{"quickstep": *req.Enabled})
	}
}

// SetDT changes the timestep from the next step on
func SetDT(db *sqlx.DB, eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DT float64 `json:"dt"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.DT <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dt must be a positive number"})
			return
		}
		eng.Controls().SetDT(req.DT)
		audit(db, c, "set_dt", map[string]interface{}{"dt": req.DT}, true)
		c.JSON(http.StatusOK, gin.H{"dt": req.DT})
	}
}

// SetForce selects the user force mode
func SetForce(db *sqlx.DB, eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Mode string `json:"mode" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mode is required"})
			return
		}
		mode, err := engine.ParseForceMode(req.Mode)
		if err != nil {
			audit(db, c, "set_force", map[string]interface{}{"mode": req.Mode}, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		eng.Controls().SetForceMode(mode)
		audit(db, c, "set_force", map[string]interface{}{"mode": mode.String()}, true)
		c.JSON(http.StatusOK, gin.H{"mode": mode.String()})
	}
}

// SetPoint moves the user force target
func SetPoint(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			X *float64 `json:"x" binding:"required"`
			Y *float64 `json:"y" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "x and y are required"})
			return
		}
		eng.Controls().SetPoint(*req.X, *req.Y)
		c.JSON(http.StatusOK, gin.H{"point": eng.Controls().Point()})
	}
}

// DeleteInRadius removes every particle within radius of a point at the
// next step boundary
func DeleteInRadius(db *sqlx.DB, eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			X      float64 `json:"x"`
			Y      float64 `json:"y"`
			Radius float64 `json:"radius"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Radius <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radius must be positive"})
			return
		}
		eng.Controls().RequestDelete(req.X, req.Y, req.Radius)
		audit(db, c, "delete", map[string]interface{}{"x": req.X, "y": req.Y, "radius": req.Radius}, true)
		c.JSON(http.StatusAccepted, gin.H{"requested": true})
	}
}

// Spawn creates one particle and reports its index
func Spawn(db *sqlx.DB, eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			X     float64 `json:"x"`
			Y     float64 `json:"y"`
			VX    float64 `json:"vx"`
			VY    float64 `json:"vy"`
			Color uint32  `json:"color"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid spawn request"})
			return
		}
		if !eng.Running() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "engine is not running"})
			return
		}

		reply := make(chan int, 1)
		eng.Controls().RequestSpawn(engine.SpawnRequest{
			Pos:   world.NewVec2(req.X, req.Y),
			Vel:   world.NewVec2(req.VX, req.VY),
			Color: req.Color,
			Reply: reply,
		})

		select {
		case idx := <-reply:
			details := map[string]interface{}{"x": req.X, "y": req.Y, "index": idx}
			if idx == world.NullPart {
				audit(db, c, "spawn", details, false)
				c.JSON(http.StatusConflict, gin.H{"error": "particle capacity reached"})
				return
			}
			audit(db, c, "spawn", details, true)
			c.JSON(http.StatusCreated, gin.H{"index": idx})
		case <-time.After(spawnReplyTimeout):
			log.Printf("[ENGINE] spawn request not serviced within %s", spawnReplyTimeout)
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "engine did not service the request"})
		}
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/particles/internal/config"
	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/scene"
)

// GetConfig returns the static world settings a client needs to render
func GetConfig(cfg *config.Config) gin.HandlerFunc {
	forceModes := make([]string, 0, int(engine.ForcePointGravity)+1)
	for m := engine.ForceNone; m <= engine.ForcePointGravity; m++ {
		forceModes = append(forceModes, m.String())
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"world_width":  cfg.Sim.WorldWidth,
			"world_height": cfg.Sim.WorldHeight,
			"cell_size":    cfg.Sim.CellSize,
			"radius":       cfg.Sim.Radius,
			"capacity":     cfg.Sim.Capacity,
			"frame_every":  cfg.Sim.FrameEvery,
			"scene":        cfg.Sim.Scene,
			"scenes":       scene.Names(),
			"force_modes":  forceModes,
		})
	}
}

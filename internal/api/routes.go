package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/particles/internal/api/handlers"
	"github.com/playmatatu/particles/internal/config"
	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/middleware"
	"github.com/playmatatu/particles/internal/ws"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, eng *engine.Engine, hub *ws.Hub, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(eng))
		v1.GET("/config", handlers.GetConfig(cfg))
		v1.POST("/auth/token", handlers.IssueToken(db, cfg))

		sim := v1.Group("/sim")
		{
			sim.GET("/state", handlers.GetSimState(eng))
			sim.GET("/segments", handlers.GetSegments(eng))
			sim.GET("/zones", handlers.GetZones(eng))
			sim.GET("/particles", handlers.GetParticles(eng))
			sim.GET("/ws", middleware.WebSocketCORSCheck(cfg), ws.HandleStream(hub, eng, cfg))

			control := sim.Group("")
			control.Use(middleware.OperatorAuth(cfg, "control"))
			{
				control.POST("/pause", handlers.Pause(db, eng))
				control.POST("/resume", handlers.Resume(db, eng))
				control.POST("/step", handlers.Step(db, eng))
				control.POST("/quickstep", handlers.SetQuickstep(db, eng))
				control.PUT("/dt", handlers.SetDT(db, eng))
				control.PUT("/force", handlers.SetForce(db, eng))
				control.PUT("/point", handlers.SetPoint(eng))
				control.POST("/delete", handlers.DeleteInRadius(db, eng))
				control.POST("/spawn", handlers.Spawn(db, eng))
			}
		}

		stored := v1.Group("")
		stored.Use(handlers.RequireDB(db))
		{
			stored.GET("/presets", handlers.GetPresets(db))
			stored.GET("/presets/:key", handlers.GetPreset(db))
			stored.PUT("/presets/:key", middleware.OperatorAuth(cfg, "presets"), handlers.UpdatePreset(db, eng))
			stored.GET("/runs", handlers.GetRuns(db))
			stored.GET("/audit", middleware.OperatorAuth(cfg, "audit"), handlers.GetAuditLogs(db))
		}
	}
}

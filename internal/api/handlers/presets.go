package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/middleware"
	"github.com/playmatatu/particles/internal/presets"
)

// GetPresets returns all presets
func GetPresets(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		all, err := presets.GetAll(db)
		if err != nil {
			log.Printf("[PRESET] Failed to fetch presets: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch presets"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"presets": all})
	}
}

// GetPreset returns a single preset
func GetPreset(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := presets.Get(db, c.Param("key"))
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "preset not found"})
			return
		}
		if err != nil {
			log.Printf("[PRESET] Failed to fetch preset %s: %v", c.Param("key"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch preset"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// UpdatePreset stores a preset and applies it to the running engine
func UpdatePreset(db *sqlx.DB, eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.GetString(middleware.OperatorKey)
		key := c.Param("key")

		var req struct {
			Value string `json:"value" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Value is required"})
			return
		}
		details := map[string]interface{}{"key": key, "value": req.Value}

		if err := presets.Update(db, key, req.Value, operator); err != nil {
			log.Printf("[PRESET] Failed to update %s: %v", key, err)
			audit(db, c, "update_preset", details, false)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := presets.ApplyValue(eng.Controls(), key, req.Value); err != nil {
			log.Printf("[PRESET] Stored %s but could not apply it: %v", key, err)
		}

		audit(db, c, "update_preset", details, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/particles/internal/runs"
)

// GetRuns lists recent engine runs
func GetRuns(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		if limit <= 0 || limit > 100 {
			limit = 100
		}
		rows, err := runs.Recent(db, limit)
		if err != nil {
			log.Printf("[STATS] Failed to fetch runs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch runs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": rows})
	}
}

// RequireDB answers 503 when persistence is disabled
func RequireDB(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "database not configured"})
			return
		}
		c.Next()
	}
}

package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/particles/internal/middleware"
	"github.com/playmatatu/particles/internal/operators"
)

// audit records an operator action when persistence is enabled.
func audit(db *sqlx.DB, c *gin.Context, action string, details map[string]interface{}, success bool) {
	operator := c.GetString(middleware.OperatorKey)
	if db == nil {
		log.Printf("[AUTH] %s by %s (success=%v)", action, operator, success)
		return
	}
	operators.LogAction(db, operator, c.ClientIP(), c.FullPath(), action, details, success)
}

// GetAuditLogs returns paginated audit log entries
func GetAuditLogs(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := c.DefaultQuery("operator", "")
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if limit <= 0 || limit > 200 {
			limit = 200
		}

		logs, err := operators.AuditLogs(db, operator, limit, offset)
		if err != nil {
			log.Printf("[AUTH] Failed to fetch audit logs: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit logs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs, "limit": limit, "offset": offset})
	}
}

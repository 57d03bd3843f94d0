package handlers

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/particles/internal/config"
	"github.com/playmatatu/particles/internal/middleware"
	"github.com/playmatatu/particles/internal/operators"
)

// localOperator is the name accepted with OPERATOR_TOKEN when there is no
// database.
const localOperator = "local"

// IssueToken exchanges an operator name and token for a JWT
func IssueToken(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name  string `json:"name" binding:"required"`
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and token are required"})
			return
		}

		var roles []string
		switch {
		case db != nil:
			op, err := operators.Validate(db, req.Name, req.Token)
			if err != nil {
				if errors.Is(err, operators.ErrNotFound) || errors.Is(err, operators.ErrInvalidToken) {
					c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
					return
				}
				log.Printf("[AUTH] operator lookup failed: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			roles = op.Roles
		case cfg.OperatorToken != "":
			if req.Name != localOperator ||
				subtle.ConstantTimeCompare([]byte(req.Token), []byte(cfg.OperatorToken)) != 1 {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			roles = []string{"super"}
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "operator auth is not configured"})
			return
		}

		token, exp, err := middleware.IssueToken(cfg, req.Name, roles)
		if err != nil {
			log.Printf("[AUTH] Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		log.Printf("[AUTH] token issued for %s (roles=%v)", req.Name, roles)
		c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": exp.Unix(), "roles": roles})
	}
}

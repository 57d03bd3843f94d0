package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/playmatatu/particles/internal/config"
)

// Context keys set by OperatorAuth.
const (
	OperatorKey = "operator"
	RolesKey    = "roles"
)

var ErrInvalidToken = errors.New("invalid token")

// IssueToken signs an HS256 token for an operator.
func IssueToken(cfg *config.Config, operator string, roles []string) (string, time.Time, error) {
	ttl := time.Duration(cfg.TokenTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}
	exp := time.Now().Add(ttl)
	claims := jwt.MapClaims{
		"sub":   operator,
		"roles": roles,
		"exp":   exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseToken validates a token and returns its operator and roles.
func ParseToken(cfg *config.Config, token string) (string, []string, error) {
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", nil, ErrInvalidToken
	}
	operator, _ := claims["sub"].(string)
	if operator == "" {
		return "", nil, ErrInvalidToken
	}
	var roles []string
	if raw, ok := claims["roles"].([]interface{}); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
	}
	return operator, roles, nil
}

// HasRole reports whether roles grants role; "super" grants everything.
func HasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role || r == "super" {
			return true
		}
	}
	return false
}

// OperatorAuth validates the bearer token and requires role. It sets the
// operator name and roles in the context.
func OperatorAuth(cfg *config.Config, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		operator, roles, err := ParseToken(cfg, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if role != "" && !HasRole(roles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing role " + role})
			return
		}

		c.Set(OperatorKey, operator)
		c.Set(RolesKey, roles)
		c.Next()
	}
}

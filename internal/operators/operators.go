// Package operators manages the accounts allowed to drive the simulation.
package operators

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/playmatatu/particles/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound     = errors.New("operator not found")
	ErrInvalidToken = errors.New("invalid token")
)

// Get retrieves an operator by name.
func Get(db *sqlx.DB, name string) (*models.Operator, error) {
	var op models.Operator
	err := db.Get(&op, `SELECT name, token_hash, roles, created_at, updated_at FROM operators WHERE name=$1`, name)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// VerifyToken checks a plain token against its bcrypt hash.
func VerifyToken(hashedToken, plainToken string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(plainToken))
	return err == nil
}

// HashToken returns the bcrypt hash stored for a token.
func HashToken(plainToken string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plainToken), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}
	return string(h), nil
}

// Create inserts or replaces an operator.
func Create(db *sqlx.DB, name, plainToken string, roles []string) error {
	hashed, err := HashToken(plainToken)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO operators (name, token_hash, roles, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET
			token_hash = EXCLUDED.token_hash,
			roles = EXCLUDED.roles,
			updated_at = NOW()
	`, name, hashed, pq.Array(roles))
	return err
}

// Validate checks a name + token combination.
func Validate(db *sqlx.DB, name, token string) (*models.Operator, error) {
	op, err := Get(db, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[AUTH] No operator named %s", name)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifyToken(op.TokenHash, token) {
		log.Printf("[AUTH] Token verification failed for operator %s", name)
		return nil, ErrInvalidToken
	}
	return op, nil
}

// LogAction records a control action in the audit log.
func LogAction(db *sqlx.DB, operator, ip, route, action string, details map[string]interface{}, success bool) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		log.Printf("[AUTH] Failed to marshal audit details: %v", err)
		detailsJSON = []byte("{}")
	}

	_, err = db.Exec(`
		INSERT INTO operator_audit (operator, ip, route, action, details, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, operator, ip, route, action, detailsJSON, success)
	if err != nil {
		log.Printf("[AUTH] Failed to log operator action: %v", err)
	}
	return err
}

// AuditLogs returns recent audit entries, optionally for one operator.
func AuditLogs(db *sqlx.DB, operator string, limit, offset int) ([]models.OperatorAudit, error) {
	var logs []models.OperatorAudit
	err := db.Select(&logs, `
		SELECT id, operator, ip, route, action, details, success, created_at
		FROM operator_audit
		WHERE ($1 = '' OR operator = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, operator, limit, offset)
	return logs, err
}

package handlers

import (
	"net/http"
	"testing"

	"github.com/playmatatu/particles/internal/config"
	"github.com/playmatatu/particles/internal/middleware"
)

func TestIssueTokenLocalOperator(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret", TokenTTLMinutes: 5, OperatorToken: "letmein"}

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing token", map[string]string{"name": "local"}, http.StatusBadRequest},
		{"wrong token", map[string]string{"name": "local", "token": "nope"}, http.StatusUnauthorized},
		{"wrong name", map[string]string{"name": "admin", "token": "letmein"}, http.StatusUnauthorized},
		{"valid", map[string]string{"name": "local", "token": "letmein"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, IssueToken(nil, cfg), http.MethodPost, tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d (%s)", tt.want, w.Code, w.Body.String())
			}
			if tt.want != http.StatusOK {
				return
			}
			token, _ := decode(t, w)["token"].(string)
			operator, roles, err := middleware.ParseToken(cfg, token)
			if err != nil {
				t.Fatalf("ParseToken: %v", err)
			}
			if operator != "local" || !middleware.HasRole(roles, "control") {
				t.Errorf("unexpected claims: %s %v", operator, roles)
			}
		})
	}
}

func TestIssueTokenUnconfigured(t *testing.T) {
	cfg := &config.Config{JWTSecret: "secret"}
	w := doJSON(t, IssueToken(nil, cfg), http.MethodPost, map[string]string{"name": "local", "token": "x"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

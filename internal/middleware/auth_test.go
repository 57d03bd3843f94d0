package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/particles/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:     "development",
		JWTSecret:       "test-secret",
		TokenTTLMinutes: 5,
	}
}

func TestIssueAndParseToken(t *testing.T) {
	cfg := testConfig()
	token, exp, err := IssueToken(cfg, "ops", []string{"control"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if exp.IsZero() {
		t.Error("expected expiry")
	}

	name, roles, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if name != "ops" || len(roles) != 1 || roles[0] != "control" {
		t.Errorf("unexpected claims %q %v", name, roles)
	}

	other := *cfg
	other.JWTSecret = "different"
	if _, _, err := ParseToken(&other, token); err == nil {
		t.Error("expected token signed with another secret to fail")
	}
}

func TestOperatorAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	control, _, _ := IssueToken(cfg, "ops", []string{"control"})
	super, _, _ := IssueToken(cfg, "root", []string{"super"})

	r := gin.New()
	r.POST("/presets", OperatorAuth(cfg, "presets"), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(OperatorKey))
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + control, http.StatusForbidden},
		{"super", "Bearer " + super, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/presets", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Errorf("expected %d, got %d (%s)", tt.status, w.Code, w.Body.String())
			}
			if tt.status == http.StatusOK && w.Body.String() != "root" {
				t.Errorf("operator not set in context: %q", w.Body.String())
			}
		})
	}
}

func TestWebSocketOriginCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.Environment = "production"
	cfg.FrontendURL = "https://sim.example.org"

	r := gin.New()
	r.GET("/ws", WebSocketCORSCheck(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })

	for origin, want := range map[string]int{
		"https://sim.example.org": http.StatusOK,
		"https://evil.example":    http.StatusForbidden,
		"":                        http.StatusOK,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Errorf("origin %q: expected %d, got %d", origin, want, w.Code)
		}
	}
}

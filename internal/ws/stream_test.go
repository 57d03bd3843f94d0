package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/particles/internal/config"
	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/middleware"
	"github.com/playmatatu/particles/internal/world"
)

func streamServer(t *testing.T) (*httptest.Server, *engine.Engine, *Hub, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sim := config.SimConfig{
		WorldWidth: 100, WorldHeight: 100, CellSize: 4, Radius: 2,
		Capacity: 8, Workers: 1, DT: 0.001, GridClear: "blind", FrameEvery: 1,
	}
	eng, err := engine.New(sim, engine.Setup{Particles: []world.Particle{{Pos: world.Vec2{X: 10, Y: 20}}}})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	cfg := &config.Config{Environment: "development", JWTSecret: "k", TokenTTLMinutes: 5, Sim: sim}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub()
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", HandleStream(hub, eng, cfg))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, eng, hub, cfg
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStreamSendsLatestFrame(t *testing.T) {
	srv, _, _, _ := streamServer(t)
	conn := dial(t, srv, "")

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("expected binary frame, got type %d", kind)
	}
	w, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if w.Count != 1 || w.X[0] != 10 || w.Y[0] != 20 {
		t.Errorf("unexpected frame %+v", w)
	}
}

func TestStreamReadOnlyWithoutToken(t *testing.T) {
	srv, eng, _, _ := streamServer(t)
	conn := dial(t, srv, "")
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	conn.ReadMessage() // initial frame

	if err := conn.WriteJSON(map[string]interface{}{"type": "force", "data": map[string]string{"mode": "vortex"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.TextMessage || !strings.Contains(string(data), "read-only") {
		t.Errorf("expected read-only error, got %q", data)
	}
	if eng.Controls().ForceMode() != engine.ForceNone {
		t.Error("read-only client changed the force mode")
	}
}

func TestStreamControlMessages(t *testing.T) {
	srv, eng, hub, cfg := streamServer(t)
	token, _, err := middleware.IssueToken(cfg, "ops", []string{"control"})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	conn := dial(t, srv, "?token="+token)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	conn.ReadMessage()

	conn.WriteJSON(map[string]interface{}{"type": "pointer", "data": map[string]float64{"x": 33, "y": 44}})
	conn.WriteJSON(map[string]interface{}{"type": "force", "data": map[string]string{"mode": "rotation_ranged"}})

	deadline := time.Now().Add(5 * time.Second)
	for eng.Controls().ForceMode() != engine.ForceRotationRanged {
		if time.Now().After(deadline) {
			t.Fatal("force mode not applied")
		}
		time.Sleep(time.Millisecond)
	}
	if p := eng.Controls().Point(); p != (world.Vec2{X: 33, Y: 44}) {
		t.Errorf("pointer not applied, got %v", p)
	}

	// Broadcasts reach the client.
	waitLen(t, hub, 1)
	hub.Broadcast([]byte{0x80}) // empty msgpack map
	kind, data, err := conn.ReadMessage()
	if err != nil || kind != websocket.BinaryMessage || len(data) != 1 {
		t.Errorf("expected broadcast frame, got %d %v %v", kind, data, err)
	}
}

func TestStreamRejectsBadToken(t *testing.T) {
	srv, _, _, _ := streamServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Errorf("expected 401, got %v", resp)
	}
}

package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/particles/internal/config"
	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/world"
)

func testSim() config.SimConfig {
	return config.SimConfig{
		WorldWidth:     100,
		WorldHeight:    100,
		CellSize:       4,
		Radius:         2,
		Capacity:       4,
		Workers:        1,
		ChunkSize:      8,
		DT:             0.001,
		Damping:        0.45,
		GridClear:      "touched",
		BarrierTimeout: time.Second,
		PausePoll:      time.Millisecond,
		QuickstepPoll:  time.Millisecond,
		FrameEvery:     1,
		Scene:          "empty",
	}
}

func newEngine(t *testing.T, ps ...world.Particle) *engine.Engine {
	t.Helper()
	eng, err := engine.New(testSim(), engine.Setup{
		Segments:  []world.Segment{world.NewSegment(world.NewVec2(0, 50), world.NewVec2(100, 50))},
		Particles: ps,
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return eng
}

func doJSON(t *testing.T, h gin.HandlerFunc, method string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	r := gin.New()
	r.Handle(method, "/test", h)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/test", &buf)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

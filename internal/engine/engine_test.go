package engine

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/playmatatu/particles/internal/config"
	"github.com/playmatatu/particles/internal/world"
)

func testConfig() config.SimConfig {
	return config.SimConfig{
		WorldWidth:     100,
		WorldHeight:    100,
		CellSize:       4,
		Radius:         2,
		Capacity:       64,
		Workers:        1,
		ChunkSize:      8,
		DT:             0.001,
		Gravity:        1000,
		Damping:        0.45,
		GridClear:      "touched",
		BarrierTimeout: time.Second,
		PausePoll:      time.Millisecond,
		QuickstepPoll:  time.Millisecond,
		FrameEvery:     1,
	}
}

func newTestEngine(t *testing.T, cfg config.SimConfig, setup Setup) *Engine {
	t.Helper()
	e, err := New(cfg, setup)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func at(x, y float64) world.Particle {
	return world.Particle{Pos: world.Vec2{X: x, Y: y}}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.SimConfig)
	}{
		{"cell smaller than diameter", func(c *config.SimConfig) { c.CellSize = 3 }},
		{"zero dt", func(c *config.SimConfig) { c.DT = 0 }},
		{"zero radius", func(c *config.SimConfig) { c.Radius = 0 }},
		{"empty world", func(c *config.SimConfig) { c.WorldWidth = 0 }},
		{"no capacity", func(c *config.SimConfig) { c.Capacity = 0 }},
		{"bad clear mode", func(c *config.SimConfig) { c.GridClear = "sometimes" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg, Setup{}); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	cfg := testConfig()
	cfg.Capacity = 1
	if _, err := New(cfg, Setup{Particles: []world.Particle{at(1, 1), at(5, 5)}}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for overfull setup, got %v", err)
	}
}

func TestGravityEndToEnd(t *testing.T) {
	cfg := testConfig()
	e := newTestEngine(t, cfg, Setup{Particles: []world.Particle{at(50, 10)}})

	const steps = 50
	for i := 0; i < steps; i++ {
		if err := e.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	p := e.Store().At(0)
	wantV := cfg.Gravity * steps * cfg.DT
	// Semi-implicit Euler: y_N = y_0 + G*dt^2 * N(N+1)/2.
	wantY := 10 + cfg.Gravity*cfg.DT*cfg.DT*steps*(steps+1)/2
	if !near(p.Vel.Y, wantV) {
		t.Errorf("expected vy %v, got %v", wantV, p.Vel.Y)
	}
	if !near(p.Pos.Y, wantY) {
		t.Errorf("expected y %v, got %v", wantY, p.Pos.Y)
	}
	if p.Pos.X != 50 || p.Vel.X != 0 {
		t.Errorf("x should be untouched, got pos %v vel %v", p.Pos, p.Vel)
	}
	if e.StepCount() != steps || !near(e.Clock(), steps*cfg.DT) {
		t.Errorf("expected %d steps at t=%v, got %d at t=%v", steps, steps*cfg.DT, e.StepCount(), e.Clock())
	}
}

func TestThreadedGravityMatchesSerial(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 4
	cfg.StartPaused = true
	e := newTestEngine(t, cfg, Setup{Particles: []world.Particle{at(50, 10)}})
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	const steps = 20
	for i := 1; i <= steps; i++ {
		e.Controls().Step()
		want := uint64(i)
		// The frame is published once the step's last phase is done.
		waitFor(t, "step", func() bool { return e.Latest().Step >= want })
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if e.StepCount() != steps {
		t.Fatalf("expected exactly %d steps, got %d", steps, e.StepCount())
	}
	p := e.Store().At(0)
	if !near(p.Vel.Y, cfg.Gravity*steps*cfg.DT) {
		t.Errorf("expected vy %v, got %v", cfg.Gravity*steps*cfg.DT, p.Vel.Y)
	}
}

func TestPauseAndQuickstep(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 2
	cfg.StartPaused = true
	e := newTestEngine(t, cfg, Setup{Particles: []world.Particle{at(50, 50)}})
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	time.Sleep(30 * time.Millisecond)
	if n := e.StepCount(); n != 0 {
		t.Fatalf("paused engine advanced %d steps", n)
	}

	e.Controls().SetQuickstep(true)
	waitFor(t, "quickstep progress", func() bool { return e.StepCount() >= 5 })
	e.Controls().SetQuickstep(false)

	// One step may already be past the poll when quickstep is cleared.
	time.Sleep(10 * time.Millisecond)
	held := e.StepCount()
	time.Sleep(30 * time.Millisecond)
	if n := e.StepCount(); n != held {
		t.Fatalf("engine kept stepping after quickstep cleared: %d -> %d", held, n)
	}

	e.Controls().Resume()
	waitFor(t, "free running", func() bool { return e.StepCount() >= held+20 })
}

func TestStartStopErrors(t *testing.T) {
	e := newTestEngine(t, testConfig(), Setup{})
	if err := e.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning, got %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Start(); !errors.Is(err, ErrRunning) {
		t.Errorf("expected ErrRunning, got %v", err)
	}
	if err := e.Step(); !errors.Is(err, ErrRunning) {
		t.Errorf("expected ErrRunning from Step, got %v", err)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// Restartable.
	if err := e.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestSerialCollisionSeparatesPair(t *testing.T) {
	cfg := testConfig()
	cfg.Gravity = 0
	e := newTestEngine(t, cfg, Setup{Particles: []world.Particle{at(50, 50), at(53, 50)}})
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	a, b := e.Store().At(0), e.Store().At(1)
	if !near(a.Vel.X, -450) || !near(b.Vel.X, 450) {
		t.Fatalf("expected -450/+450, got %v/%v", a.Vel.X, b.Vel.X)
	}
	if gap := b.Pos.X - a.Pos.X; !near(gap, 3.9) {
		t.Errorf("expected gap 3.9 after one step, got %v", gap)
	}
}

func TestDeleteRequest(t *testing.T) {
	cfg := testConfig()
	cfg.Gravity = 0
	setup := Setup{Particles: []world.Particle{at(10, 10), at(20, 20), at(80, 80), at(12, 10)}}
	e := newTestEngine(t, cfg, setup)

	e.Controls().RequestDelete(11, 10, 5)
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if n := e.Store().Len(); n != 2 {
		t.Fatalf("expected 2 survivors, got %d", n)
	}
	for _, p := range e.Store().Live() {
		if p.Pos.X < 15 {
			t.Errorf("particle %v should have been deleted", p.Pos)
		}
	}
}

func TestSpawnAtCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.Capacity = 2
	e := newTestEngine(t, cfg, Setup{Particles: []world.Particle{at(10, 10)}})

	first := make(chan int, 1)
	second := make(chan int, 1)
	e.Controls().RequestSpawn(SpawnRequest{Pos: world.Vec2{X: 30, Y: 30}, Vel: world.Vec2{X: 5}, Reply: first})
	e.Controls().RequestSpawn(SpawnRequest{Pos: world.Vec2{X: 60, Y: 60}, Reply: second})
	if err := e.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if idx := <-first; idx != 1 {
		t.Errorf("expected index 1, got %d", idx)
	}
	if idx := <-second; idx != world.NullPart {
		t.Errorf("expected NullPart at capacity, got %d", idx)
	}
	if got := e.Stats().SpawnFailures; got != 1 {
		t.Errorf("expected 1 spawn failure, got %d", got)
	}
	if v := e.Store().At(1).Vel.X; v != 5 {
		t.Errorf("spawned velocity not applied, got %v", v)
	}
}

func TestSpawnWhilePaused(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 2
	cfg.StartPaused = true
	e := newTestEngine(t, cfg, Setup{})
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	reply := make(chan int, 1)
	e.Controls().RequestSpawn(SpawnRequest{Pos: world.Vec2{X: 50, Y: 50}, Reply: reply})
	select {
	case idx := <-reply:
		if idx != 0 {
			t.Errorf("expected index 0, got %d", idx)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("spawn not serviced while paused")
	}
	if e.StepCount() != 0 {
		t.Errorf("spawning must not advance a paused engine")
	}
	waitFor(t, "frame with spawned particle", func() bool { return len(e.Latest().Particles) == 1 })
}

func TestEmitterStopsAtCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.Capacity = 5
	cfg.Gravity = 0
	em := world.Emitter{Pos: world.Vec2{X: 50, Y: 50}, Vel: world.Vec2{Y: 100}, Period: 1, Burst: 2, Spread: 5}
	e := newTestEngine(t, cfg, Setup{Emitters: []world.Emitter{em}})

	for i := 0; i < 5; i++ {
		if err := e.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if n := e.Store().Len(); n != 5 {
		t.Errorf("expected store full at 5, got %d", n)
	}
	if e.Stats().SpawnFailures == 0 {
		t.Error("expected spawn failures once full")
	}
}

func TestFramesPublished(t *testing.T) {
	cfg := testConfig()
	cfg.FrameEvery = 2
	e := newTestEngine(t, cfg, Setup{Particles: []world.Particle{at(50, 50)}})

	if f := e.Latest(); f == nil || f.Step != 0 || len(f.Particles) != 1 {
		t.Fatalf("expected initial frame, got %+v", f)
	}
	for i := 0; i < 3; i++ {
		if err := e.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if f := e.Latest(); f.Step != 2 {
		t.Errorf("expected latest frame at step 2, got %d", f.Step)
	}
	select {
	case f := <-e.Frames():
		if f.Step != 2 {
			t.Errorf("expected queued frame at step 2, got %d", f.Step)
		}
	default:
		t.Error("expected a queued frame")
	}

	// Frames are copies.
	f := e.Latest()
	e.Store().At(0).Pos.X = 1
	if f.Particles[0].Pos.X == 1 {
		t.Error("frame aliases the particle store")
	}
}

func TestParticleRestsOnShelf(t *testing.T) {
	cfg := testConfig()
	seg := world.NewSegment(world.Vec2{X: 10, Y: 60}, world.Vec2{X: 90, Y: 60})
	e := newTestEngine(t, cfg, Setup{
		Segments:  []world.Segment{seg},
		Particles: []world.Particle{at(50, 55)},
	})
	for i := 0; i < 2000; i++ {
		if err := e.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	p := e.Store().At(0)
	if math.IsNaN(p.Pos.Y) || p.Pos.Y > 60 {
		t.Errorf("particle fell through the shelf: %v", p.Pos)
	}
	if p.Pos.Y < 56 {
		t.Errorf("expected particle resting on the shelf, got %v", p.Pos)
	}
}

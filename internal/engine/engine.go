// Package engine advances a particle world in fixed timesteps across a pool
// of worker goroutines.
//
// Workers share the particle arena without locks. Every parallel phase writes
// only the particles of the ranges a worker claimed: collision reads the
// projected positions snapshotted by the force phase and corrects the
// visiting particle alone, so a pair is resolved by two symmetric visits.
// The grid's per-cell counters are the only shared state updated atomically.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playmatatu/particles/internal/config"
	"github.com/playmatatu/particles/internal/grid"
	"github.com/playmatatu/particles/internal/workers"
	"github.com/playmatatu/particles/internal/world"
)

var (
	ErrInvalidConfig = errors.New("invalid simulation config")
	ErrRunning       = errors.New("engine is running")
	ErrNotRunning    = errors.New("engine is not running")
)

// Task ids, one claim counter per parallel phase.
const (
	taskForces = iota
	taskCollide
	taskContain
	taskCount
)

// Setup is the initial world content.
type Setup struct {
	Segments  []world.Segment
	Zones     []world.Zone
	Emitters  []world.Emitter
	Particles []world.Particle
}

type Engine struct {
	cfg      config.SimConfig
	store    *world.ParticleStore
	segments []world.Segment
	zones    []world.Zone
	emitters []world.Emitter
	grid     *grid.Grid
	coord    *workers.Coordinator
	controls *Controls

	base Params
	// prm and live are written by the leader before the parallel phases of a
	// step and only read by workers until the step's last barrier.
	prm  Params
	live int
	// proj holds each particle's projected position after velocity
	// integration. Collision reads it so every by-particle visit sees the
	// same pre-collision state.
	proj []world.Vec2

	step  atomic.Uint64
	clock atomicFloat

	spawnBuf  []SpawnRequest
	saturated bool

	spawnFailures atomic.Int64
	lastTimeouts  int64

	frames chan *Frame
	latest atomic.Pointer[Frame]

	statsMu   sync.Mutex
	statsAt   time.Time
	statsStep uint64

	runMu   sync.Mutex
	running atomic.Bool
	wg      sync.WaitGroup
}

// New validates cfg, builds the grid and loads setup into a fresh world.
func New(cfg config.SimConfig, setup Setup) (*Engine, error) {
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	mode, err := grid.ParseClearMode(cfg.GridClear)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	g, err := grid.New(cfg.WorldWidth, cfg.WorldHeight, cfg.CellSize, mode, cfg.GridProjected)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	store, err := world.NewParticleStore(cfg.Capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(setup.Particles) > cfg.Capacity {
		return nil, fmt.Errorf("%w: %d initial particles exceed capacity %d",
			ErrInvalidConfig, len(setup.Particles), cfg.Capacity)
	}
	for _, p := range setup.Particles {
		idx := store.Create(p.Pos.X, p.Pos.Y)
		*store.At(idx) = p
	}

	segs := append([]world.Segment(nil), setup.Segments...)
	binned, skipped := g.BinSegments(segs)
	if skipped > 0 {
		log.Printf("[GRID] %d segments binned, %d skipped (not axis-aligned)", binned, skipped)
	}

	e := &Engine{
		cfg:      cfg,
		store:    store,
		segments: segs,
		zones:    append([]world.Zone(nil), setup.Zones...),
		emitters: append([]world.Emitter(nil), setup.Emitters...),
		grid:     g,
		coord:    workers.New(taskCount),
		controls: &Controls{},
		frames:   make(chan *Frame, 1),
		statsAt:  time.Now(),
		proj:     make([]world.Vec2, cfg.Capacity),
	}
	g.Reserve(cfg.Capacity)
	e.base = Params{
		Radius:          cfg.Radius,
		Width:           cfg.WorldWidth,
		Height:          cfg.WorldHeight,
		CorrectVortex:   cfg.CorrectVortex,
		GuardDegenerate: cfg.GuardDegenerate,
	}

	c := e.controls
	c.SetDT(cfg.DT)
	c.SetGravity(cfg.Gravity)
	c.SetDamping(cfg.Damping)
	c.SetTranslationForce(cfg.TranslationForce)
	c.SetRotationForce(cfg.RotationForce)
	c.SetForceRange(cfg.ForceRange)
	c.SetPointGravityScale(cfg.PointGravityScale)
	c.SetFluidFriction(cfg.FluidFriction)
	c.SetStaticFriction(cfg.StaticFriction)
	c.SetPoint(cfg.WorldWidth/2, cfg.WorldHeight/2)
	if cfg.StartPaused {
		c.Pause()
	}

	e.prm = c.params(e.base)
	e.publish()
	return e, nil
}

func validate(cfg *config.SimConfig) error {
	switch {
	case cfg.WorldWidth <= 0 || cfg.WorldHeight <= 0:
		return fmt.Errorf("%w: world size %gx%g", ErrInvalidConfig, cfg.WorldWidth, cfg.WorldHeight)
	case cfg.Radius <= 0:
		return fmt.Errorf("%w: radius %g", ErrInvalidConfig, cfg.Radius)
	case cfg.CellSize < 2*cfg.Radius:
		return fmt.Errorf("%w: cell size %g smaller than particle diameter %g",
			ErrInvalidConfig, cfg.CellSize, 2*cfg.Radius)
	case cfg.DT <= 0:
		return fmt.Errorf("%w: dt %g", ErrInvalidConfig, cfg.DT)
	case cfg.Capacity <= 0:
		return fmt.Errorf("%w: capacity %d", ErrInvalidConfig, cfg.Capacity)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.ChunkSize < 1 {
		cfg.ChunkSize = 1
	}
	if cfg.FrameEvery < 1 {
		cfg.FrameEvery = 1
	}
	if cfg.PausePoll <= 0 {
		cfg.PausePoll = 10 * time.Millisecond
	}
	if cfg.QuickstepPoll <= 0 {
		cfg.QuickstepPoll = time.Millisecond
	}
	return nil
}

func (e *Engine) Controls() *Controls         { return e.controls }
func (e *Engine) Store() *world.ParticleStore { return e.store }
func (e *Engine) Grid() *grid.Grid            { return e.grid }
func (e *Engine) Config() config.SimConfig    { return e.cfg }
func (e *Engine) Segments() []world.Segment   { return e.segments }
func (e *Engine) Zones() []world.Zone         { return e.zones }
func (e *Engine) Running() bool               { return e.running.Load() }
func (e *Engine) StepCount() uint64           { return e.step.Load() }
func (e *Engine) Clock() float64              { return e.clock.Get() }
func (e *Engine) BarrierTimeouts() int64      { return e.coord.Timeouts() }

// Start launches the worker pool.
func (e *Engine) Start() error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.running.Load() {
		return ErrRunning
	}
	e.coord.Reset()
	e.running.Store(true)
	n := e.cfg.Workers
	e.wg.Add(n)
	for i := 0; i < n; i++ {
		go e.work()
	}
	log.Printf("[ENGINE] started: %d workers, %d/%d particles, grid %dx%d (%s clear)",
		n, e.store.Len(), e.store.Cap(), e.grid.Cols(), e.grid.Rows(), e.grid.Mode())
	return nil
}

// Stop releases any worker waiting on a barrier and waits for the pool to
// exit. A phase already in progress runs to completion.
func (e *Engine) Stop() error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if !e.running.Load() {
		return ErrNotRunning
	}
	e.running.Store(false)
	e.coord.Stop()
	e.wg.Wait()
	e.publish()
	log.Printf("[ENGINE] stopped at step %d (t=%.4f)", e.step.Load(), e.clock.Get())
	return nil
}

// Run starts the pool and stops it when ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return e.Stop()
}

func (e *Engine) work() {
	defer e.wg.Done()
	n := e.cfg.Workers
	timeout := e.cfg.BarrierTimeout
	chunk := e.cfg.ChunkSize

	for {
		if !e.coord.Synchronize(n, timeout, e.lead, nil) || !e.running.Load() {
			if !e.running.Load() {
				return
			}
			continue
		}
		live := e.live

		e.coord.LoadRepartition(taskForces, live, chunk, e.forceRange)
		if !e.coord.Synchronize(n, timeout, nil, nil) {
			continue
		}
		e.coord.LoadRepartition(taskCollide, live, chunk, e.collideRange)
		if !e.coord.Synchronize(n, timeout, nil, nil) {
			continue
		}
		e.coord.LoadRepartition(taskContain, live, chunk, e.containRange)
		e.coord.Synchronize(n, timeout, nil, e.finishStep)
	}
}

// lead is the serial phase at the top of every step. It services pending
// requests, then holds the pool while paused, polling the controls until a
// step is allowed or the engine stops.
func (e *Engine) lead() {
	c := e.controls
	for {
		if e.serviceRequests() {
			e.publish()
		}
		if !e.running.Load() {
			return
		}
		if !c.Paused() || c.consumeStep() {
			break
		}
		if c.Quickstep() {
			time.Sleep(e.cfg.QuickstepPoll)
			break
		}
		time.Sleep(e.cfg.PausePoll)
	}

	if t := e.coord.Timeouts(); t != e.lastTimeouts {
		log.Printf("[ENGINE] %d barrier round(s) timed out", t-e.lastTimeouts)
		e.lastTimeouts = t
	}
	e.prepareStep()
}

// serviceRequests applies a pending delete and queued spawns. It reports
// whether the particle set changed.
func (e *Engine) serviceRequests() bool {
	changed := false
	if center, r, ok := e.controls.takeDelete(); ok {
		if e.store.DeleteInRadius(center, r) > 0 {
			changed = true
		}
	}
	e.spawnBuf = e.controls.takeSpawns(e.spawnBuf)
	for i := range e.spawnBuf {
		req := &e.spawnBuf[i]
		idx := e.store.Create(req.Pos.X, req.Pos.Y)
		if idx != world.NullPart {
			p := e.store.At(idx)
			p.Vel = req.Vel
			p.Color = req.Color
			changed = true
		}
		e.noteSpawn(idx != world.NullPart)
		if req.Reply != nil {
			select {
			case req.Reply <- idx:
			default:
			}
		}
		*req = SpawnRequest{}
	}
	return changed
}

// prepareStep samples parameters, advances the clock, runs emitters and
// rebuilds the grid for the coming step.
func (e *Engine) prepareStep() {
	e.prm = e.controls.params(e.base)
	step := e.step.Add(1)
	e.clock.Set(e.clock.Get() + e.prm.DT)

	for i := range e.emitters {
		created, full := e.emitters[i].Emit(e.store, step)
		if full {
			e.noteSpawn(false)
		} else if created > 0 {
			e.noteSpawn(true)
		}
	}

	e.live = e.store.Len()
	e.grid.Rebuild(e.store.Live(), e.prm.DT)
	if n := e.grid.Overflow(); n > 0 {
		log.Printf("[GRID] step %d: %d particles dropped from full cells", step, n)
	}
	e.coord.PrepNewWorkLoop()
}

func (e *Engine) noteSpawn(ok bool) {
	if !ok {
		e.spawnFailures.Add(1)
	}
	switch {
	case !ok && !e.saturated:
		e.saturated = true
		log.Printf("[ENGINE] capacity %d reached, spawning suspended", e.store.Cap())
	case ok && e.saturated:
		e.saturated = false
		log.Printf("[ENGINE] spawning resumed at %d/%d particles", e.store.Len(), e.store.Cap())
	}
}

// finishStep runs once all workers have integrated positions.
func (e *Engine) finishStep() {
	if e.step.Load()%uint64(e.cfg.FrameEvery) == 0 {
		e.publish()
	}
}

// forceRange clears acceleration, applies the user force and gravity, then
// integrates velocity for particles [start, end) and records their
// projected positions.
func (e *Engine) forceRange(start, end int) {
	ps := e.store.Items()
	prm := &e.prm
	for i := start; i < end; i++ {
		p := &ps[i]
		p.Acc = world.Vec2{}
		applyUserForce(p, prm)
		applyGravity(p, prm.Gravity)
		integrateVelocity(p, prm)
		e.proj[i] = p.Projected(prm.DT)
	}
}

// collideRange resolves each particle of [start, end) against every other
// particle in its 3x3 cell neighbourhood. Each visit corrects only its own
// particle; the partner gets the opposite correction on its own visit.
func (e *Engine) collideRange(start, end int) {
	ps := e.store.Items()
	prm := &e.prm
	proj := e.proj
	for i := start; i < end; i++ {
		c, ok := e.grid.Home(i)
		if !ok {
			continue
		}
		self := int32(i)
		e.grid.ForEachNeighbor(c, func(j int32) {
			if j != self {
				correctSelf(&ps[i], proj[i], proj[j], prm)
			}
		})
	}
}

// containRange resolves segments and borders, then integrates position.
func (e *Engine) containRange(start, end int) {
	ps := e.store.Items()
	prm := &e.prm
	for i := start; i < end; i++ {
		p := &ps[i]
		if len(e.segments) > 0 {
			if c, ok := e.grid.Home(i); ok {
				e.grid.ForEachSegmentNear(c, func(s int32) {
					collideSegment(p, &e.segments[s], prm)
				})
			}
		}
		containBorders(p, prm)
		integratePosition(p, prm.DT)
	}
}

// Step runs one full iteration on the calling goroutine, pausing controls
// aside. Particle pairs are visited once each through the grid's unordered
// pair scan. It fails while the worker pool is running.
func (e *Engine) Step() error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.running.Load() {
		return ErrRunning
	}
	e.serviceRequests()
	e.prepareStep()

	n := e.live
	e.forceRange(0, n)
	ps := e.store.Items()
	prm := &e.prm
	e.grid.ForEachPair(func(a, b int32) {
		collidePair(&ps[a], &ps[b], prm)
	})
	e.containRange(0, n)
	e.finishStep()
	return nil
}

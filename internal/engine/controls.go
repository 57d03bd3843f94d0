package engine

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/playmatatu/particles/internal/world"
)

// atomicFloat stores a float64 as its bit pattern.
type atomicFloat struct {
	bits atomic.Uint64
}

func (f *atomicFloat) Set(v float64) { f.bits.Store(math.Float64bits(v)) }
func (f *atomicFloat) Get() float64  { return math.Float64frombits(f.bits.Load()) }

// Controls are the externally driven flags and parameters. Collaborators
// write them from any goroutine; the engine samples them once per step in
// its serial phase, so a change takes effect at the next step boundary.
type Controls struct {
	paused    atomic.Bool
	step      atomic.Bool
	quickstep atomic.Bool

	mode           atomic.Int32
	pointX, pointY atomicFloat

	dt             atomicFloat
	gravity        atomicFloat
	damping        atomicFloat
	translation    atomicFloat
	rotation       atomicFloat
	forceRange     atomicFloat
	pointScale     atomicFloat
	fluidFriction  atomicFloat
	staticFriction atomic.Bool

	delPending       atomic.Bool
	delX, delY, delR atomicFloat

	spawnMu  sync.Mutex
	spawnReq []SpawnRequest
}

// SpawnRequest asks the engine to create one particle. When Reply is set it
// receives the new index or world.NullPart.
type SpawnRequest struct {
	Pos   world.Vec2
	Vel   world.Vec2
	Color uint32
	Reply chan int
}

func (c *Controls) Pause()       { c.paused.Store(true) }
func (c *Controls) Resume()      { c.paused.Store(false) }
func (c *Controls) Paused() bool { return c.paused.Load() }
func (c *Controls) TogglePause() { c.paused.Store(!c.paused.Load()) }

// Step requests exactly one iteration while paused.
func (c *Controls) Step() { c.step.Store(true) }

func (c *Controls) consumeStep() bool { return c.step.CompareAndSwap(true, false) }

// SetQuickstep makes a paused engine iterate back-to-back until cleared.
func (c *Controls) SetQuickstep(on bool) { c.quickstep.Store(on) }
func (c *Controls) Quickstep() bool      { return c.quickstep.Load() }

func (c *Controls) SetForceMode(m ForceMode) { c.mode.Store(int32(m)) }
func (c *Controls) ForceMode() ForceMode     { return ForceMode(c.mode.Load()) }

// SetPoint sets the world coordinate targeted by the user force.
func (c *Controls) SetPoint(x, y float64) {
	c.pointX.Set(x)
	c.pointY.Set(y)
}

func (c *Controls) Point() world.Vec2 {
	return world.Vec2{X: c.pointX.Get(), Y: c.pointY.Get()}
}

func (c *Controls) SetDT(dt float64) { c.dt.Set(dt) }
func (c *Controls) DT() float64      { return c.dt.Get() }

func (c *Controls) SetGravity(g float64)           { c.gravity.Set(g) }
func (c *Controls) SetDamping(k float64)           { c.damping.Set(k) }
func (c *Controls) SetTranslationForce(f float64)  { c.translation.Set(f) }
func (c *Controls) SetRotationForce(f float64)     { c.rotation.Set(f) }
func (c *Controls) SetForceRange(r float64)        { c.forceRange.Set(r) }
func (c *Controls) SetPointGravityScale(s float64) { c.pointScale.Set(s) }
func (c *Controls) SetFluidFriction(k float64)     { c.fluidFriction.Set(k) }
func (c *Controls) SetStaticFriction(on bool)      { c.staticFriction.Store(on) }

// RequestDelete asks the engine to remove every particle within radius of
// (x, y) at its next serial phase. A newer request replaces a pending one.
func (c *Controls) RequestDelete(x, y, radius float64) {
	c.delX.Set(x)
	c.delY.Set(y)
	c.delR.Set(radius)
	c.delPending.Store(true)
}

func (c *Controls) takeDelete() (center world.Vec2, radius float64, ok bool) {
	if !c.delPending.CompareAndSwap(true, false) {
		return world.Vec2{}, 0, false
	}
	return world.Vec2{X: c.delX.Get(), Y: c.delY.Get()}, c.delR.Get(), true
}

// RequestSpawn queues a particle creation for the next serial phase.
func (c *Controls) RequestSpawn(req SpawnRequest) {
	c.spawnMu.Lock()
	c.spawnReq = append(c.spawnReq, req)
	c.spawnMu.Unlock()
}

func (c *Controls) takeSpawns(dst []SpawnRequest) []SpawnRequest {
	c.spawnMu.Lock()
	dst = append(dst[:0], c.spawnReq...)
	c.spawnReq = c.spawnReq[:0]
	c.spawnMu.Unlock()
	return dst
}

// params samples the live parameters for one step.
func (c *Controls) params(base Params) Params {
	p := base
	p.DT = c.dt.Get()
	p.Gravity = c.gravity.Get()
	p.Damping = c.damping.Get()
	p.Translation = c.translation.Get()
	p.Rotation = c.rotation.Get()
	p.Range = c.forceRange.Get()
	p.PointScale = c.pointScale.Get()
	p.FluidFriction = c.fluidFriction.Get()
	p.StaticFriction = c.staticFriction.Load()
	p.Mode = c.ForceMode()
	p.Point = c.Point()
	return p
}

package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/playmatatu/particles/internal/world"
)

// ForceMode selects the single user force applied each step.
type ForceMode int32

const (
	ForceNone ForceMode = iota
	ForceTranslation
	ForceTranslationRanged
	ForceRotation
	ForceRotationRanged
	ForceVortex
	ForceVortexRanged
	ForcePointGravity
)

var forceNames = [...]string{
	ForceNone:              "none",
	ForceTranslation:       "translation",
	ForceTranslationRanged: "translation_ranged",
	ForceRotation:          "rotation",
	ForceRotationRanged:    "rotation_ranged",
	ForceVortex:            "vortex",
	ForceVortexRanged:      "vortex_ranged",
	ForcePointGravity:      "point_gravity",
}

func (m ForceMode) String() string {
	if m < 0 || int(m) >= len(forceNames) {
		return fmt.Sprintf("force(%d)", int32(m))
	}
	return forceNames[m]
}

// ParseForceMode accepts the names returned by String.
func ParseForceMode(s string) (ForceMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range forceNames {
		if name == s {
			return ForceMode(i), nil
		}
	}
	return ForceNone, fmt.Errorf("unknown force mode %q", s)
}

// Params is the per-step parameter set. The serial phase samples it from
// Controls; workers only read it.
type Params struct {
	DT             float64
	Radius         float64
	Gravity        float64
	Damping        float64
	Translation    float64
	Rotation       float64
	Range          float64
	PointScale     float64
	FluidFriction  float64
	StaticFriction bool

	Mode  ForceMode
	Point world.Vec2

	Width, Height float64

	CorrectVortex   bool
	GuardDegenerate bool
}

// degenerateEps is the separation below which GuardDegenerate skips a
// correction.
const degenerateEps = 1e-9

func applyUserForce(p *world.Particle, prm *Params) {
	switch prm.Mode {
	case ForceNone:
	case ForceTranslation:
		attraction(p, prm.Point, prm.Translation, math.Inf(1))
	case ForceTranslationRanged:
		attraction(p, prm.Point, prm.Translation, prm.Range)
	case ForceRotation:
		rotation(p, prm.Point, prm.Rotation, math.Inf(1))
	case ForceRotationRanged:
		rotation(p, prm.Point, prm.Rotation, prm.Range)
	case ForceVortex:
		vortex(p, prm, math.Inf(1))
	case ForceVortexRanged:
		vortex(p, prm, prm.Range)
	case ForcePointGravity:
		pointGravity(p, prm.Point, prm.PointScale)
	}
}

// attraction pulls toward target with magnitude force/distance.
func attraction(p *world.Particle, target world.Vec2, force, rng float64) {
	d := target.Minus(p.Pos)
	dist := d.Magnitude()
	if dist >= rng {
		return
	}
	dir := d.Times(1 / dist)
	p.Acc = p.Acc.Plus(dir.Times(force / dist))
}

// rotation pushes tangentially (counter-clockwise around target) with
// magnitude force/distance.
func rotation(p *world.Particle, target world.Vec2, force, rng float64) {
	d := target.Minus(p.Pos)
	dist := d.Magnitude()
	if dist >= rng {
		return
	}
	dir := d.Times(1 / dist)
	p.Acc = p.Acc.Plus(dir.LeftNormal().Times(force / dist))
}

// vortex combines the radial and tangential terms. Unless CorrectVortex is
// set, the tangential y term reuses dir.Y where rotation uses dir.X, which
// is the long-standing behavior of this force.
func vortex(p *world.Particle, prm *Params, rng float64) {
	d := prm.Point.Minus(p.Pos)
	dist := d.Magnitude()
	if dist >= rng {
		return
	}
	dir := d.Times(1 / dist)
	radial := prm.Translation / dist
	tangential := prm.Rotation / dist
	p.Acc.X += dir.X*radial - dir.Y*tangential
	if prm.CorrectVortex {
		p.Acc.Y += dir.Y*radial + dir.X*tangential
	} else {
		p.Acc.Y += dir.Y*radial + dir.Y*tangential
	}
}

// pointGravity is bounded near the target: (atan(d)/d)^2 tends to 1 as d
// goes to zero, so the pull fades linearly with the offset.
func pointGravity(p *world.Particle, target world.Vec2, scale float64) {
	d := target.Minus(p.Pos)
	dist := d.Magnitude()
	f := math.Atan(dist) / dist
	p.Acc = p.Acc.Plus(d.Times(f * f * scale))
}

func applyGravity(p *world.Particle, g float64) {
	p.Acc.Y += g
}

// integrateVelocity applies v += a*dt followed by the enabled frictions.
func integrateVelocity(p *world.Particle, prm *Params) {
	p.Vel.X += p.Acc.X * prm.DT
	p.Vel.Y += p.Acc.Y * prm.DT
	if prm.FluidFriction > 0 {
		fluidFriction(p, prm.FluidFriction, prm.DT)
	}
	if prm.StaticFriction {
		staticFriction(p)
	}
}

func staticFriction(p *world.Particle) {
	if p.Vel.MagnitudeSquared() < 1 {
		p.Vel = world.Vec2{}
	}
}

func fluidFriction(p *world.Particle, k, dt float64) {
	p.Vel = p.Vel.Times(1 - k*dt)
}

func integratePosition(p *world.Particle, dt float64) {
	p.Pos.X += p.Vel.X * dt
	p.Pos.Y += p.Vel.Y * dt
}

package engine

import (
	"math"

	"github.com/playmatatu/particles/internal/world"
)

// collidePair separates two overlapping particles. Overlap is measured
// between projected positions; both velocities receive an opposite
// correction of (2r-d)/dt*damping along the separation axis so the
// following position integration pulls them apart.
func collidePair(a, b *world.Particle, prm *Params) {
	dt := prm.DT
	dx := (b.Pos.X + b.Vel.X*dt) - (a.Pos.X + a.Vel.X*dt)
	dy := (b.Pos.Y + b.Vel.Y*dt) - (a.Pos.Y + a.Vel.Y*dt)
	reach := 2 * prm.Radius
	dist2 := dx*dx + dy*dy
	if dist2 >= reach*reach {
		return
	}
	dist := math.Sqrt(dist2)
	if prm.GuardDegenerate && dist < degenerateEps {
		return
	}
	corr := (reach - dist) / dt * prm.Damping / dist
	a.Vel.X -= dx * corr
	a.Vel.Y -= dy * corr
	b.Vel.X += dx * corr
	b.Vel.Y += dy * corr
}

// correctSelf applies one particle's half of the pair correction: the same
// (2r-d)/dt*damping as collidePair, measured between the two projected
// positions, written to p alone.
func correctSelf(p *world.Particle, self, other world.Vec2, prm *Params) {
	dx := other.X - self.X
	dy := other.Y - self.Y
	reach := 2 * prm.Radius
	dist2 := dx*dx + dy*dy
	if dist2 >= reach*reach {
		return
	}
	dist := math.Sqrt(dist2)
	if prm.GuardDegenerate && dist < degenerateEps {
		return
	}
	corr := (reach - dist) / prm.DT * prm.Damping / dist
	p.Vel.X -= dx * corr
	p.Vel.Y -= dy * corr
}

// collideSegment pushes a particle off a static segment. The projected
// position is resolved against its perpendicular foot on the segment when
// that falls within the segment, otherwise against the nearer endpoint.
func collideSegment(p *world.Particle, s *world.Segment, prm *Params) {
	dt := prm.DT
	pp := p.Projected(dt)
	a := s.A()
	t := pp.Minus(a).Dot(s.Dir())

	var contact world.Vec2
	switch {
	case t <= 0:
		contact = a
	case t >= s.Length():
		contact = s.B()
	default:
		contact = a.Plus(s.Dir().Times(t))
	}

	n := pp.Minus(contact)
	dist2 := n.MagnitudeSquared()
	r := prm.Radius
	if dist2 >= r*r {
		return
	}
	dist := math.Sqrt(dist2)
	if prm.GuardDegenerate && dist < degenerateEps {
		return
	}
	p.Vel = p.Vel.Plus(n.Times((r - dist) / dt / dist))
}

// containBorders keeps a particle inside [0,width) x [0,height): when a
// projected coordinate is within radius of an edge the velocity gains
// (radius - gap)/dt away from that edge.
func containBorders(p *world.Particle, prm *Params) {
	dt := prm.DT
	r := prm.Radius
	px := p.Pos.X + p.Vel.X*dt
	py := p.Pos.Y + p.Vel.Y*dt

	if px < r {
		p.Vel.X += (r - px) / dt
	} else if gap := prm.Width - px; gap < r {
		p.Vel.X -= (r - gap) / dt
	}
	if py < r {
		p.Vel.Y += (r - py) / dt
	} else if gap := prm.Height - py; gap < r {
		p.Vel.Y -= (r - gap) / dt
	}
}

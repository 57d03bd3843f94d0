package world

import (
	"fmt"
	"sync/atomic"
)

// NullPart is the sentinel index meaning "no particle".
const NullPart = -1

// Particle is the physics state of one particle. Color is carried through
// for collaborators and never read by the simulation.
type Particle struct {
	Pos   Vec2   `json:"pos"`
	Vel   Vec2   `json:"vel"`
	Acc   Vec2   `json:"acc"`
	Color uint32 `json:"color"`
}

// Projected returns the position at the end of a step of length dt.
func (p *Particle) Projected(dt float64) Vec2 {
	return Vec2{X: p.Pos.X + p.Vel.X*dt, Y: p.Pos.Y + p.Vel.Y*dt}
}

// ParticleStore is a fixed-capacity arena of particles. The prefix
// [0, Len()) is live; the rest of the backing array is don't-care.
//
// An index identifies a particle only until the next Delete, which moves the
// last live particle into the freed slot.
type ParticleStore struct {
	items  []Particle
	active atomic.Int64
}

// NewParticleStore allocates a store able to hold capacity particles.
func NewParticleStore(capacity int) (*ParticleStore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("particle capacity must be positive, got %d", capacity)
	}
	return &ParticleStore{items: make([]Particle, capacity)}, nil
}

// Len returns the number of live particles.
func (s *ParticleStore) Len() int {
	return int(s.active.Load())
}

func (s *ParticleStore) Cap() int {
	return len(s.items)
}

// Items returns the whole backing array, live prefix first.
func (s *ParticleStore) Items() []Particle {
	return s.items
}

// Live returns the live prefix.
func (s *ParticleStore) Live() []Particle {
	return s.items[:s.Len()]
}

// At returns a pointer into the arena. The pointer is valid until the next
// Delete.
func (s *ParticleStore) At(i int) *Particle {
	return &s.items[i]
}

// Create appends a particle at rest at (x, y) and returns its index, or
// NullPart when the store is full.
func (s *ParticleStore) Create(x, y float64) int {
	n := s.Len()
	if n >= len(s.items) {
		return NullPart
	}
	s.items[n] = Particle{Pos: Vec2{X: x, Y: y}}
	s.active.Store(int64(n + 1))
	return n
}

// Delete removes particle i by moving the last live particle into its slot.
// Returns false when i is not a live index.
func (s *ParticleStore) Delete(i int) bool {
	n := s.Len()
	if i < 0 || i >= n {
		return false
	}
	last := n - 1
	if i != last {
		s.items[i] = s.items[last]
	}
	s.active.Store(int64(last))
	return true
}

// DeleteInRadius removes every live particle whose position lies strictly
// within radius of center and returns how many were removed.
func (s *ParticleStore) DeleteInRadius(center Vec2, radius float64) int {
	r2 := radius * radius
	removed := 0
	// Walking down keeps the swapped-in particle already visited.
	for i := s.Len() - 1; i >= 0; i-- {
		if s.items[i].Pos.Minus(center).MagnitudeSquared() < r2 {
			s.Delete(i)
			removed++
		}
	}
	return removed
}

// Reset drops every live particle.
func (s *ParticleStore) Reset() {
	s.active.Store(0)
}

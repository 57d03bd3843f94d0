package grid

import "sync/atomic"

// Cell capacities. The cell size and particle radius must be chosen so that
// no cell ever receives more than CellParticles particles; inserts past the
// capacity are dropped and counted as overflow.
const (
	CellParticles = 4
	CellSegments  = 2
)

// Cell holds indices into the particle and segment arrays. It never owns
// particle data.
type Cell struct {
	count     atomic.Int32
	particles [CellParticles]int32
	segCount  int32
	segments  [CellSegments]int32
}

// Len returns the number of particle indices stored, clamped to capacity.
func (c *Cell) Len() int {
	n := int(c.count.Load())
	if n > CellParticles {
		return CellParticles
	}
	return n
}

// Particles returns a view of the stored particle indices.
// The view is only valid until the next Clear.
func (c *Cell) Particles() []int32 {
	return c.particles[:c.Len()]
}

func (c *Cell) Segments() []int32 {
	return c.segments[:c.segCount]
}

// Overflowed reports whether more particles were routed here than fit.
func (c *Cell) Overflowed() bool {
	return c.count.Load() > CellParticles
}

// insert claims a slot with an atomic fetch-add. It returns the claimed
// slot, which may be past capacity.
func (c *Cell) insert(idx int32) int32 {
	slot := c.count.Add(1) - 1
	if slot < CellParticles {
		c.particles[slot] = idx
	}
	return slot
}

func (c *Cell) addSegment(idx int32) bool {
	if c.segCount >= CellSegments {
		return false
	}
	c.segments[c.segCount] = idx
	c.segCount++
	return true
}

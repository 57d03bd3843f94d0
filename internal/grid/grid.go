package grid

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/playmatatu/particles/internal/world"
)

// Reach is the cell radius of the unordered pair scan.
const Reach = 2

// Coord is a cell coordinate.
type Coord struct {
	X, Y int
}

// NullCell is returned by Locate for positions outside the world.
var NullCell = Coord{X: -1, Y: -1}

// ClearMode selects how cells are emptied before a rebuild.
type ClearMode uint8

const (
	// ClearTouched empties only the cells that received a particle during
	// the previous fill. Cost is proportional to the touched cells.
	ClearTouched ClearMode = iota
	// ClearBlind empties every cell. Cost is proportional to the grid size.
	ClearBlind
)

func (m ClearMode) String() string {
	if m == ClearBlind {
		return "blind"
	}
	return "touched"
}

// ParseClearMode accepts "blind" or "touched".
func ParseClearMode(s string) (ClearMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "touched", "":
		return ClearTouched, nil
	case "blind":
		return ClearBlind, nil
	}
	return ClearTouched, fmt.Errorf("unknown grid clear mode %q", s)
}

// Grid is a uniform grid over [0, width) x [0, height). It is rebuilt from
// particle positions every step and is never a source of truth.
type Grid struct {
	width, height float64
	cellSize      float64
	invCell       float64
	cols, rows    int
	cells         []Cell

	mode ClearMode
	// projected places particles by their end-of-step position.
	projected bool

	touched    []int32
	touchedLen atomic.Int64
	overflow   atomic.Int64

	// homes[i] is the flat cell index particle i was binned in, or -1.
	homes []int32
}

// New sizes a grid of ceil(width/cellSize) x ceil(height/cellSize) cells.
func New(width, height, cellSize float64, mode ClearMode, projected bool) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("world size must be positive, got %vx%v", width, height)
	}
	if cellSize <= 0 {
		return nil, errors.New("cell size must be positive")
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	g := &Grid{
		width:     width,
		height:    height,
		cellSize:  cellSize,
		invCell:   1 / cellSize,
		cols:      cols,
		rows:      rows,
		cells:     make([]Cell, cols*rows),
		mode:      mode,
		projected: projected,
	}
	if mode == ClearTouched {
		g.touched = make([]int32, cols*rows)
	}
	return g, nil
}

func (g *Grid) Cols() int            { return g.cols }
func (g *Grid) Rows() int            { return g.rows }
func (g *Grid) CellSize() float64    { return g.cellSize }
func (g *Grid) Mode() ClearMode      { return g.mode }
func (g *Grid) Projected() bool      { return g.projected }
func (g *Grid) Size() (w, h float64) { return g.width, g.height }

// Locate maps a position to its cell. It returns NullCell and false when
// either coordinate is outside [0, size).
func (g *Grid) Locate(x, y float64) (Coord, bool) {
	if !(x >= 0 && x < g.width && y >= 0 && y < g.height) {
		return NullCell, false
	}
	cx := int(x * g.invCell)
	cy := int(y * g.invCell)
	// x*invCell can round up to cols for x just below width.
	if cx >= g.cols {
		cx = g.cols - 1
	}
	if cy >= g.rows {
		cy = g.rows - 1
	}
	return Coord{X: cx, Y: cy}, true
}

// Cell returns the cell at c. c must be inside the grid.
func (g *Grid) Cell(c Coord) *Cell {
	return &g.cells[c.Y*g.cols+c.X]
}

// Placement is the position a particle is binned by: its current position,
// or its projected one when the grid was built with projected placement.
func (g *Grid) Placement(p *world.Particle, dt float64) world.Vec2 {
	if g.projected {
		return p.Projected(dt)
	}
	return p.Pos
}

// Reserve sizes the per-particle home table for n particles. Insert only
// records homes for indices below the reserved size.
func (g *Grid) Reserve(n int) {
	if n <= len(g.homes) {
		return
	}
	homes := make([]int32, n)
	copy(homes, g.homes)
	for i := len(g.homes); i < n; i++ {
		homes[i] = -1
	}
	g.homes = homes
}

// Home returns the cell particle i was binned in by the last Insert, so
// lookups during a step agree with the rebuild even after velocities change.
func (g *Grid) Home(i int) (Coord, bool) {
	if i < 0 || i >= len(g.homes) || g.homes[i] < 0 {
		return NullCell, false
	}
	idx := int(g.homes[i])
	return Coord{X: idx % g.cols, Y: idx / g.cols}, true
}

// LocateParticle locates p by its placement position.
func (g *Grid) LocateParticle(p *world.Particle, dt float64) (Coord, bool) {
	pos := g.Placement(p, dt)
	return g.Locate(pos.X, pos.Y)
}

// Clear empties particle slots according to the clear mode. Segment slots
// are untouched.
func (g *Grid) Clear() {
	if g.mode == ClearBlind {
		for i := range g.cells {
			g.cells[i].count.Store(0)
		}
	} else {
		n := g.touchedLen.Load()
		for _, idx := range g.touched[:n] {
			g.cells[idx].count.Store(0)
		}
		g.touchedLen.Store(0)
	}
	g.overflow.Store(0)
}

// Insert bins particles [start, end) of ps. Concurrent calls over disjoint
// ranges are safe: slot claims go through each cell's atomic counter.
// Particles outside the world are not binned.
func (g *Grid) Insert(ps []world.Particle, start, end int, dt float64) {
	for i := start; i < end; i++ {
		c, ok := g.LocateParticle(&ps[i], dt)
		if !ok {
			if i < len(g.homes) {
				g.homes[i] = -1
			}
			continue
		}
		idx := int32(c.Y*g.cols + c.X)
		if i < len(g.homes) {
			g.homes[i] = idx
		}
		slot := g.cells[idx].insert(int32(i))
		if slot == 0 && g.mode == ClearTouched {
			g.touched[g.touchedLen.Add(1)-1] = idx
		}
		if slot >= CellParticles {
			g.overflow.Add(1)
		}
	}
}

// Rebuild clears the grid and bins every particle in ps, recording each
// particle's home cell.
func (g *Grid) Rebuild(ps []world.Particle, dt float64) {
	g.Reserve(len(ps))
	g.Clear()
	g.Insert(ps, 0, len(ps), dt)
}

// Overflow returns how many inserts were dropped since the last Clear.
func (g *Grid) Overflow() int {
	return int(g.overflow.Load())
}

// Touched returns how many distinct cells received particles since the last
// Clear. Always zero in blind mode.
func (g *Grid) Touched() int {
	return int(g.touchedLen.Load())
}

// BinSegments records segment indices in every cell each segment crosses.
// Only horizontal and vertical segments are binned; segments with extent on
// both axes are skipped. Cells already holding CellSegments segments drop
// further ones.
func (g *Grid) BinSegments(segs []world.Segment) (binned, skipped int) {
	for i := range g.cells {
		g.cells[i].segCount = 0
	}
	for i := range segs {
		s := &segs[i]
		lo, hi := s.Bounds()
		switch {
		case s.Horizontal():
			if lo.Y < 0 || lo.Y >= g.height {
				skipped++
				continue
			}
			cy := g.clampRow(lo.Y)
			x0, x1 := g.clampCol(lo.X), g.clampCol(hi.X)
			for cx := x0; cx <= x1; cx++ {
				g.cells[cy*g.cols+cx].addSegment(int32(i))
			}
		case s.Vertical():
			if lo.X < 0 || lo.X >= g.width {
				skipped++
				continue
			}
			cx := g.clampCol(lo.X)
			y0, y1 := g.clampRow(lo.Y), g.clampRow(hi.Y)
			for cy := y0; cy <= y1; cy++ {
				g.cells[cy*g.cols+cx].addSegment(int32(i))
			}
		default:
			skipped++
			continue
		}
		binned++
	}
	return binned, skipped
}

func (g *Grid) clampCol(x float64) int {
	c := int(math.Floor(x * g.invCell))
	return clamp(c, 0, g.cols-1)
}

func (g *Grid) clampRow(y float64) int {
	c := int(math.Floor(y * g.invCell))
	return clamp(c, 0, g.rows-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

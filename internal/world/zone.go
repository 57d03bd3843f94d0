package world

import "math"

// ZoneBehavior tags what a zone is for. The simulation only stores zones.
type ZoneBehavior uint8

const (
	ZoneNone ZoneBehavior = iota
	ZoneSpawn
	ZoneSink
	ZoneSlow
)

// Axis names the longer side of a zone.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

// Zone is an axis-aligned rectangle annotated with its span in grid cells.
type Zone struct {
	Min      Vec2         `json:"min"`
	Max      Vec2         `json:"max"`
	Behavior ZoneBehavior `json:"behavior"`
	// Inclusive cell span covered by the rectangle.
	CellMinX int  `json:"cell_min_x"`
	CellMinY int  `json:"cell_min_y"`
	CellMaxX int  `json:"cell_max_x"`
	CellMaxY int  `json:"cell_max_y"`
	Length   Axis `json:"length_axis"`
}

// NewZone normalizes the corners and computes the grid annotation for the
// given cell size.
func NewZone(a, b Vec2, behavior ZoneBehavior, cellSize float64) Zone {
	lo := Vec2{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)}
	hi := Vec2{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)}
	z := Zone{
		Min:      lo,
		Max:      hi,
		Behavior: behavior,
		CellMinX: int(math.Floor(lo.X / cellSize)),
		CellMinY: int(math.Floor(lo.Y / cellSize)),
		CellMaxX: int(math.Floor(hi.X / cellSize)),
		CellMaxY: int(math.Floor(hi.Y / cellSize)),
		Length:   AxisX,
	}
	if hi.Y-lo.Y > hi.X-lo.X {
		z.Length = AxisY
	}
	return z
}

// Contains reports whether p lies inside the rectangle, edges included.
func (z Zone) Contains(p Vec2) bool {
	return p.X >= z.Min.X && p.X <= z.Max.X && p.Y >= z.Min.Y && p.Y <= z.Max.Y
}

// Span returns the number of cells along the length axis and across it.
func (z Zone) Span() (along, across int) {
	w := z.CellMaxX - z.CellMinX + 1
	h := z.CellMaxY - z.CellMinY + 1
	if z.Length == AxisY {
		return h, w
	}
	return w, h
}

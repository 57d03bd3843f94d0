package world

import "math"

// Segment is a static obstacle between two endpoints. The unit direction and
// bounding box are computed once by NewSegment; a Segment must not be
// modified afterwards.
type Segment struct {
	a, b   Vec2
	dir    Vec2
	length float64
	lo, hi Vec2
}

// NewSegment builds a segment from a to b.
func NewSegment(a, b Vec2) Segment {
	d := b.Minus(a)
	length := d.Magnitude()
	var dir Vec2
	if length > 0 {
		dir = d.Times(1 / length)
	}
	return Segment{
		a:      a,
		b:      b,
		dir:    dir,
		length: length,
		lo:     Vec2{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
		hi:     Vec2{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)},
	}
}

func (s Segment) A() Vec2 { return s.a }
func (s Segment) B() Vec2 { return s.b }

// Dir is the unit vector from A to B.
func (s Segment) Dir() Vec2 { return s.dir }

func (s Segment) Length() float64 { return s.length }

// Bounds returns the axis-aligned bounding box.
func (s Segment) Bounds() (lo, hi Vec2) { return s.lo, s.hi }

func (s Segment) Horizontal() bool { return s.a.Y == s.b.Y }

func (s Segment) Vertical() bool { return s.a.X == s.b.X }

// SegmentView is the serializable form of a segment.
type SegmentView struct {
	A Vec2 `json:"a"`
	B Vec2 `json:"b"`
}

func (s Segment) View() SegmentView {
	return SegmentView{A: s.a, B: s.b}
}

package main

import (
	"math"

	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/world"
)

// shades go from one particle per terminal cell to packed.
var shades = []rune{'·', '░', '▒', '▓', '█'}

// viewport maps the world rectangle onto a cols x rows terminal area.
type viewport struct {
	cols, rows int
	sx, sy     float64 // world units per terminal cell
}

func newViewport(cols, rows int, worldW, worldH float64) viewport {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return viewport{cols: cols, rows: rows, sx: worldW / float64(cols), sy: worldH / float64(rows)}
}

// cell returns the terminal cell holding p.
func (v viewport) cell(p world.Vec2) (col, row int, ok bool) {
	col = int(math.Floor(p.X / v.sx))
	row = int(math.Floor(p.Y / v.sy))
	if col < 0 || row < 0 || col >= v.cols || row >= v.rows {
		return 0, 0, false
	}
	return col, row, true
}

// center returns the world point at the middle of a terminal cell.
func (v viewport) center(col, row int) world.Vec2 {
	return world.NewVec2((float64(col)+0.5)*v.sx, (float64(row)+0.5)*v.sy)
}

// raster is the per-cell occupancy of one frame.
type raster struct {
	count []int
	color []uint32
	max   int
}

func rasterize(v viewport, f *engine.Frame) raster {
	r := raster{count: make([]int, v.cols*v.rows), color: make([]uint32, v.cols*v.rows)}
	for i := range f.Particles {
		p := &f.Particles[i]
		col, row, ok := v.cell(p.Pos)
		if !ok {
			continue
		}
		k := row*v.cols + col
		r.count[k]++
		r.color[k] = p.Color
		if r.count[k] > r.max {
			r.max = r.count[k]
		}
	}
	return r
}

// shade picks a glyph for n particles given the count of the densest cell.
func shade(n, peak int) rune {
	if n <= 0 {
		return ' '
	}
	if peak <= 1 {
		return shades[0]
	}
	i := 1 + (n-1)*(len(shades)-1)/peak
	if i >= len(shades) {
		i = len(shades) - 1
	}
	return shades[i]
}

// segmentCells walks a segment in half-cell increments and reports each
// terminal cell it crosses.
func segmentCells(v viewport, s world.Segment, fn func(col, row int)) {
	step := math.Min(v.sx, v.sy) / 2
	n := int(s.Length()/step) + 1
	for i := 0; i <= n; i++ {
		p := s.A().Plus(s.Dir().Times(math.Min(float64(i)*step, s.Length())))
		if col, row, ok := v.cell(p); ok {
			fn(col, row)
		}
	}
}

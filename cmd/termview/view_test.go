package main

import (
	"testing"

	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/world"
)

func TestViewportCell(t *testing.T) {
	v := newViewport(10, 5, 100, 50)
	tests := []struct {
		p        world.Vec2
		col, row int
		ok       bool
	}{
		{world.NewVec2(0, 0), 0, 0, true},
		{world.NewVec2(99.9, 49.9), 9, 4, true},
		{world.NewVec2(100, 10), 0, 0, false},
		{world.NewVec2(-1, 10), 0, 0, false},
		{world.NewVec2(35, 12), 3, 1, true},
	}
	for _, tt := range tests {
		col, row, ok := v.cell(tt.p)
		if ok != tt.ok || col != tt.col || row != tt.row {
			t.Errorf("cell(%v) = (%d,%d,%v), want (%d,%d,%v)", tt.p, col, row, ok, tt.col, tt.row, tt.ok)
		}
	}
	if c := v.center(3, 1); c.X != 35 || c.Y != 15 {
		t.Errorf("center(3,1) = %v, want (35,15)", c)
	}
}

func TestRasterizeCounts(t *testing.T) {
	v := newViewport(2, 2, 10, 10)
	f := &engine.Frame{Particles: []world.Particle{
		{Pos: world.NewVec2(1, 1)},
		{Pos: world.NewVec2(2, 2), Color: 0xff0000},
		{Pos: world.NewVec2(7, 7)},
		{Pos: world.NewVec2(20, 20)},
	}}
	r := rasterize(v, f)
	if r.count[0] != 2 || r.count[3] != 1 || r.count[1] != 0 {
		t.Errorf("unexpected counts %v", r.count)
	}
	if r.max != 2 {
		t.Errorf("expected max 2, got %d", r.max)
	}
	if r.color[0] != 0xff0000 {
		t.Errorf("expected last color in cell 0, got %x", r.color[0])
	}
}

func TestShade(t *testing.T) {
	if shade(0, 5) != ' ' {
		t.Error("empty cell should be blank")
	}
	if shade(1, 1) != shades[0] {
		t.Error("sparse frame should use the lightest glyph")
	}
	if shade(8, 8) != shades[len(shades)-1] {
		t.Error("densest cell should be solid")
	}
	if shade(1, 8) == shades[len(shades)-1] {
		t.Error("lone particle in a dense frame should not be solid")
	}
}

func TestSegmentCellsCoversEndpoints(t *testing.T) {
	v := newViewport(10, 10, 100, 100)
	seen := map[[2]int]bool{}
	segmentCells(v, world.NewSegment(world.NewVec2(5, 55), world.NewVec2(95, 55)), func(col, row int) {
		seen[[2]int{col, row}] = true
	})
	for col := 0; col < 10; col++ {
		if !seen[[2]int{col, 5}] {
			t.Errorf("cell (%d,5) not covered", col)
		}
	}
}

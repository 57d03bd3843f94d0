// Package scene builds the initial worlds the engine can be started with.
package scene

import (
	"fmt"
	"sort"

	"github.com/playmatatu/particles/internal/config"
	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/world"
)

// Palette cycled by particle row.
var palette = []uint32{0x4fc3f7, 0x81c784, 0xffb74d, 0xe57373, 0xba68c8}

type builder func(cfg config.SimConfig) engine.Setup

var scenes = map[string]builder{
	"default": Default,
	"block":   blockOnly,
	"empty":   func(config.SimConfig) engine.Setup { return engine.Setup{} },
}

// Names lists the scenes Build accepts.
func Names() []string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build returns the named scene sized for cfg.
func Build(name string, cfg config.SimConfig) (engine.Setup, error) {
	b, ok := scenes[name]
	if !ok {
		return engine.Setup{}, fmt.Errorf("unknown scene %q (have %v)", name, Names())
	}
	return b(cfg), nil
}

// Default is a box of shelves fed by two emitters. Coordinates are fractions
// of the world size so the layout scales with configuration.
func Default(cfg config.SimConfig) engine.Setup {
	w, h := cfg.WorldWidth, cfg.WorldHeight
	pt := func(fx, fy float64) world.Vec2 { return world.NewVec2(fx*w, fy*h) }

	rawLines := []struct {
		name   string
		p1, p2 world.Vec2
	}{
		// Inner walls
		{"left wall", pt(0.05, 0.15), pt(0.05, 0.95)},
		{"right wall", pt(0.95, 0.15), pt(0.95, 0.95)},
		// Shelves
		{"upper shelf", pt(0.10, 0.40), pt(0.45, 0.40)},
		{"middle shelf", pt(0.55, 0.55), pt(0.90, 0.55)},
		{"lower shelf", pt(0.20, 0.75), pt(0.60, 0.75)},
		// Divider standing on the floor
		{"divider", pt(0.50, 0.85), pt(0.50, 0.995)},
		// Ramp; not axis-aligned, so particles pass through it.
		{"ramp", pt(0.60, 0.25), pt(0.85, 0.35)},
	}
	segs := make([]world.Segment, 0, len(rawLines))
	for _, l := range rawLines {
		segs = append(segs, world.NewSegment(l.p1, l.p2))
	}

	zones := []world.Zone{
		world.NewZone(pt(0.10, 0.05), pt(0.45, 0.30), world.ZoneSpawn, cfg.CellSize),
		world.NewZone(pt(0.55, 0.90), pt(0.90, 0.99), world.ZoneSink, cfg.CellSize),
		world.NewZone(pt(0.60, 0.60), pt(0.70, 0.85), world.ZoneSlow, cfg.CellSize),
	}

	spread := 2.5 * cfg.Radius
	emitters := []world.Emitter{
		{Pos: pt(0.15, 0.08), Vel: world.NewVec2(150, 0), Period: 25, Burst: 4, Spread: spread, Color: palette[2]},
		{Pos: pt(0.85, 0.08), Vel: world.NewVec2(-150, 0), Period: 40, Burst: 3, Spread: spread, Color: palette[3]},
	}

	return engine.Setup{
		Segments:  segs,
		Zones:     zones,
		Emitters:  emitters,
		Particles: Block(cfg, pt(0.10, 0.05), pt(0.45, 0.30), cfg.InitialParticles),
	}
}

func blockOnly(cfg config.SimConfig) engine.Setup {
	return engine.Setup{
		Particles: Block(cfg, world.NewVec2(0.1*cfg.WorldWidth, 0.1*cfg.WorldHeight),
			world.NewVec2(0.9*cfg.WorldWidth, 0.9*cfg.WorldHeight), cfg.InitialParticles),
	}
}

// Block lays out up to n particles at rest on a lattice filling the
// rectangle [lo, hi], row by row, never closer than 2.2 radii. It stops
// early when the rectangle or the capacity is exhausted.
func Block(cfg config.SimConfig, lo, hi world.Vec2, n int) []world.Particle {
	if n > cfg.Capacity {
		n = cfg.Capacity
	}
	if n <= 0 || cfg.Radius <= 0 {
		return nil
	}
	gap := 2.2 * cfg.Radius
	cols := int((hi.X-lo.X)/gap) + 1
	rows := int((hi.Y-lo.Y)/gap) + 1
	if cols <= 0 || rows <= 0 {
		return nil
	}

	ps := make([]world.Particle, 0, n)
	for r := 0; r < rows && len(ps) < n; r++ {
		color := palette[r%len(palette)]
		for c := 0; c < cols && len(ps) < n; c++ {
			ps = append(ps, world.Particle{
				Pos:   world.NewVec2(lo.X+float64(c)*gap, lo.Y+float64(r)*gap),
				Color: color,
			})
		}
	}
	return ps
}

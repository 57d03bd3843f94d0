package engine

import (
	"math"
	"testing"

	"github.com/playmatatu/particles/internal/world"
)

func testParams() Params {
	return Params{
		DT:      0.001,
		Radius:  2,
		Damping: 0.45,
		Width:   100,
		Height:  100,
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6*math.Max(1, math.Abs(b))
}

func TestCollidePairLiteral(t *testing.T) {
	prm := testParams()
	a := world.Particle{Pos: world.Vec2{X: 0, Y: 0}}
	b := world.Particle{Pos: world.Vec2{X: 3, Y: 0}}

	collidePair(&a, &b, &prm)

	if !near(a.Vel.X, -450) || !near(b.Vel.X, 450) {
		t.Fatalf("expected vx -450/+450, got %v/%v", a.Vel.X, b.Vel.X)
	}
	if a.Vel.Y != 0 || b.Vel.Y != 0 {
		t.Errorf("expected no y correction, got %v/%v", a.Vel.Y, b.Vel.Y)
	}
}

func TestCorrectSelfSymmetricVisits(t *testing.T) {
	prm := testParams()
	a := world.Particle{Pos: world.Vec2{X: 0, Y: 0}}
	b := world.Particle{Pos: world.Vec2{X: 3, Y: 0}}
	pa, pb := a.Projected(prm.DT), b.Projected(prm.DT)

	// Visit order must not matter: both read the same snapshot.
	correctSelf(&b, pb, pa, &prm)
	correctSelf(&a, pa, pb, &prm)

	if !near(a.Vel.X, -450) || !near(b.Vel.X, 450) {
		t.Fatalf("expected vx -450/+450, got %v/%v", a.Vel.X, b.Vel.X)
	}
	if a.Vel.Y != 0 || b.Vel.Y != 0 {
		t.Errorf("expected no y correction, got %v/%v", a.Vel.Y, b.Vel.Y)
	}

	far := world.Particle{}
	correctSelf(&far, world.Vec2{}, world.Vec2{X: 4}, &prm)
	if far.Vel.X != 0 {
		t.Errorf("pair at exactly 2r should not be corrected, got %v", far.Vel.X)
	}
}

func TestCollidePairUsesProjectedPositions(t *testing.T) {
	prm := testParams()
	// 5 apart now, but closing at 2000/s: 3 apart after one step.
	a := world.Particle{Pos: world.Vec2{X: 10, Y: 10}, Vel: world.Vec2{X: 1000}}
	b := world.Particle{Pos: world.Vec2{X: 15, Y: 10}, Vel: world.Vec2{X: -1000}}

	collidePair(&a, &b, &prm)

	if !near(a.Vel.X, 1000-450) || !near(b.Vel.X, -1000+450) {
		t.Errorf("expected 550/-550, got %v/%v", a.Vel.X, b.Vel.X)
	}
}

func TestCollidePairOutOfReach(t *testing.T) {
	prm := testParams()
	a := world.Particle{Pos: world.Vec2{X: 0, Y: 0}}
	b := world.Particle{Pos: world.Vec2{X: 4, Y: 0}}
	collidePair(&a, &b, &prm)
	if !a.Vel.IsZero() || !b.Vel.IsZero() {
		t.Errorf("pair at exactly 2r must not collide, got %v %v", a.Vel, b.Vel)
	}
}

func TestCollidePairDegenerate(t *testing.T) {
	prm := testParams()
	a := world.Particle{Pos: world.Vec2{X: 5, Y: 5}}
	b := world.Particle{Pos: world.Vec2{X: 5, Y: 5}}
	collidePair(&a, &b, &prm)
	if !math.IsNaN(a.Vel.X) {
		t.Errorf("coincident particles without guard: expected NaN, got %v", a.Vel.X)
	}

	prm.GuardDegenerate = true
	a = world.Particle{Pos: world.Vec2{X: 5, Y: 5}}
	b = world.Particle{Pos: world.Vec2{X: 5, Y: 5}}
	collidePair(&a, &b, &prm)
	if !a.Vel.IsZero() || !b.Vel.IsZero() {
		t.Errorf("guarded coincident particles should be skipped, got %v %v", a.Vel, b.Vel)
	}
}

func TestContainBordersLiteral(t *testing.T) {
	tests := []struct {
		name string
		pos  world.Vec2
		want world.Vec2
	}{
		{"left", world.Vec2{X: 1, Y: 50}, world.Vec2{X: 1000}},
		{"right", world.Vec2{X: 99, Y: 50}, world.Vec2{X: -1000}},
		{"top", world.Vec2{X: 50, Y: 1}, world.Vec2{Y: 1000}},
		{"bottom", world.Vec2{X: 50, Y: 99.5}, world.Vec2{Y: -1500}},
		{"clear", world.Vec2{X: 50, Y: 50}, world.Vec2{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prm := testParams()
			p := world.Particle{Pos: tt.pos}
			containBorders(&p, &prm)
			if !near(p.Vel.X, tt.want.X) || !near(p.Vel.Y, tt.want.Y) {
				t.Errorf("expected %v, got %v", tt.want, p.Vel)
			}
		})
	}
}

func TestCollideSegment(t *testing.T) {
	seg := world.NewSegment(world.Vec2{X: 0, Y: 10}, world.Vec2{X: 20, Y: 10})
	tests := []struct {
		name string
		pos  world.Vec2
		want world.Vec2
	}{
		{"perpendicular foot", world.Vec2{X: 5, Y: 11}, world.Vec2{Y: 1000}},
		{"below", world.Vec2{X: 5, Y: 8.5}, world.Vec2{Y: -500}},
		{"past endpoint", world.Vec2{X: 21, Y: 10}, world.Vec2{X: 1000}},
		{"before start", world.Vec2{X: -1.5, Y: 10}, world.Vec2{X: -500}},
		{"out of reach", world.Vec2{X: 5, Y: 13}, world.Vec2{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prm := testParams()
			p := world.Particle{Pos: tt.pos}
			collideSegment(&p, &seg, &prm)
			if !near(p.Vel.X, tt.want.X) || !near(p.Vel.Y, tt.want.Y) {
				t.Errorf("expected %v, got %v", tt.want, p.Vel)
			}
		})
	}
}

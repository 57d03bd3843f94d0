package world

// Emitter periodically spawns particles. Every Period steps it creates Burst
// particles at Pos, offset by Spread along the axis perpendicular to Vel,
// each starting with velocity Vel.
type Emitter struct {
	Pos    Vec2    `json:"pos"`
	Vel    Vec2    `json:"vel"`
	Period uint64  `json:"period"`
	Burst  int     `json:"burst"`
	Spread float64 `json:"spread"`
	Color  uint32  `json:"color"`
	// Limit caps the total number of particles this emitter creates; zero
	// means unlimited.
	Limit   int `json:"limit"`
	emitted int
}

// Emit spawns into store if step is on the emitter's period. It returns the
// number created and whether the store rejected a spawn.
func (e *Emitter) Emit(store *ParticleStore, step uint64) (created int, full bool) {
	if e.Period == 0 || step%e.Period != 0 {
		return 0, false
	}
	side := e.Vel.LeftNormal()
	if !side.IsZero() {
		side = side.Normalize()
	}
	for k := 0; k < e.Burst; k++ {
		if e.Limit > 0 && e.emitted >= e.Limit {
			return created, false
		}
		offset := (float64(k) - float64(e.Burst-1)/2) * e.Spread
		pos := e.Pos.Plus(side.Times(offset))
		idx := store.Create(pos.X, pos.Y)
		if idx == NullPart {
			return created, true
		}
		p := store.At(idx)
		p.Vel = e.Vel
		p.Color = e.Color
		e.emitted++
		created++
	}
	return created, false
}

// Emitted returns the total number of particles spawned so far.
func (e *Emitter) Emitted() int {
	return e.emitted
}

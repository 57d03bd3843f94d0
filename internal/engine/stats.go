package engine

import "time"

type Stats struct {
	Step            uint64  `json:"step"`
	Clock           float64 `json:"clock"`
	Active          int     `json:"active"`
	Capacity        int     `json:"capacity"`
	StepsPerSecond  float64 `json:"steps_per_second"`
	BarrierTimeouts int64   `json:"barrier_timeouts"`
	SpawnFailures   int64   `json:"spawn_failures"`
	Paused          bool    `json:"paused"`
	Quickstep       bool    `json:"quickstep"`
	ForceMode       string  `json:"force_mode"`
	DT              float64 `json:"dt"`
	Workers         int     `json:"workers"`
	GridCols        int     `json:"grid_cols"`
	GridRows        int     `json:"grid_rows"`
}

// Stats reports counters and the step rate since the previous call.
func (e *Engine) Stats() Stats {
	now := time.Now()
	step := e.step.Load()

	e.statsMu.Lock()
	rate := 0.0
	if dt := now.Sub(e.statsAt).Seconds(); dt > 0 {
		rate = float64(step-e.statsStep) / dt
	}
	e.statsAt = now
	e.statsStep = step
	e.statsMu.Unlock()

	c := e.controls
	return Stats{
		Step:            step,
		Clock:           e.clock.Get(),
		Active:          e.store.Len(),
		Capacity:        e.store.Cap(),
		StepsPerSecond:  rate,
		BarrierTimeouts: e.coord.Timeouts(),
		SpawnFailures:   e.spawnFailures.Load(),
		Paused:          c.Paused(),
		Quickstep:       c.Quickstep(),
		ForceMode:       c.ForceMode().String(),
		DT:              c.DT(),
		Workers:         e.cfg.Workers,
		GridCols:        e.grid.Cols(),
		GridRows:        e.grid.Rows(),
	}
}

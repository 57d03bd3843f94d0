package engine

import "github.com/playmatatu/particles/internal/world"

// Frame is an immutable copy of the live particles taken between steps.
type Frame struct {
	Step      uint64
	Clock     float64
	Paused    bool
	Capacity  int
	Particles []world.Particle
}

// publish copies the live prefix into a new frame. It runs only while no
// worker is inside a parallel phase.
func (e *Engine) publish() {
	live := e.store.Live()
	f := &Frame{
		Step:      e.step.Load(),
		Clock:     e.clock.Get(),
		Paused:    e.controls.Paused(),
		Capacity:  e.store.Cap(),
		Particles: append([]world.Particle(nil), live...),
	}
	e.latest.Store(f)
	select {
	case e.frames <- f:
	default:
		// Reader is behind; drop the stale frame and offer the new one.
		select {
		case <-e.frames:
		default:
		}
		select {
		case e.frames <- f:
		default:
		}
	}
}

// Latest returns the most recent frame. It is never nil after New.
func (e *Engine) Latest() *Frame {
	return e.latest.Load()
}

// Frames delivers frames as they are published. Only the newest unread
// frame is kept.
func (e *Engine) Frames() <-chan *Frame {
	return e.frames
}

package ws

import (
	"github.com/playmatatu/particles/internal/engine"
	"github.com/vmihailenco/msgpack/v5"
)

// WireFrame is the msgpack layout pushed to stream clients. Particle
// attributes are flattened into parallel float32 arrays.
type WireFrame struct {
	Step     uint64    `msgpack:"step"`
	Time     float64   `msgpack:"t"`
	Paused   bool      `msgpack:"paused"`
	Count    int       `msgpack:"n"`
	Capacity int       `msgpack:"cap"`
	X        []float32 `msgpack:"x"`
	Y        []float32 `msgpack:"y"`
	VX       []float32 `msgpack:"vx"`
	VY       []float32 `msgpack:"vy"`
	Colors   []uint32  `msgpack:"c"`
}

// EncodeFrame flattens and encodes f.
func EncodeFrame(f *engine.Frame) ([]byte, error) {
	n := len(f.Particles)
	w := WireFrame{
		Step:     f.Step,
		Time:     f.Clock,
		Paused:   f.Paused,
		Count:    n,
		Capacity: f.Capacity,
		X:        make([]float32, n),
		Y:        make([]float32, n),
		VX:       make([]float32, n),
		VY:       make([]float32, n),
		Colors:   make([]uint32, n),
	}
	for i := range f.Particles {
		p := &f.Particles[i]
		w.X[i] = float32(p.Pos.X)
		w.Y[i] = float32(p.Pos.Y)
		w.VX[i] = float32(p.Vel.X)
		w.VY[i] = float32(p.Vel.Y)
		w.Colors[i] = p.Color
	}
	return msgpack.Marshal(&w)
}

// DecodeFrame is the inverse of EncodeFrame.
func DecodeFrame(data []byte) (*WireFrame, error) {
	var w WireFrame
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

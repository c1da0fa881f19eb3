package dsp

import "math"

// Phasor is a numerically controlled oscillator producing unit complex
// samples that advance by a fixed angle per call.
type Phasor struct {
	value complex64
	delta complex64
}

func NewPhasor(freq, rate float64) *Phasor {
	omega := 2 * math.Pi * freq / rate
	return &Phasor{
		value: 1,
		delta: complex(float32(math.Cos(omega)), float32(math.Sin(omega))),
	}
}

// Rotate advances the oscillator one step. The result is renormalized
// every call so rounding never accumulates into amplitude drift.
func (p *Phasor) Rotate() complex64 {
	p.value *= p.delta
	p.value /= complex(Abs(p.value), 0)
	return p.value
}

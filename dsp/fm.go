package dsp

import "math"

const (
	pi    = float32(math.Pi)
	twoPi = 2 * pi
)

// Wrap folds a phase difference of two angles in (-π, π] back into
// [-π, π] with a single correction.
func Wrap(x float32) float32 {
	if x < -pi {
		return x + twoPi
	}
	if x > pi {
		return x - twoPi
	}
	return x
}

// FrequencyModulation turns successive complex baseband samples into
// instantaneous frequency. Output is scaled so ±bandwidth/2 maps to ±1.
type FrequencyModulation struct {
	prev  float32
	scale float32
}

func NewFrequencyModulation(bandwidth, rate float64) *FrequencyModulation {
	return &FrequencyModulation{scale: float32(rate / (bandwidth * math.Pi))}
}

func (f *FrequencyModulation) Demod(z complex64) float32 {
	phase := Arg(z)
	delta := Wrap(phase - f.prev)
	f.prev = phase
	return f.scale * delta
}

package dsp

import "math"

// ExponentialMovingAverage is a one-pole lowpass. Cascading the same
// filter order times (or running it forward then backward) with the alpha
// from Cutoff keeps the combined -3dB point at the requested frequency.
type ExponentialMovingAverage struct {
	alpha float32
	prev  float32
}

func NewExponentialMovingAverage() *ExponentialMovingAverage {
	return &ExponentialMovingAverage{alpha: 1}
}

func (e *ExponentialMovingAverage) Alpha() float32 { return e.alpha }

func (e *ExponentialMovingAverage) SetAlpha(alpha float64) {
	e.alpha = float32(alpha)
}

func (e *ExponentialMovingAverage) SetAlphaOrder(alpha float64, order int) {
	e.SetAlpha(math.Pow(alpha, 1/float64(order)))
}

func (e *ExponentialMovingAverage) Cutoff(freq, rate float64, order int) {
	x := math.Cos(2 * math.Pi * freq / rate)
	e.SetAlphaOrder(x-1+math.Sqrt(x*(x-4)+3), order)
}

func (e *ExponentialMovingAverage) Avg(x float32) float32 {
	e.prev = e.prev*(1-e.alpha) + e.alpha*x
	return e.prev
}

// Reset clears the filter state, keeping alpha.
func (e *ExponentialMovingAverage) Reset() { e.prev = 0 }

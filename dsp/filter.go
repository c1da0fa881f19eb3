package dsp

import "math"

func Sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	x *= math.Pi
	return math.Sin(x) / x
}

// LowPass returns tap n of an N tap ideal lowpass centered on (N-1)/2.
func LowPass(cutoff, rate float64, n, N int) float64 {
	f := 2 * cutoff / rate
	x := float64(n) - float64(N-1)/2
	return f * Sinc(f*x)
}

// ComplexConvolution is a FIR filter with real taps over complex input.
type ComplexConvolution struct {
	Taps []float32

	re, im []float32
	pos    int
}

func NewComplexConvolution(taps []float32) *ComplexConvolution {
	return &ComplexConvolution{
		Taps: taps,
		re:   make([]float32, len(taps)),
		im:   make([]float32, len(taps)),
	}
}

// NewKaiserLowPass builds a windowed-sinc lowpass with length taps.
func NewKaiserLowPass(cutoff, rate float64, length int, a float64) *ComplexConvolution {
	var k Kaiser
	taps := make([]float32, length)
	for i := range taps {
		taps[i] = float32(k.Window(a, i, length) * LowPass(cutoff, rate, i, length))
	}
	return NewComplexConvolution(taps)
}

func (c *ComplexConvolution) Push(z complex64) complex64 {
	c.re[c.pos] = real(z)
	c.im[c.pos] = imag(z)
	if c.pos++; c.pos >= len(c.Taps) {
		c.pos = 0
	}
	var re, im float32
	for _, tap := range c.Taps {
		re += tap * c.re[c.pos]
		im += tap * c.im[c.pos]
		if c.pos++; c.pos >= len(c.Taps) {
			c.pos = 0
		}
	}
	return complex(re, im)
}

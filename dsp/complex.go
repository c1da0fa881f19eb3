package dsp

import "math"

// Abs returns the magnitude of z.
func Abs(z complex64) float32 {
	return float32(math.Hypot(float64(real(z)), float64(imag(z))))
}

// Arg returns the phase of z in (-π, π].
func Arg(z complex64) float32 {
	return float32(math.Atan2(float64(imag(z)), float64(real(z))))
}

// Norm returns the squared magnitude of z.
func Norm(z complex64) float32 {
	return real(z)*real(z) + imag(z)*imag(z)
}

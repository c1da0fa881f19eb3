package dsp

import (
	"math"
	"sort"
)

// Kaiser computes Kaiser window coefficients. It owns a scratch array for
// the Bessel series so it is not safe for concurrent use.
type Kaiser struct {
	summands [35]float64
}

// i0 is the zeroth order modified Bessel function of the first kind.
// The series terms are summed smallest first.
func (k *Kaiser) i0(x float64) float64 {
	k.summands[0] = 1
	val := 1.0
	for n := 1; n < len(k.summands); n++ {
		val *= x / float64(2*n)
		k.summands[n] = val * val
	}
	sort.Float64s(k.summands[:])
	sum := 0.0
	for _, v := range k.summands {
		sum += v
	}
	return sum
}

// Window returns tap n of an N point window. The usual β equals π·a.
func (k *Kaiser) Window(a float64, n, N int) float64 {
	x := 2*float64(n)/float64(N-1) - 1
	return k.i0(math.Pi*a*math.Sqrt(1-x*x)) / k.i0(math.Pi*a)
}

package dsp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMovingSumMatchesWindow(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 64).Draw(t, "n")
		xs := rapid.SliceOfN(rapid.Float32Range(-1, 1), 1, 300).Draw(t, "xs")
		s := NewMovingSum(n)
		for i, x := range xs {
			got := s.Push(x)
			var want float32
			for j := max(0, i-n+1); j <= i; j++ {
				want += xs[j]
			}
			if d := got - want; d > 1e-3 || d < -1e-3 {
				t.Fatalf("step %d window %d: got %v want %v", i, n, got, want)
			}
		}
	})
}

func TestMovingAverageSingleTap(t *testing.T) {
	a := NewMovingAverage(1)
	for _, x := range []float32{0.5, -2, 7} {
		require.Equal(t, x, a.Avg(x))
	}
}

func TestComplexMovingAverage(t *testing.T) {
	a := NewComplexMovingAverage(4)
	var got complex64
	for i := 0; i < 8; i++ {
		got = a.Avg(complex(1, -1))
	}
	require.InDelta(t, 1, real(got), 1e-6)
	require.InDelta(t, -1, imag(got), 1e-6)
}

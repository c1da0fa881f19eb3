package dsp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKaiserWindowShape(t *testing.T) {
	var k Kaiser
	for _, N := range []int{5, 89, 111} {
		require.Equal(t, 1.0, k.Window(2, (N-1)/2, N))
		require.Equal(t, k.Window(2, 0, N), k.Window(2, N-1, N))
		for n := 0; n < N; n++ {
			w := k.Window(2, n, N)
			require.InDelta(t, w, k.Window(2, N-1-n, N), 1e-12)
			require.Greater(t, w, 0.0)
			require.LessOrEqual(t, w, 1.0)
		}
	}
}

func TestSinc(t *testing.T) {
	require.Equal(t, 1.0, Sinc(0))
	require.InDelta(t, 0, Sinc(1), 1e-15)
	require.InDelta(t, 0, Sinc(-3), 1e-15)
}

func toneGain(c *ComplexConvolution, hz, rate float64) float32 {
	osc := NewPhasor(hz, rate)
	var out complex64
	for i := 0; i < 4*len(c.Taps); i++ {
		out = c.Push(osc.Rotate())
	}
	return Abs(out)
}

func TestKaiserLowPassResponse(t *testing.T) {
	const rate = 44100.0
	n := 89
	lp := NewKaiserLowPass(900, rate, n, 2)
	for i := range lp.Taps {
		require.InDelta(t, lp.Taps[i], lp.Taps[n-1-i], 1e-7)
	}
	require.Greater(t, toneGain(NewKaiserLowPass(900, rate, n, 2), 400, rate), float32(0.5))
	require.Less(t, toneGain(NewKaiserLowPass(900, rate, n, 2), 5000, rate), float32(0.01))
}

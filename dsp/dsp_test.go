package dsp

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPipelineDemodulatesTone(t *testing.T) {
	const rate = 44100
	ctx, cancel := context.WithCancel(context.TODO())
	defer cancel()

	sigc := make(chan []float32, 4)
	go func() {
		defer close(sigc)
		phase := 0.0
		for b := 0; b < 4; b++ {
			samps := make([]float32, 2048)
			for i := range samps {
				phase += 2 * math.Pi * 2300 / rate
				samps[i] = float32(math.Cos(phase))
			}
			sigc <- samps
		}
	}()
	mixc := MixDownCtx(ctx, 1900, rate, sigc)
	lpc := LowpassCtx(ctx, 900, rate, 89, mixc)
	fmc := DemodFMCtx(ctx, 800, rate, lpc)

	var out []float32
	for samps := range fmc {
		out = append(out, samps...)
	}
	require.Len(t, out, 4*2048)
	for i := 500; i < len(out); i++ {
		require.InDelta(t, 1, out[i], 0.05, "sample %d", i)
	}
}

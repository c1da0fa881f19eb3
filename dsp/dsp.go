package dsp

import (
	"context"
)

// MixDown shifts real audio down by mixHz and returns complex baseband.
func MixDown(mixHz float64, sampHz int, sigc <-chan []float32) <-chan []complex64 {
	return MixDownCtx(context.TODO(), mixHz, sampHz, sigc)
}

func MixDownCtx(ctx context.Context, mixHz float64, sampHz int, sigc <-chan []float32) <-chan []complex64 {
	nco := NewPhasor(-mixHz, float64(sampHz))
	outc := make(chan []complex64, 1)
	go func() {
		defer close(outc)
		for samp := range sigc {
			outsamp := make([]complex64, len(samp))
			for i, x := range samp {
				outsamp[i] = complex(x, 0) * nco.Rotate()
			}
			select {
			case outc <- outsamp:
			case <-ctx.Done():
				return
			}
		}
	}()
	return outc
}

// Lowpass filters complex baseband with a Kaiser windowed-sinc of taps
// length. An even length is bumped to the next odd one.
func Lowpass(cutoffHz float64, sampHz, taps int, sigc <-chan []complex64) <-chan []complex64 {
	return LowpassCtx(context.TODO(), cutoffHz, sampHz, taps, sigc)
}

func LowpassCtx(
	ctx context.Context,
	cutoffHz float64,
	sampHz int,
	taps int,
	sigc <-chan []complex64) <-chan []complex64 {
	if taps <= 0 {
		panic("bad filter length")
	}
	fir := NewKaiserLowPass(cutoffHz, float64(sampHz), taps|1, 2.0)
	outc := make(chan []complex64, 1)
	go func() {
		defer close(outc)
		for samp := range sigc {
			outsamp := make([]complex64, len(samp))
			for i, z := range samp {
				outsamp[i] = fir.Push(z)
			}
			select {
			case outc <- outsamp:
			case <-ctx.Done():
				return
			}
		}
	}()
	return outc
}

// DemodFM converts baseband into instantaneous frequency where
// ±bandwidthHz/2 maps to ±1.
func DemodFM(bandwidthHz float64, sampHz int, sigc <-chan []complex64) <-chan []float32 {
	return DemodFMCtx(context.TODO(), bandwidthHz, sampHz, sigc)
}

func DemodFMCtx(ctx context.Context, bandwidthHz float64, sampHz int, sigc <-chan []complex64) <-chan []float32 {
	fm := NewFrequencyModulation(bandwidthHz, float64(sampHz))
	outc := make(chan []float32, 1)
	go func() {
		defer close(outc)
		for samps := range sigc {
			outsamp := make([]float32, len(samps))
			for i, z := range samps {
				outsamp[i] = fm.Demod(z)
			}
			select {
			case outc <- outsamp:
			case <-ctx.Done():
				return
			}
		}
	}()
	return outc
}

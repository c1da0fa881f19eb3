package sstv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func visBits(code int) [8]bool {
	var bits [8]bool
	parity := false
	for i := 0; i < 7; i++ {
		bits[i] = code>>i&1 == 1
		parity = parity != bits[i]
	}
	bits[7] = parity
	return bits
}

func TestCheckParity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		code := rapid.IntRange(0, 127).Draw(t, "code")
		bits := visBits(code)
		got, err := checkParity(bits)
		if err != nil || got != code {
			t.Fatalf("code %d: got %d, %v", code, got, err)
		}
		flip := rapid.IntRange(0, 7).Draw(t, "flip")
		bits[flip] = !bits[flip]
		if _, err := checkParity(bits); !errors.Is(err, errParity) {
			t.Fatalf("code %d with bit %d flipped: %v", code, flip, err)
		}
	})
}

func TestHeaderStates(t *testing.T) {
	const rate = 8000
	h := newVISHeader(rate)
	require.Equal(t, headerIdle, h.state)
	h.shift(10)
	require.Equal(t, 0, h.breakIndex)

	h.arm(5000)
	require.Equal(t, headerArmed, h.state)
	need := 5000 + h.leaderToneSamples + h.leaderToneToleranceSamples + h.codeSamples + h.bitSamples
	require.False(t, h.ready(need-1))
	require.True(t, h.ready(need))

	h.shift(4900)
	require.Equal(t, 100, h.breakIndex)
	_, err := h.decode(make([]float32, 2*rate))
	require.ErrorIs(t, err, errHeaderTooEarly)
	require.Equal(t, headerIdle, h.state)
	require.False(t, h.ready(1<<30))
}

func TestHeaderRejectsMissingLeader(t *testing.T) {
	const rate = 8000
	s := newSynth(rate)
	s.tone(blackFrequency, 0.4)
	s.tone(syncPulseFrequency, 0.01)
	s.tone(leaderToneFrequency, 1)

	d := NewDemodulator(rate)
	trace := s.out
	require.True(t, d.Process(trace, Mono))
	h := newVISHeader(rate)
	h.arm(d.SyncPulseOffset)
	_, err := h.decode(trace)
	require.ErrorIs(t, err, errPreBreak)
}

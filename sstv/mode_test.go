package sstv

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeCatalog(t *testing.T) {
	const rate = 44100
	codes := map[int]string{}
	for _, m := range Modes(rate) {
		_, dup := codes[m.Code()]
		require.False(t, dup, "duplicate code %d", m.Code())
		codes[m.Code()] = m.Name()
		assert.Positive(t, m.Width())
		assert.LessOrEqual(t, m.Width()*m.Height(), 800*616)
		assert.Positive(t, m.FirstSyncPulseIndex())
	}
	require.Len(t, codes, 15)

	lineSeconds := map[string]float64{
		"Robot 36 Color": 0.15,
		"Robot 72 Color": 0.3,
		"Martin 1":       0.446446,
		"Scottie 1":      0.42822,
		"Scottie DX":     1.0503,
		"Wraase SC2-180": 0.7110225,
		"PD 90":          0.70304,
	}
	for _, m := range Modes(rate) {
		if s, ok := lineSeconds[m.Name()]; ok {
			assert.InDelta(t, s*rate, m.ScanLineSamples(), 1, m.Name())
		}
	}
}

func TestDecodeOutOfBounds(t *testing.T) {
	const rate = 8000
	scratch := make([]float32, rate)
	pixels := NewPixelBuffer(800, 2)
	for i := range pixels.Pixels {
		pixels.Pixels[i] = Cyan
	}
	before := slices.Clone(pixels.Pixels)
	modes := append(Modes(rate), RawMode(640, rate))
	for _, m := range modes {
		scanLine := make([]float32, m.ScanLineSamples()+100)
		// Ends past the buffer.
		assert.False(t, m.Decode(pixels, scratch, scanLine, len(scanLine)-10, m.ScanLineSamples(), 0), m.Name())
		// Starts before the buffer.
		assert.False(t, m.Decode(pixels, scratch, scanLine, -m.ScanLineSamples(), m.ScanLineSamples(), 0), m.Name())
		// Longer than the scratch buffer.
		assert.False(t, m.Decode(pixels, scratch[:10], make([]float32, 4*rate), 2*rate, rate/2, 0), m.Name())
	}
	raw := RawMode(640, rate)
	// Raw has no period of its own.
	assert.False(t, raw.Decode(pixels, scratch, make([]float32, rate), 0, raw.ScanLineSamples(), 0))
	assert.False(t, raw.Decode(pixels, scratch, make([]float32, rate), 0, 0, 0))
	assert.Equal(t, before, pixels.Pixels)
	assert.Equal(t, 800, pixels.Width)
	assert.Equal(t, 2, pixels.Height)
}

func TestRawModeWidth(t *testing.T) {
	const rate = 8000
	m := RawMode(640, rate)
	pixels := NewPixelBuffer(640, 2)
	scratch := make([]float32, rate)
	scanLine := make([]float32, rate)
	for _, tt := range []struct {
		seconds float64
		width   int
	}{
		{0.5, 640},
		{0.15, 320},
		{0.1, 160},
	} {
		n := samples(tt.seconds, rate)
		require.True(t, m.Decode(pixels, scratch, scanLine, 0, n, 0))
		assert.Equal(t, tt.width, pixels.Width)
		assert.Equal(t, 1, pixels.Height)
		// A zero trace is mid gray.
		assert.Equal(t, Gray(0.5), pixels.Pixels[tt.width/2])
	}
}

func TestRobot36Parity(t *testing.T) {
	const rate = 8000
	m := Robot36Color(rate).(*robot36Mode)
	scanLine := make([]float32, 2*m.ScanLineSamples())
	fill := func(v float32) {
		sep := m.beginSamples + m.separator.begin
		for i := sep; i < sep+m.separator.samples; i++ {
			scanLine[i] = v
		}
	}
	for _, tt := range []struct {
		separator float32
		lastEven  bool
		want      bool
	}{
		{-1, false, true},
		{-1, true, true},
		{1, true, false},
		{1, false, false},
		{0, true, false},
		{0, false, true},
		{-1.5, true, false},
		{1.5, false, true},
	} {
		fill(tt.separator)
		m.lastEven = tt.lastEven
		assert.Equal(t, tt.want, m.even(scanLine, 0, 0), "separator %v last %v", tt.separator, tt.lastEven)
	}
	m.lastEven = true
	m.Reset()
	assert.False(t, m.lastEven)
}

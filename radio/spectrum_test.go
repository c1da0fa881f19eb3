package radio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toneChunks(hz float64, f Format, chunk, n int) <-chan []float32 {
	ch := make(chan []float32, n)
	t := 0
	for i := 0; i < n; i++ {
		samps := make([]float32, chunk*f.Channels)
		for j := 0; j < chunk; j++ {
			v := float32(0.5 * math.Sin(2*math.Pi*hz*float64(t)/float64(f.SampleRate)))
			for c := 0; c < f.Channels; c++ {
				samps[j*f.Channels+c] = v
			}
			t++
		}
		ch <- samps
	}
	close(ch)
	return ch
}

func TestSpectralPowerPeak(t *testing.T) {
	f := Format{SampleRate: 8000, Channels: 2}
	sp := NewSpectralPower(f, 512, 8)
	require.NoError(t, sp.Measure(toneChunks(1900, f, 300, 20)))
	require.Len(t, sp.Average(), 256)
	assert.Equal(t, 15.625, sp.BinHz())

	hz, _ := sp.Peak(NewBandRange(1000, 2800))
	assert.InDelta(t, 1900, hz, sp.BinHz())
	assert.Greater(t, sp.Level(1900, 50), sp.Level(1200, 50)+20)

	bands := sp.Bands()
	require.NotEmpty(t, bands)
	found := false
	for _, b := range bands {
		found = found || b.Contains(1900)
	}
	assert.True(t, found)
}

func TestSpectralPowerShortInput(t *testing.T) {
	f := Format{SampleRate: 8000, Channels: 1}
	sp := NewSpectralPower(f, 512, 8)
	assert.Error(t, sp.Measure(toneChunks(1900, f, 512, 2)))
}

func TestBandMerge(t *testing.T) {
	merged := BandMerge([]Band{
		NewBandRange(2000, 2100),
		NewBandRange(1000, 1200),
		NewBandRange(1100, 1300),
	})
	require.Len(t, merged, 2)
	assert.Equal(t, 1000.0, merged[0].BeginHz())
	assert.Equal(t, 1300.0, merged[0].EndHz())
	assert.True(t, merged[1].Overlaps(NewBandRange(2050, 2500)))
	assert.False(t, merged[0].Overlaps(merged[1]))
	assert.Nil(t, BandMerge(nil))
}

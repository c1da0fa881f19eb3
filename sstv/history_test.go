package sstv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPulseHistory(t *testing.T) {
	h := newPulseHistory(4)
	for i, idx := range []int{1000, 2000, 3001, 3999} {
		h.push(idx, float32(i)*0.01)
		require.False(t, h.full())
	}
	h.push(5000, 0.04)
	require.True(t, h.full())
	assert.Equal(t, []int{1000, 1001, 998, 1001}, h.periods)
	mean, stddev := h.periodStats()
	assert.InDelta(t, 1000, mean, 1e-9)
	assert.InDelta(t, 1.2247, stddev, 1e-4)
	assert.InDelta(t, 0.02, h.frequencyOffset(), 1e-6)

	h.shift(4000)
	assert.Equal(t, 1000, h.latest())
	assert.Equal(t, []int{1000, 1001, 998, 1001}, h.periods)

	h.refine(1003, 0.04)
	assert.Equal(t, 1004, h.periods[3])
	assert.Equal(t, 1003, h.latest())
}

func TestPulseHistorySeed(t *testing.T) {
	h := newPulseHistory(4)
	h.seed(900, 300, 0.1)
	require.True(t, h.full())
	assert.Equal(t, []int{-300, 0, 300, 600, 900}, h.pulses)
	mean, stddev := h.periodStats()
	assert.Equal(t, 300.0, mean)
	assert.Equal(t, 0.0, stddev)
	h.push(1200, 0.1)
	assert.Equal(t, []int{300, 300, 300, 300}, h.periods)
}

func TestScopeScrolls(t *testing.T) {
	s := NewScope(2, 3)
	for i := uint32(1); i <= 4; i++ {
		s.push([]uint32{i, i})
	}
	assert.Equal(t, []uint32{2, 2, 3, 3, 4, 4}, s.Visible())
	s.fill(Red, 1)
	assert.Equal(t, []uint32{3, 3, 4, 4, Red, Red}, s.Visible())
	img := s.Image()
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, uint8(0xff), img.Pix[len(img.Pix)-4])
}

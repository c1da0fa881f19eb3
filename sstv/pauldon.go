package sstv

import "github.com/wydy/robot36/dsp"

// paulDonMode decodes the PD family. One scan line carries the luminance
// of two rows sharing a single pair of chrominance channels.
type paulDonMode struct {
	layout
	yEven, v, u, yOdd span
	lowPassFilter     *dsp.ExponentialMovingAverage
}

func PaulDon(name string, code, width, height int, channelSeconds float64, sampleRate int) Mode {
	const syncPulse, porch = 0.02, 0.00208
	m := &paulDonMode{layout: layout{
		name:       name,
		code:       code,
		width:      width,
		height:     height,
		sampleRate: sampleRate,
	}}
	m.scanLineSamples = m.samples(syncPulse + porch + 4*channelSeconds)
	m.firstSyncPulseIndex = m.samples(syncPulse)
	m.beginSamples = m.samples(porch)
	m.endSamples = m.samples(porch + 4*channelSeconds)
	m.yEven = m.span(porch, channelSeconds)
	m.v = m.span(porch+channelSeconds, channelSeconds)
	m.u = m.span(porch+2*channelSeconds, channelSeconds)
	m.yOdd = m.span(porch+3*channelSeconds, channelSeconds)
	m.lowPassFilter = newLowPass(width, m.yEven.samples)
	return m
}

func (m *paulDonMode) Decode(pixels *PixelBuffer, scratch, scanLine []float32, syncPulseIndex, scanLineSamples int, frequencyOffset float32) bool {
	if !m.fits(scratch, scanLine, syncPulseIndex) {
		return false
	}
	m.smooth(m.lowPassFilter, scratch, scanLine, syncPulseIndex, frequencyOffset)
	for i := 0; i < m.width; i++ {
		u := scratch[m.u.at(i, m.width)]
		v := scratch[m.v.at(i, m.width)]
		pixels.Pixels[i] = yuvLevels(scratch[m.yEven.at(i, m.width)], u, v)
		pixels.Pixels[m.width+i] = yuvLevels(scratch[m.yOdd.at(i, m.width)], u, v)
	}
	pixels.Width = m.width
	pixels.Height = 2
	return true
}

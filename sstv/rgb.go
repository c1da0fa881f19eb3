package sstv

import "github.com/wydy/robot36/dsp"

// rgbMode decodes formats sending the three colour components as
// separate full-resolution channels.
type rgbMode struct {
	layout
	red, green, blue span
	lowPassFilter    *dsp.ExponentialMovingAverage
}

type rgbTiming struct {
	firstSyncPulse, scanLine float64
	redBegin, greenBegin     float64
	blueBegin, channel       float64
}

func newRGBMode(name string, code int, t rgbTiming, sampleRate int) *rgbMode {
	m := &rgbMode{layout: layout{
		name:       name,
		code:       code,
		width:      320,
		height:     256,
		sampleRate: sampleRate,
	}}
	m.scanLineSamples = m.samples(t.scanLine)
	m.firstSyncPulseIndex = m.samples(t.firstSyncPulse)
	begin := min(t.redBegin, t.greenBegin, t.blueBegin)
	end := max(t.redBegin, t.greenBegin, t.blueBegin) + t.channel
	m.beginSamples = m.samples(begin)
	m.endSamples = m.samples(end)
	m.red = m.span(t.redBegin, t.channel)
	m.green = m.span(t.greenBegin, t.channel)
	m.blue = m.span(t.blueBegin, t.channel)
	m.lowPassFilter = newLowPass(m.width, m.green.samples)
	return m
}

// Martin sends green, blue and red, each after a short separator.
func Martin(name string, code int, channelSeconds float64, sampleRate int) Mode {
	const syncPulse, separator = 0.004862, 0.000572
	greenBegin := separator
	blueBegin := greenBegin + channelSeconds + separator
	redBegin := blueBegin + channelSeconds + separator
	return newRGBMode(name, code, rgbTiming{
		firstSyncPulse: syncPulse,
		scanLine:       syncPulse + 4*separator + 3*channelSeconds,
		redBegin:       redBegin,
		greenBegin:     greenBegin,
		blueBegin:      blueBegin,
		channel:        channelSeconds,
	}, sampleRate)
}

// Scottie places its sync pulse between blue and red, so green and blue
// are read from before the pulse.
func Scottie(name string, code int, channelSeconds float64, sampleRate int) Mode {
	const syncPulse, separator = 0.009, 0.0015
	blueBegin := -(syncPulse + channelSeconds)
	greenBegin := blueBegin - separator - channelSeconds
	return newRGBMode(name, code, rgbTiming{
		firstSyncPulse: 2 * (syncPulse + separator + channelSeconds),
		scanLine:       syncPulse + 3*(separator+channelSeconds),
		redBegin:       separator,
		greenBegin:     greenBegin,
		blueBegin:      blueBegin,
		channel:        channelSeconds,
	}, sampleRate)
}

// Wraase sends red, green and blue back to back after a porch.
func Wraase(name string, code int, channelSeconds float64, sampleRate int) Mode {
	const syncPulse, porch = 0.0055225, 0.0005
	return newRGBMode(name, code, rgbTiming{
		firstSyncPulse: syncPulse,
		scanLine:       syncPulse + porch + 3*channelSeconds,
		redBegin:       porch,
		greenBegin:     porch + channelSeconds,
		blueBegin:      porch + 2*channelSeconds,
		channel:        channelSeconds,
	}, sampleRate)
}

func (m *rgbMode) Decode(pixels *PixelBuffer, scratch, scanLine []float32, syncPulseIndex, scanLineSamples int, frequencyOffset float32) bool {
	if !m.fits(scratch, scanLine, syncPulseIndex) {
		return false
	}
	m.smooth(m.lowPassFilter, scratch, scanLine, syncPulseIndex, frequencyOffset)
	for i := 0; i < m.width; i++ {
		pixels.Pixels[i] = rgbLevels(
			scratch[m.red.at(i, m.width)],
			scratch[m.green.at(i, m.width)],
			scratch[m.blue.at(i, m.width)])
	}
	pixels.Width = m.width
	pixels.Height = 1
	return true
}

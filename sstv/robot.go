package sstv

import "github.com/wydy/robot36/dsp"

const (
	robotSyncPulse = 0.009
	robotSyncPorch = 0.003
	robotSeparator = 0.0045
	robotPorch     = 0.0015
)

// robot36Mode sends full luminance on every line but only one of the two
// chrominance channels, alternating between lines. The separator tone
// tells which one a line carries.
type robot36Mode struct {
	layout
	luminance, separator, chrominance span
	lowPassFilter                     *dsp.ExponentialMovingAverage

	evenLuminance   []float32
	evenChrominance []float32
	lastEven        bool
}

func Robot36Color(sampleRate int) Mode {
	const luminanceSeconds, chrominanceSeconds = 0.088, 0.044
	separatorBegin := robotSyncPorch + luminanceSeconds
	chrominanceBegin := separatorBegin + robotSeparator + robotPorch
	m := &robot36Mode{layout: layout{
		name:       "Robot 36 Color",
		code:       8,
		width:      320,
		height:     240,
		sampleRate: sampleRate,
	}}
	m.scanLineSamples = m.samples(robotSyncPulse + chrominanceBegin + chrominanceSeconds)
	m.firstSyncPulseIndex = m.samples(robotSyncPulse)
	m.beginSamples = m.samples(robotSyncPorch)
	m.endSamples = m.samples(chrominanceBegin + chrominanceSeconds)
	m.luminance = m.span(robotSyncPorch, luminanceSeconds)
	m.separator = m.span(separatorBegin, robotSeparator)
	m.chrominance = m.span(chrominanceBegin, chrominanceSeconds)
	m.lowPassFilter = newLowPass(m.width, m.luminance.samples)
	m.evenLuminance = make([]float32, m.width)
	m.evenChrominance = make([]float32, m.width)
	return m
}

func (m *robot36Mode) Reset() { m.lastEven = false }

// even decides the line parity from the separator level, falling back to
// alternation when the level is ambiguous.
func (m *robot36Mode) even(scanLine []float32, syncPulseIndex int, frequencyOffset float32) bool {
	begin := syncPulseIndex + m.beginSamples + m.separator.begin
	var sum float32
	for _, v := range scanLine[begin : begin+m.separator.samples] {
		sum += v
	}
	separator := sum/float32(m.separator.samples) - frequencyOffset
	if separator < -1.1 || (separator > -0.9 && separator < 0.9) || separator > 1.1 {
		return !m.lastEven
	}
	return separator < 0
}

func (m *robot36Mode) Decode(pixels *PixelBuffer, scratch, scanLine []float32, syncPulseIndex, scanLineSamples int, frequencyOffset float32) bool {
	if !m.fits(scratch, scanLine, syncPulseIndex) {
		return false
	}
	even := m.even(scanLine, syncPulseIndex, frequencyOffset)
	m.lastEven = even
	m.smooth(m.lowPassFilter, scratch, scanLine, syncPulseIndex, frequencyOffset)
	if even {
		for i := 0; i < m.width; i++ {
			m.evenLuminance[i] = scratch[m.luminance.at(i, m.width)]
			m.evenChrominance[i] = scratch[m.chrominance.at(i, m.width)]
		}
		return false
	}
	for i := 0; i < m.width; i++ {
		v := m.evenChrominance[i]
		u := scratch[m.chrominance.at(i, m.width)]
		pixels.Pixels[i] = yuvLevels(m.evenLuminance[i], u, v)
		pixels.Pixels[m.width+i] = yuvLevels(scratch[m.luminance.at(i, m.width)], u, v)
	}
	pixels.Width = m.width
	pixels.Height = 2
	return true
}

// robot72Mode sends luminance and both chrominance channels on every line.
type robot72Mode struct {
	layout
	luminance, v, u span
	lowPassFilter   *dsp.ExponentialMovingAverage
}

func Robot72Color(sampleRate int) Mode {
	const luminanceSeconds, chrominanceSeconds = 0.138, 0.069
	vBegin := robotSyncPorch + luminanceSeconds + robotSeparator + robotPorch
	uBegin := vBegin + chrominanceSeconds + robotSeparator + robotPorch
	m := &robot72Mode{layout: layout{
		name:       "Robot 72 Color",
		code:       12,
		width:      320,
		height:     240,
		sampleRate: sampleRate,
	}}
	m.scanLineSamples = m.samples(robotSyncPulse + uBegin + chrominanceSeconds)
	m.firstSyncPulseIndex = m.samples(robotSyncPulse)
	m.beginSamples = m.samples(robotSyncPorch)
	m.endSamples = m.samples(uBegin + chrominanceSeconds)
	m.luminance = m.span(robotSyncPorch, luminanceSeconds)
	m.v = m.span(vBegin, chrominanceSeconds)
	m.u = m.span(uBegin, chrominanceSeconds)
	m.lowPassFilter = newLowPass(m.width, m.luminance.samples)
	return m
}

func (m *robot72Mode) Decode(pixels *PixelBuffer, scratch, scanLine []float32, syncPulseIndex, scanLineSamples int, frequencyOffset float32) bool {
	if !m.fits(scratch, scanLine, syncPulseIndex) {
		return false
	}
	m.smooth(m.lowPassFilter, scratch, scanLine, syncPulseIndex, frequencyOffset)
	for i := 0; i < m.width; i++ {
		pixels.Pixels[i] = yuvLevels(
			scratch[m.luminance.at(i, m.width)],
			scratch[m.u.at(i, m.width)],
			scratch[m.v.at(i, m.width)])
	}
	pixels.Width = m.width
	pixels.Height = 1
	return true
}

package sstv

import "github.com/wydy/robot36/dsp"

// rawMode renders any stable line period as grayscale frequency, used
// when the period matches no known mode.
type rawMode struct {
	width                   int
	smallPictureMaxSamples  int
	mediumPictureMaxSamples int
	lowPassFilter           *dsp.ExponentialMovingAverage
}

func RawMode(width, sampleRate int) Mode {
	return &rawMode{
		width:                   width,
		smallPictureMaxSamples:  samples(0.125, sampleRate),
		mediumPictureMaxSamples: samples(0.175, sampleRate),
		lowPassFilter:           dsp.NewExponentialMovingAverage(),
	}
}

func (m *rawMode) Name() string             { return "Raw" }
func (m *rawMode) Code() int                { return -1 }
func (m *rawMode) Width() int               { return m.width }
func (m *rawMode) Height() int              { return -1 }
func (m *rawMode) ScanLineSamples() int     { return -1 }
func (m *rawMode) FirstSyncPulseIndex() int { return 0 }
func (m *rawMode) DecodeBegin() int         { return 0 }
func (m *rawMode) Reset()                   {}

func (m *rawMode) Decode(pixels *PixelBuffer, scratch, scanLine []float32, syncPulseIndex, scanLineSamples int, frequencyOffset float32) bool {
	if scanLineSamples <= 0 || syncPulseIndex < 0 || syncPulseIndex+scanLineSamples > len(scanLine) || scanLineSamples > len(scratch) {
		return false
	}
	width := m.width
	if scanLineSamples < m.smallPictureMaxSamples {
		width /= 2
	}
	if scanLineSamples < m.mediumPictureMaxSamples {
		width /= 2
	}
	m.lowPassFilter.Cutoff(float64(width), float64(2*scanLineSamples), 2)
	levels := scratch[:scanLineSamples]
	smoothLevels(m.lowPassFilter, levels, scanLine[syncPulseIndex:syncPulseIndex+scanLineSamples], frequencyOffset)
	for i := 0; i < width; i++ {
		pixels.Pixels[i] = Gray(levels[(i*scanLineSamples)/width])
	}
	pixels.Width = width
	pixels.Height = 1
	return true
}

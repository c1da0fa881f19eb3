package sstv

import (
	"github.com/wydy/robot36/dsp"
)

// Mode decodes the scan lines of one SSTV format.
//
// Decode reads one scan line from scanLine, starting relative to the end
// of its sync pulse at syncPulseIndex, and writes one or two rows into
// pixels. It reports false without touching pixels when the line does not
// lie entirely inside scanLine, or when the line yields no output rows.
type Mode interface {
	Name() string
	// Code is the VIS code, or -1 for modes without one.
	Code() int
	Width() int
	Height() int
	ScanLineSamples() int
	// FirstSyncPulseIndex is the distance from the end of the VIS header
	// to the end of the first scan line's sync pulse.
	FirstSyncPulseIndex() int
	// DecodeBegin is the first sample read relative to the sync pulse.
	DecodeBegin() int
	Reset()
	Decode(pixels *PixelBuffer, scratch, scanLine []float32, syncPulseIndex, scanLineSamples int, frequencyOffset float32) bool
}

// layout holds the timing shared by every fixed-format mode. All sample
// offsets are relative to the end of the sync pulse.
type layout struct {
	name                string
	code                int
	width, height       int
	scanLineSamples     int
	firstSyncPulseIndex int
	beginSamples        int
	endSamples          int
	sampleRate          int
}

func (l *layout) Name() string             { return l.name }
func (l *layout) Code() int                { return l.code }
func (l *layout) Width() int               { return l.width }
func (l *layout) Height() int              { return l.height }
func (l *layout) ScanLineSamples() int     { return l.scanLineSamples }
func (l *layout) FirstSyncPulseIndex() int { return l.firstSyncPulseIndex }
func (l *layout) DecodeBegin() int         { return l.beginSamples }
func (l *layout) Reset()                   {}

func (l *layout) samples(seconds float64) int { return samples(seconds, l.sampleRate) }

// span returns a channel window starting at beginSeconds, relative to the
// start of the decoded region.
func (l *layout) span(beginSeconds, seconds float64) span {
	return span{begin: l.samples(beginSeconds) - l.beginSamples, samples: l.samples(seconds)}
}

func (l *layout) fits(scratch, scanLine []float32, syncPulseIndex int) bool {
	return syncPulseIndex+l.beginSamples >= 0 &&
		syncPulseIndex+l.endSamples <= len(scanLine) &&
		l.endSamples-l.beginSamples <= len(scratch)
}

// smooth lowpasses the decoded region forward then backward into scratch
// as levels. Running both directions cancels the phase shift.
func (l *layout) smooth(lp *dsp.ExponentialMovingAverage, scratch, scanLine []float32, syncPulseIndex int, frequencyOffset float32) {
	region := scanLine[syncPulseIndex+l.beginSamples : syncPulseIndex+l.endSamples]
	smoothLevels(lp, scratch[:len(region)], region, frequencyOffset)
}

func smoothLevels(lp *dsp.ExponentialMovingAverage, dst, src []float32, frequencyOffset float32) {
	lp.Reset()
	for i, v := range src {
		dst[i] = lp.Avg(v)
	}
	lp.Reset()
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = freqToLevel(lp.Avg(dst[i]), frequencyOffset)
	}
}

type span struct {
	begin, samples int
}

// at returns the scratch position of pixel x of width.
func (s span) at(x, width int) int {
	return s.begin + (x*s.samples)/width
}

func newLowPass(width, channelSamples int) *dsp.ExponentialMovingAverage {
	lp := dsp.NewExponentialMovingAverage()
	lp.Cutoff(float64(width), float64(2*channelSamples), 2)
	return lp
}

// modeTable lists the known modes by the sync pulse width they use.
func modeTable(sampleRate int) [3][]Mode {
	return [3][]Mode{
		FiveMilliSeconds: {
			Wraase("Wraase SC2-180", 55, 0.235, sampleRate),
			Martin("Martin 1", 44, 0.146432, sampleRate),
			Martin("Martin 2", 40, 0.073216, sampleRate),
		},
		NineMilliSeconds: {
			Robot36Color(sampleRate),
			Robot72Color(sampleRate),
			Scottie("Scottie 1", 60, 0.138240, sampleRate),
			Scottie("Scottie 2", 56, 0.088064, sampleRate),
			Scottie("Scottie DX", 76, 0.3456, sampleRate),
		},
		TwentyMilliSeconds: {
			PaulDon("PD 50", 93, 320, 256, 0.09152, sampleRate),
			PaulDon("PD 90", 99, 320, 256, 0.17024, sampleRate),
			PaulDon("PD 120", 95, 640, 496, 0.1216, sampleRate),
			PaulDon("PD 160", 98, 512, 400, 0.195584, sampleRate),
			PaulDon("PD 180", 96, 640, 496, 0.18304, sampleRate),
			PaulDon("PD 240", 97, 640, 496, 0.24448, sampleRate),
			PaulDon("PD 290", 94, 800, 616, 0.2288, sampleRate),
		},
	}
}

// Modes returns every mode that can be announced by a VIS header.
func Modes(sampleRate int) []Mode {
	var modes []Mode
	for _, class := range modeTable(sampleRate) {
		modes = append(modes, class...)
	}
	return modes
}

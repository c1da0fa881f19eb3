package sstv

import (
	"math"

	"github.com/wydy/robot36/dsp"
)

// SyncPulseWidth classifies a detected sync pulse.
type SyncPulseWidth int

const (
	FiveMilliSeconds SyncPulseWidth = iota
	NineMilliSeconds
	TwentyMilliSeconds
)

func (w SyncPulseWidth) String() string {
	switch w {
	case FiveMilliSeconds:
		return "5ms"
	case NineMilliSeconds:
		return "9ms"
	case TwentyMilliSeconds:
		return "20ms"
	}
	return "unknown"
}

// Tone frequencies in Hz.
const (
	syncPulseFrequency   = 1200.0
	blackFrequency       = 1500.0
	whiteFrequency       = 2300.0
	leaderToneFrequency  = 1900.0
	scanLineBandwidth    = whiteFrequency - blackFrequency
	lowestFrequency      = 1000.0
	highestFrequency     = 2800.0
	centerFrequency      = (lowestFrequency + highestFrequency) / 2
	frequencyToleranceHz = 50.0
)

// normalize maps Hz onto the demodulator output scale where black is -1
// and white is +1.
func normalize(hz float64) float32 {
	return float32((hz - centerFrequency) * 2 / scanLineBandwidth)
}

// denormalize maps a demodulator output value back to Hz.
func denormalize(v float32) float64 {
	return float64(v)*scanLineBandwidth/2 + centerFrequency
}

// oddLength rounds seconds worth of samples and forces an odd count.
func oddLength(seconds float64, sampleRate int) int {
	return int(math.Round(seconds*float64(sampleRate))) | 1
}

func samples(seconds float64, sampleRate int) int {
	return int(math.Round(seconds * float64(sampleRate)))
}

// Demodulator turns audio into a normalized instantaneous frequency trace
// and watches it for sync pulses.
type Demodulator struct {
	baseBandOscillator  *dsp.Phasor
	baseBandLowPass     *dsp.ComplexConvolution
	frequencyModulation *dsp.FrequencyModulation
	syncPulseFilter     *dsp.MovingAverage
	syncPulseValueDelay *dsp.Delay
	syncPulseTrigger    *dsp.SchmittTrigger

	syncPulseFilterDelay        int
	syncPulseMinSamples         int
	syncPulse5msMaxSamples      int
	syncPulse9msMaxSamples      int
	syncPulse20msMaxSamples     int
	syncPulseFrequencyValue     float32
	syncPulseFrequencyTolerance float32
	syncPulseCounter            int

	// Set by Process when it reports a pulse.
	SyncPulseWidth  SyncPulseWidth
	SyncPulseOffset int
	FrequencyOffset float32
}

func NewDemodulator(sampleRate int) *Demodulator {
	rate := float64(sampleRate)
	cutoff := (highestFrequency - lowestFrequency) / 2
	syncPulseFilterLength := oddLength(0.0025, sampleRate)

	// The trigger runs on the negated trace so it latches while the
	// frequency sits low, inside a pulse.
	releaseFrequency := (syncPulseFrequency + blackFrequency) / 2
	enterFrequency := (syncPulseFrequency + releaseFrequency) / 2
	return &Demodulator{
		baseBandOscillator:  dsp.NewPhasor(-centerFrequency, rate),
		baseBandLowPass:     dsp.NewKaiserLowPass(cutoff, rate, oddLength(0.002, sampleRate), 2.0),
		frequencyModulation: dsp.NewFrequencyModulation(scanLineBandwidth, rate),
		syncPulseFilter:     dsp.NewMovingAverage(syncPulseFilterLength),
		syncPulseValueDelay: dsp.NewDelay(syncPulseFilterLength),
		syncPulseTrigger:    dsp.NewSchmittTrigger(-normalize(releaseFrequency), -normalize(enterFrequency)),

		syncPulseFilterDelay:        (syncPulseFilterLength - 1) / 2,
		syncPulseMinSamples:         samples(0.0025, sampleRate),
		syncPulse5msMaxSamples:      samples((0.005+0.009)/2, sampleRate),
		syncPulse9msMaxSamples:      samples((0.009+0.020)/2, sampleRate),
		syncPulse20msMaxSamples:     samples(0.025, sampleRate),
		syncPulseFrequencyValue:     normalize(syncPulseFrequency),
		syncPulseFrequencyTolerance: float32(frequencyToleranceHz * 2 / scanLineBandwidth),
	}
}

// Process replaces the first len(buffer)/channel.Channels() samples of
// buffer with the frequency trace and reports whether a plausible sync
// pulse ended within it. Only the last pulse of a buffer is reported.
func (d *Demodulator) Process(buffer []float32, channel Channel) bool {
	detected := false
	frames := len(buffer) / channel.Channels()
	for i := 0; i < frames; i++ {
		var sample complex64
		switch channel {
		case Left:
			sample = complex(buffer[2*i], 0)
		case Right:
			sample = complex(buffer[2*i+1], 0)
		case Sum:
			sample = complex(buffer[2*i]+buffer[2*i+1], 0)
		case Analytic:
			sample = complex(buffer[2*i], buffer[2*i+1])
		default:
			sample = complex(buffer[i], 0)
		}
		baseBand := d.baseBandLowPass.Push(sample * d.baseBandOscillator.Rotate())
		frequencyValue := d.frequencyModulation.Demod(baseBand)
		syncPulseValue := d.syncPulseFilter.Avg(frequencyValue)
		syncPulseDelayedValue := d.syncPulseValueDelay.Push(syncPulseValue)
		buffer[i] = frequencyValue

		if d.syncPulseTrigger.Latch(-syncPulseValue) {
			d.syncPulseCounter++
			continue
		}
		if d.syncPulseCounter == 0 {
			continue
		}
		count := d.syncPulseCounter
		d.syncPulseCounter = 0
		if count < d.syncPulseMinSamples || count > d.syncPulse20msMaxSamples {
			continue
		}
		offset := syncPulseDelayedValue - d.syncPulseFrequencyValue
		if abs32(offset) > d.syncPulseFrequencyTolerance {
			continue
		}
		switch {
		case count < d.syncPulse5msMaxSamples:
			d.SyncPulseWidth = FiveMilliSeconds
		case count < d.syncPulse9msMaxSamples:
			d.SyncPulseWidth = NineMilliSeconds
		default:
			d.SyncPulseWidth = TwentyMilliSeconds
		}
		d.SyncPulseOffset = i - d.syncPulseFilterDelay
		d.FrequencyOffset = offset
		detected = true
	}
	return detected
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

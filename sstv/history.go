package sstv

import "gonum.org/v1/gonum/stat"

// pulseHistory remembers the most recent sync pulses of one width class.
// A period of zero means the pulse before it was never seen.
type pulseHistory struct {
	pulses  []int
	periods []int
	offsets []float64
	count   int

	samples []float64
}

func newPulseHistory(periods int) *pulseHistory {
	return &pulseHistory{
		pulses:  make([]int, periods+1),
		periods: make([]int, periods),
		offsets: make([]float64, periods+1),
		samples: make([]float64, periods),
	}
}

func (h *pulseHistory) latest() int { return h.pulses[len(h.pulses)-1] }

// push records a pulse ending at index and shifts out the oldest entry.
func (h *pulseHistory) push(index int, frequencyOffset float32) {
	last := len(h.pulses) - 1
	copy(h.periods, h.periods[1:])
	h.periods[len(h.periods)-1] = 0
	if h.count > 0 {
		h.periods[len(h.periods)-1] = index - h.pulses[last]
	}
	h.count++
	copy(h.pulses, h.pulses[1:])
	h.pulses[last] = index
	copy(h.offsets, h.offsets[1:])
	h.offsets[last] = float64(frequencyOffset)
}

// refine replaces the newest pulse with a better measurement of it.
func (h *pulseHistory) refine(index int, frequencyOffset float32) {
	last := len(h.pulses) - 1
	if h.count > 1 {
		h.periods[len(h.periods)-1] = index - h.pulses[last-1]
	}
	h.pulses[last] = index
	h.offsets[last] = float64(frequencyOffset)
}

// full reports whether every period has been measured.
func (h *pulseHistory) full() bool { return h.periods[0] != 0 }

// periodStats returns the mean and population standard deviation of the
// measured periods in samples.
func (h *pulseHistory) periodStats() (mean, stddev float64) {
	for i, p := range h.periods {
		h.samples[i] = float64(p)
	}
	return stat.PopMeanStdDev(h.samples, nil)
}

func (h *pulseHistory) frequencyOffset() float32 {
	return float32(stat.Mean(h.offsets, nil))
}

func (h *pulseHistory) shift(n int) {
	for i := range h.pulses {
		h.pulses[i] -= n
	}
}

// seed fills the history with pulses spaced exactly period apart, the
// newest ending at index.
func (h *pulseHistory) seed(index, period int, frequencyOffset float32) {
	last := len(h.pulses) - 1
	for i := range h.pulses {
		h.pulses[i] = index - (last-i)*period
		h.offsets[i] = float64(frequencyOffset)
	}
	for i := range h.periods {
		h.periods[i] = period
	}
	h.count = len(h.pulses)
}

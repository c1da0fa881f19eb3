package sstv

import (
	"errors"
	"fmt"
	"math"

	"github.com/wydy/robot36/dsp"
)

// VIS tones in Hz.
const (
	visStopBitFrequency = 1200.0
	visOneBitFrequency  = 1100.0
	visZeroBitFrequency = 1300.0
)

var (
	errHeaderTooEarly = errors.New("break too close to buffer start")
	errPreBreak       = errors.New("no leader tone before break")
	errLeader         = errors.New("no leader tone after break")
	errStartBit       = errors.New("start bit not found")
	errParity         = errors.New("parity mismatch")
)

type headerState int

const (
	// headerIdle waits for a break pulse.
	headerIdle headerState = iota
	// headerArmed has seen a break and waits for the rest of the header
	// to arrive in the buffer.
	headerArmed
	// headerValidating is checking the buffered header.
	headerValidating
)

func (s headerState) String() string {
	return [...]string{"idle", "armed", "validating"}[s]
}

type visResult struct {
	code            int
	begin, end      int
	frequencyOffset float32
}

// visHeader finds and validates the VIS header that precedes a picture:
// leader tone, break, leader tone, then start bit, seven data bits LSB
// first, even parity bit and stop bit.
type visHeader struct {
	state      headerState
	breakIndex int

	leaderToneSamples          int
	leaderToneToleranceSamples int
	transitionSamples          int
	bitSamples                 int
	codeSamples                int
	pulseFilterLength          int
}

func newVISHeader(sampleRate int) *visHeader {
	leaderToneSeconds := 0.3
	bitSeconds := 0.03
	return &visHeader{
		leaderToneSamples:          samples(leaderToneSeconds, sampleRate),
		leaderToneToleranceSamples: samples(leaderToneSeconds*0.2, sampleRate),
		transitionSamples:          samples(0.0005, sampleRate),
		bitSamples:                 samples(bitSeconds, sampleRate),
		codeSamples:                samples(10*bitSeconds, sampleRate),
		pulseFilterLength:          oddLength(0.0025, sampleRate),
	}
}

// arm records a break pulse ending at index. A later break replaces an
// earlier one.
func (h *visHeader) arm(index int) {
	h.state = headerArmed
	h.breakIndex = index
}

func (h *visHeader) shift(n int) {
	if h.state != headerIdle {
		h.breakIndex -= n
	}
}

// ready reports whether the whole header window has been buffered.
func (h *visHeader) ready(currentSample int) bool {
	return h.state == headerArmed &&
		currentSample >= h.breakIndex+h.leaderToneSamples+h.leaderToneToleranceSamples+h.codeSamples+h.bitSamples
}

// decode validates the buffered header and disarms.
func (h *visHeader) decode(buf []float32) (visResult, error) {
	h.state = headerValidating
	defer func() { h.state = headerIdle }()

	if h.breakIndex < h.bitSamples+h.leaderToneToleranceSamples {
		return visResult{}, errHeaderTooEarly
	}
	if err := h.checkPreBreak(buf); err != nil {
		return visResult{}, err
	}
	offset, err := h.leaderOffset(buf)
	if err != nil {
		return visResult{}, err
	}
	begin, err := h.findStartBit(buf, offset)
	if err != nil {
		return visResult{}, err
	}
	bits, err := h.readBits(buf, begin, offset)
	if err != nil {
		return visResult{}, err
	}
	code, err := checkParity(bits)
	if err != nil {
		return visResult{}, err
	}
	return visResult{code: code, begin: begin, end: begin + h.codeSamples, frequencyOffset: offset}, nil
}

func average(buf []float32) float32 {
	var sum float32
	for _, v := range buf {
		sum += v
	}
	return sum / float32(len(buf))
}

func near(hz, want float64) bool {
	return math.Abs(hz-want) <= frequencyToleranceHz
}

func (h *visHeader) checkPreBreak(buf []float32) error {
	end := h.breakIndex - h.bitSamples
	hz := denormalize(average(buf[end-h.leaderToneToleranceSamples : end]))
	if !near(hz, leaderToneFrequency) {
		return fmt.Errorf("%w: %.0f Hz", errPreBreak, hz)
	}
	return nil
}

// leaderOffset measures the leader tone after the break and returns its
// deviation from nominal as a normalized frequency offset.
func (h *visHeader) leaderOffset(buf []float32) (float32, error) {
	begin := h.breakIndex + h.transitionSamples
	end := h.breakIndex + h.leaderToneSamples - h.leaderToneToleranceSamples
	avg := average(buf[begin:end])
	if hz := denormalize(avg); !near(hz, leaderToneFrequency) {
		return 0, fmt.Errorf("%w: %.0f Hz", errLeader, hz)
	}
	return avg - normalize(leaderToneFrequency), nil
}

// findStartBit searches around the nominal end of the leader for the
// falling edge into the start bit.
func (h *visHeader) findStartBit(buf []float32, offset float32) (int, error) {
	begin := h.breakIndex + h.leaderToneSamples - h.leaderToneToleranceSamples
	end := h.breakIndex + h.leaderToneSamples + h.leaderToneToleranceSamples + h.bitSamples
	threshold := normalize((visStopBitFrequency + leaderToneFrequency) / 2)
	filter := dsp.NewMovingAverage(h.pulseFilterLength)
	for i := begin; i < begin+h.pulseFilterLength; i++ {
		filter.Avg(buf[i] - offset)
	}
	for i := begin + h.pulseFilterLength; i < end; i++ {
		if filter.Avg(buf[i]-offset) < threshold {
			return i - (h.pulseFilterLength-1)/2, nil
		}
	}
	return 0, errStartBit
}

// readBits returns the eight data and parity bits.
func (h *visHeader) readBits(buf []float32, begin int, offset float32) ([8]bool, error) {
	var bits [8]bool
	for i := 0; i < 10; i++ {
		bitBegin := begin + i*h.bitSamples + h.transitionSamples
		bitEnd := begin + (i+1)*h.bitSamples - h.transitionSamples
		hz := denormalize(average(buf[bitBegin:bitEnd]) - offset)
		if i == 0 || i == 9 {
			if !near(hz, visStopBitFrequency) {
				return bits, fmt.Errorf("bad stop bit %d: %.0f Hz", i, hz)
			}
			continue
		}
		if !near(hz, visOneBitFrequency) && !near(hz, visZeroBitFrequency) {
			return bits, fmt.Errorf("bad data bit %d: %.0f Hz", i, hz)
		}
		bits[i-1] = hz < visStopBitFrequency
	}
	return bits, nil
}

// checkParity verifies even parity over all eight bits and returns the
// seven bit code, least significant bit first.
func checkParity(bits [8]bool) (int, error) {
	code, even := 0, true
	for i, bit := range bits {
		if bit {
			code |= 1 << i
			even = !even
		}
	}
	if !even {
		return 0, fmt.Errorf("%w: %#02x", errParity, code)
	}
	return code & 0x7f, nil
}

package sstv

import (
	"math"
	"slices"
)

// synth writes phase-continuous test tones. Durations accumulate in
// fractional samples so long transmissions keep exact timing.
type synth struct {
	rate  float64
	phase float64
	clock float64
	out   []float32
}

func newSynth(rate int) *synth { return &synth{rate: float64(rate)} }

func (s *synth) tone(hz, seconds float64) {
	s.clock += seconds * s.rate
	for float64(len(s.out)) < math.Round(s.clock) {
		s.phase += 2 * math.Pi * hz / s.rate
		s.out = append(s.out, float32(0.5*math.Sin(s.phase)))
	}
}

// level sends a byte value on the black to white scale.
func (s *synth) level(b int, seconds float64) {
	s.tone(blackFrequency+scanLineBandwidth*float64(b)/255, seconds)
}

func (s *synth) bit(one bool, seconds float64) {
	if one {
		s.tone(visOneBitFrequency, seconds)
	} else {
		s.tone(visZeroBitFrequency, seconds)
	}
}

func (s *synth) vis(code int) {
	s.tone(leaderToneFrequency, 0.3)
	s.tone(syncPulseFrequency, 0.01)
	s.tone(leaderToneFrequency, 0.3)
	s.tone(visStopBitFrequency, 0.03)
	parity := false
	for i := 0; i < 7; i++ {
		one := code>>i&1 == 1
		parity = parity != one
		s.bit(one, 0.03)
	}
	s.bit(parity, 0.03)
	s.tone(visStopBitFrequency, 0.03)
}

func (s *synth) robot36Line(line, y, u, v int) {
	s.tone(syncPulseFrequency, 0.009)
	s.tone(blackFrequency, 0.003)
	s.level(y, 0.088)
	if line%2 == 0 {
		s.tone(blackFrequency, 0.0045)
		s.tone(leaderToneFrequency, 0.0015)
		s.level(v, 0.044)
	} else {
		s.tone(whiteFrequency, 0.0045)
		s.tone(leaderToneFrequency, 0.0015)
		s.level(u, 0.044)
	}
}

func (s *synth) robot72Line(y, u, v int) {
	s.tone(syncPulseFrequency, 0.009)
	s.tone(blackFrequency, 0.003)
	s.level(y, 0.138)
	s.tone(blackFrequency, 0.0045)
	s.tone(leaderToneFrequency, 0.0015)
	s.level(v, 0.069)
	s.tone(whiteFrequency, 0.0045)
	s.tone(leaderToneFrequency, 0.0015)
	s.level(u, 0.069)
}

func (s *synth) martinLine(channel float64, r, g, b int) {
	s.tone(syncPulseFrequency, 0.004862)
	for _, c := range []int{g, b, r} {
		s.tone(blackFrequency, 0.000572)
		s.level(c, channel)
	}
	s.tone(blackFrequency, 0.000572)
}

// scottieLine sends one line; the starting sync goes out once after the
// header.
func (s *synth) scottieLine(channel float64, r, g, b int) {
	s.tone(blackFrequency, 0.0015)
	s.level(g, channel)
	s.tone(blackFrequency, 0.0015)
	s.level(b, channel)
	s.tone(syncPulseFrequency, 0.009)
	s.tone(blackFrequency, 0.0015)
	s.level(r, channel)
}

func (s *synth) paulDonLine(channel float64, y, u, v int) {
	s.tone(syncPulseFrequency, 0.02)
	s.tone(blackFrequency, 0.00208)
	s.level(y, channel)
	s.level(v, channel)
	s.level(u, channel)
	s.level(y, channel)
}

type recorder struct {
	rows     [][]uint32
	rowModes []string
	headers  []int
	modes    []string
	complete int
}

func (r *recorder) ScanLine(mode Mode, row []uint32) {
	r.rows = append(r.rows, slices.Clone(row))
	r.rowModes = append(r.rowModes, mode.Name())
}

func (r *recorder) HeaderDecoded(code int, mode Mode) {
	r.headers = append(r.headers, code)
	name := ""
	if mode != nil {
		name = mode.Name()
	}
	r.modes = append(r.modes, name)
}

func (r *recorder) ImageComplete(mode Mode, image *PixelBuffer) { r.complete++ }

// feed runs audio through d in fixed chunks and counts the chunks that
// produced scan lines. A trailing partial chunk is dropped.
func feed(d *Decoder, audio []float32, chunk int) int {
	lines := 0
	buf := make([]float32, chunk)
	for off := 0; off+chunk <= len(audio); off += chunk {
		copy(buf, audio[off:off+chunk])
		if d.Process(buf, Mono) {
			lines++
		}
	}
	return lines
}

func newTestDecoder(rate int, opts ...Option) (*Decoder, *Scope, *PixelBuffer) {
	scope := NewScope(640, 480)
	image := NewPixelBuffer(800, 616)
	return NewDecoder(scope, image, rate, opts...), scope, image
}

func channelDistance(a, b uint32) int {
	d := 0
	for shift := 0; shift < 24; shift += 8 {
		d = max(d, abs(int(a>>shift&0xff)-int(b>>shift&0xff)))
	}
	return d
}

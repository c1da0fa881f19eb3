// Package sstvtest generates SSTV audio for tests.
package sstvtest

import "math"

const (
	SyncHz   = 1200
	BlackHz  = 1500
	LeaderHz = 1900
	WhiteHz  = 2300
)

// Synth writes phase-continuous tones at 0.5 amplitude.
type Synth struct {
	Out   []float32
	rate  float64
	phase float64
	clock float64
}

func NewSynth(rate int) *Synth { return &Synth{rate: float64(rate)} }

func (s *Synth) Tone(hz, seconds float64) {
	s.clock += seconds * s.rate
	for float64(len(s.Out)) < math.Round(s.clock) {
		s.phase += 2 * math.Pi * hz / s.rate
		s.Out = append(s.Out, float32(0.5*math.Sin(s.phase)))
	}
}

// Level sends a byte value on the black to white scale.
func (s *Synth) Level(b int, seconds float64) {
	s.Tone(BlackHz+(WhiteHz-BlackHz)*float64(b)/255, seconds)
}

// VIS sends a calibration header announcing code.
func (s *Synth) VIS(code int) {
	s.Tone(LeaderHz, 0.3)
	s.Tone(SyncHz, 0.01)
	s.Tone(LeaderHz, 0.3)
	s.Tone(SyncHz, 0.03)
	parity := 0
	for i := 0; i < 8; i++ {
		one := code>>i&1 == 1
		if i == 7 {
			one = parity == 1
		} else if one {
			parity ^= 1
		}
		if one {
			s.Tone(1100, 0.03)
		} else {
			s.Tone(1300, 0.03)
		}
	}
	s.Tone(SyncHz, 0.03)
}

// Robot36 sends a whole Robot 36 picture of one colour.
func (s *Synth) Robot36(y, u, v int) {
	s.VIS(8)
	for line := 0; line < 240; line++ {
		s.Tone(SyncHz, 0.009)
		s.Tone(BlackHz, 0.003)
		s.Level(y, 0.088)
		if line%2 == 0 {
			s.Tone(BlackHz, 0.0045)
			s.Tone(LeaderHz, 0.0015)
			s.Level(v, 0.044)
		} else {
			s.Tone(WhiteHz, 0.0045)
			s.Tone(LeaderHz, 0.0015)
			s.Level(u, 0.044)
		}
	}
}

// Chunks splits audio into full chunks of n samples on a closed channel.
func Chunks(audio []float32, n int) <-chan []float32 {
	ch := make(chan []float32, len(audio)/n)
	for off := 0; off+n <= len(audio); off += n {
		ch <- audio[off : off+n]
	}
	close(ch)
	return ch
}

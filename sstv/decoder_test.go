package sstv

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRobot36Picture(t *testing.T) {
	const rate = 44100
	const y, u, v = 128, 100, 180
	s := newSynth(rate)
	s.tone(blackFrequency, 0.1)
	s.vis(8)
	for line := 0; line < 240; line++ {
		s.robot36Line(line, y, u, v)
	}
	s.tone(blackFrequency, 0.5)

	rec := &recorder{}
	d, _, image := newTestDecoder(rate, WithObserver(rec))
	lines := feed(d, s.out, 2048)

	require.Equal(t, []int{8}, rec.headers)
	require.Equal(t, []string{"Robot 36 Color"}, rec.modes)
	require.Equal(t, "Robot 36 Color", d.ModeName())
	require.Equal(t, 1, rec.complete)
	require.True(t, image.Complete())
	require.Equal(t, 320, image.Width)
	require.Equal(t, 240, image.Height)
	require.Greater(t, lines, 100)

	want := YUV2RGB(y, u, v)
	for row := 2; row < 238; row += 12 {
		for x := 16; x < 304; x += 8 {
			got := image.Row(row)[x]
			require.LessOrEqual(t, channelDistance(want, got), 8, "row %d col %d: want %#x got %#x", row, x, want, got)
		}
	}
}

func TestWhiteNoiseProducesNothing(t *testing.T) {
	const rate = 44100
	rng := rand.New(rand.NewPCG(1, 2))
	noise := make([]float32, 3*rate)
	for i := range noise {
		noise[i] = rng.Float32() - 0.5
	}
	rec := &recorder{}
	d, _, image := newTestDecoder(rate, WithObserver(rec))
	assert.Zero(t, feed(d, noise, 2048))
	assert.Empty(t, rec.headers)
	assert.Empty(t, rec.rows)
	assert.False(t, image.Active())
	assert.Equal(t, "", d.ModeName())
}

func TestDecodeHeaders(t *testing.T) {
	const rate = 8000
	for _, mode := range Modes(rate) {
		t.Run(mode.Name(), func(t *testing.T) {
			s := newSynth(rate)
			s.tone(blackFrequency, 0.1)
			s.vis(mode.Code())
			s.tone(leaderToneFrequency, 0.3)

			rec := &recorder{}
			d, _, image := newTestDecoder(rate, WithObserver(rec))
			feed(d, s.out, 256)
			require.Equal(t, []int{mode.Code()}, rec.headers)
			require.Equal(t, mode.Name(), d.ModeName())
			require.True(t, image.Active())
			require.Equal(t, mode.Width(), image.Width)
			require.Equal(t, mode.Height(), image.Height)
		})
	}
}

func TestDecodeUnknownHeader(t *testing.T) {
	const rate = 8000
	s := newSynth(rate)
	s.tone(blackFrequency, 0.1)
	s.vis(1)
	s.tone(leaderToneFrequency, 0.3)

	rec := &recorder{}
	d, scope, image := newTestDecoder(rate, WithObserver(rec))
	feed(d, s.out, 256)
	require.Equal(t, []int{1}, rec.headers)
	require.Equal(t, []string{""}, rec.modes)
	require.Equal(t, "", d.ModeName())
	require.False(t, image.Active())
	visible := scope.Visible()
	require.Equal(t, Red, visible[len(visible)-1])
}

func TestDecodeFormats(t *testing.T) {
	const rate = 8000
	const lines = 10
	const r, g, b = 200, 60, 120
	const y, u, v = 100, 150, 90
	tests := []struct {
		name    string
		code    int
		seconds float64
		want    uint32
		line    func(s *synth)
		pre     func(s *synth)
	}{
		{
			name: "Martin 1", code: 44, seconds: 0.446446, want: RGB(r, g, b),
			line: func(s *synth) { s.martinLine(0.146432, r, g, b) },
		},
		{
			name: "Martin 2", code: 40, seconds: 0.226798, want: RGB(r, g, b),
			line: func(s *synth) { s.martinLine(0.073216, r, g, b) },
		},
		{
			name: "Scottie 1", code: 60, seconds: 0.42822, want: RGB(r, g, b),
			pre:  func(s *synth) { s.tone(syncPulseFrequency, 0.009) },
			line: func(s *synth) { s.scottieLine(0.138240, r, g, b) },
		},
		{
			name: "Robot 72 Color", code: 12, seconds: 0.3, want: YUV2RGB(y, u, v),
			line: func(s *synth) { s.robot72Line(y, u, v) },
		},
		{
			name: "PD 50", code: 93, seconds: 0.38816, want: YUV2RGB(y, u, v),
			line: func(s *synth) { s.paulDonLine(0.09152, y, u, v) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSynth(rate)
			s.tone(blackFrequency, 0.1)
			s.vis(tt.code)
			if tt.pre != nil {
				tt.pre(s)
			}
			for i := 0; i < lines; i++ {
				tt.line(s)
			}
			// Long enough for the last line to ride through, short of
			// the one after it.
			s.tone(leaderToneFrequency, 1.15*tt.seconds)

			rec := &recorder{}
			d, _, _ := newTestDecoder(rate, WithObserver(rec))
			feed(d, s.out, 256)
			mode := d.Mode()
			require.NotNil(t, mode)
			require.Equal(t, tt.name, mode.Name())
			require.GreaterOrEqual(t, len(rec.rows), lines-2)
			for i, row := range rec.rows {
				for x := len(row) / 8; x < 7*len(row)/8; x += 4 {
					require.LessOrEqual(t, channelDistance(tt.want, row[x]), 10,
						"row %d col %d: want %#x got %#x", i, x, tt.want, row[x])
				}
			}
		})
	}
}

func TestDetectRobot36WithoutHeader(t *testing.T) {
	const rate = 8000
	const y, u, v = 128, 100, 180
	s := newSynth(rate)
	s.tone(blackFrequency, 0.1)
	for line := 0; line < 24; line++ {
		s.robot36Line(line, y, u, v)
	}
	s.tone(blackFrequency, 0.2)

	rec := &recorder{}
	d, _, image := newTestDecoder(rate, WithObserver(rec))
	feed(d, s.out, 256)
	require.Empty(t, rec.headers)
	require.Equal(t, "Robot 36 Color", d.ModeName())
	require.False(t, image.Active())
	require.GreaterOrEqual(t, len(rec.rows), 16)
	want := YUV2RGB(y, u, v)
	for i, row := range rec.rows {
		require.Len(t, row, 320)
		for x := 40; x < 280; x += 8 {
			require.LessOrEqual(t, channelDistance(want, row[x]), 10, "row %d col %d: want %#x got %#x", i, x, want, row[x])
		}
	}
}

func TestDetectModeChange(t *testing.T) {
	const rate = 8000
	const r, g, b = 200, 60, 120
	const y, u, v = 100, 150, 90
	s := newSynth(rate)
	s.tone(blackFrequency, 0.1)
	for i := 0; i < 8; i++ {
		s.martinLine(0.146432, r, g, b)
	}
	for i := 0; i < 8; i++ {
		s.paulDonLine(0.09152, y, u, v)
	}
	s.tone(leaderToneFrequency, 1.15*0.38816)

	rec := &recorder{}
	d, scope, _ := newTestDecoder(rate, WithObserver(rec))
	feed(d, s.out, 256)
	require.Empty(t, rec.headers)
	require.Equal(t, "PD 50", d.ModeName())
	require.Contains(t, rec.rowModes, "Martin 1")
	require.Equal(t, "PD 50", rec.rowModes[len(rec.rowModes)-1])
	require.Contains(t, scope.Visible(), Cyan)

	martin := slices.Index(rec.rowModes, "Martin 1")
	for x := 40; x < 280; x += 8 {
		require.LessOrEqual(t, channelDistance(RGB(r, g, b), rec.rows[martin][x]), 10, "martin col %d", x)
	}
	want := YUV2RGB(y, u, v)
	for _, row := range rec.rows[len(rec.rows)-4:] {
		for x := 40; x < 280; x += 8 {
			require.LessOrEqual(t, channelDistance(want, row[x]), 10, "pd col %d: want %#x got %#x", x, want, row[x])
		}
	}
}

func TestDetectFallsBackToRaw(t *testing.T) {
	const rate = 8000
	s := newSynth(rate)
	s.tone(leaderToneFrequency, 0.1)
	for i := 0; i < 10; i++ {
		s.tone(syncPulseFrequency, 0.009)
		s.tone(leaderToneFrequency, 0.2)
	}

	rec := &recorder{}
	d, _, image := newTestDecoder(rate, WithObserver(rec))
	feed(d, s.out, 256)
	require.Empty(t, rec.headers)
	require.Equal(t, "Raw", d.ModeName())
	require.False(t, image.Active())
	require.GreaterOrEqual(t, len(rec.rows), 4)
	// The leader sits mid scale, which the gray curve lifts to 0xb4.
	want := Gray(0.5)
	require.Equal(t, uint32(0xffb4b4b4), want)
	for i, row := range rec.rows {
		require.Len(t, row, 640)
		for x := 80; x < 480; x += 16 {
			require.LessOrEqual(t, channelDistance(want, row[x]), 6, "row %d col %d: want %#x got %#x", i, x, want, row[x])
		}
	}
}

func TestSetModeLocks(t *testing.T) {
	d, _, _ := newTestDecoder(8000)
	require.False(t, d.SetMode("Martin 9"))
	require.False(t, d.Locked())
	require.True(t, d.SetMode("Martin 1"))
	require.True(t, d.Locked())
	require.Equal(t, "Martin 1", d.ModeName())
	require.True(t, d.SetMode("Raw"))
	require.Equal(t, "Raw", d.ModeName())
	require.True(t, d.SetMode(""))
	require.False(t, d.Locked())
}

func TestShiftSamplesMovesIndices(t *testing.T) {
	d, _, _ := newTestDecoder(8000)
	for i := 0; i < 100; i++ {
		d.scanLineBuffer[i] = float32(i)
	}
	d.currentSample = 100
	d.lastSyncPulseIndex = 60
	d.header.arm(70)
	d.histories[NineMilliSeconds].push(50, 0)

	d.shiftSamples(200)
	require.Equal(t, 100, d.currentSample)

	d.shiftSamples(40)
	require.Equal(t, 60, d.currentSample)
	require.Equal(t, 20, d.lastSyncPulseIndex)
	require.Equal(t, 30, d.header.breakIndex)
	require.Equal(t, 10, d.histories[NineMilliSeconds].latest())
	require.Equal(t, float32(40), d.scanLineBuffer[0])
	require.Equal(t, float32(99), d.scanLineBuffer[59])
}

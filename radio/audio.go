package radio

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

var ErrBadChannels = errors.New("channel count must be 1 or 2")

// Format describes interleaved signed 16-bit little-endian PCM.
type Format struct {
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`
	Channels   int `yaml:"channels" json:"channels"`
}

func (f Format) frameBytes() int { return 2 * f.Channels }

type AudioReader struct {
	r   io.Reader
	fmt Format
	err error
}

// NewAudioReader takes a reader that yields s16le frames.
func NewAudioReader(r io.Reader, f Format) (*AudioReader, error) {
	if r == nil {
		panic("nil reader")
	}
	if f.Channels != 1 && f.Channels != 2 {
		return nil, ErrBadChannels
	}
	return &AudioReader{r: r, fmt: f}, nil
}

func (ar *AudioReader) Format() Format { return ar.fmt }

// Err is the error that ended the last stream, io.EOF on a clean end.
func (ar *AudioReader) Err() error { return ar.err }

func (ar *AudioReader) Batch(frames, limit int) <-chan []float32 {
	return ar.BatchStream(context.Background(), frames, limit)
}

// BatchStream emits chunks of exactly frames frames, each holding
// frames*channels interleaved samples scaled to [-1, 1). A trailing
// partial chunk is zero padded.
func (ar *AudioReader) BatchStream(ctx context.Context, frames, limit int) <-chan []float32 {
	ch := make(chan []float32, 1)
	go func() {
		defer close(ch)
		buf := make([]byte, frames*ar.fmt.frameBytes())
		for i := 0; limit <= 0 || i < limit; i++ {
			n, err := io.ReadFull(ar.r, buf)
			if n == 0 {
				ar.err = err
				return
			}
			clear(buf[n-n%2:])
			samps := make([]float32, len(buf)/2)
			for j := range samps {
				samps[j] = float32(int16(binary.LittleEndian.Uint16(buf[2*j:]))) / 32768.0
			}
			select {
			case ch <- samps:
			case <-ctx.Done():
				ar.err = ctx.Err()
				return
			}
			if err != nil {
				ar.err = io.EOF
				return
			}
		}
	}()
	return ch
}

type AudioWriter struct{ w io.Writer }

func NewAudioWriter(w io.Writer) *AudioWriter { return &AudioWriter{w} }

// Write stores samples as s16le, clipping to the representable range.
func (aw *AudioWriter) Write(out []float32) error {
	buf := make([]byte, 2*len(out))
	for i, v := range out {
		s := math.Round(float64(v) * 32768.0)
		s = math.Max(math.MinInt16, math.Min(math.MaxInt16, s))
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(int16(s)))
	}
	_, err := aw.w.Write(buf)
	return err
}

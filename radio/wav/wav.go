package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	ErrBadFormat = errors.New("bad format")
)

type riffHeader struct {
	ChunkId   [4]byte
	ChunkSize uint32
	Format    [4]byte
}

type chunkHeader struct {
	ChunkId   [4]byte
	ChunkSize uint32
}

// fmtBody is the PCM part of a "fmt " chunk; extensible headers append more.
type fmtBody struct {
	AudioFormat   uint16 /* 1 or 0xfffe */
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

const (
	formatPCM        = 1
	formatExtensible = 0xfffe
)

// Reader yields the raw PCM bytes of the first data chunk.
type Reader struct {
	io.Reader
	rh      riffHeader
	fh      fmtBody
	dataLen uint32
}

// NewReader parses the RIFF header, skipping chunks it does not understand
// (LIST, fact, ...) until the data chunk.
func NewReader(r io.Reader) (*Reader, error) {
	rr := &Reader{}
	if err := binary.Read(r, binary.LittleEndian, &rr.rh); err != nil {
		return nil, err
	}
	if string(rr.rh.ChunkId[:]) != "RIFF" || string(rr.rh.Format[:]) != "WAVE" {
		return nil, ErrBadFormat
	}
	haveFmt := false
	for {
		var ch chunkHeader
		if err := binary.Read(r, binary.LittleEndian, &ch); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
		}
		switch string(ch.ChunkId[:]) {
		case "fmt ":
			if ch.ChunkSize < 16 {
				return nil, ErrBadFormat
			}
			if err := binary.Read(r, binary.LittleEndian, &rr.fh); err != nil {
				return nil, err
			}
			if err := skip(r, ch.ChunkSize-16); err != nil {
				return nil, err
			}
			if rr.fh.AudioFormat != formatPCM && rr.fh.AudioFormat != formatExtensible {
				return nil, ErrBadFormat
			}
			if rr.fh.NumChannels == 0 || rr.fh.BitsPerSample != 16 {
				return nil, ErrBadFormat
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, ErrBadFormat
			}
			rr.dataLen = ch.ChunkSize
			rr.Reader = r
			if ch.ChunkSize != 0 && ch.ChunkSize < 1<<31 {
				rr.Reader = io.LimitReader(r, int64(ch.ChunkSize))
			}
			return rr, nil
		default:
			if err := skip(r, ch.ChunkSize+ch.ChunkSize&1); err != nil {
				return nil, err
			}
		}
	}
}

func skip(r io.Reader, n uint32) error {
	_, err := io.CopyN(io.Discard, r, int64(n))
	return err
}

func (r *Reader) Channels() int {
	return int(r.fh.NumChannels)
}

func (r *Reader) SampleRate() int {
	return int(r.fh.SampleRate)
}

// BitDepth is the width of one sample of one channel.
func (r *Reader) BitDepth() int {
	return int(r.fh.BitsPerSample)
}

type Writer struct {
	w io.Writer

	SampleRate    uint32
	BitsPerSample uint16
	NumChannels   uint16

	dataLen uint32
}

func NewWriter(w io.Writer, rate, depth, channels int) (*Writer, error) {
	if rate == 0 || depth == 0 || channels == 0 {
		return nil, ErrBadFormat
	}
	ww := &Writer{
		w:             w,
		SampleRate:    uint32(rate),
		BitsPerSample: uint16(depth),
		NumChannels:   uint16(channels),
	}
	if err := ww.writeHeader(0); err != nil {
		return nil, err
	}
	return ww, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	w.dataLen += uint32(len(p))
	return w.w.Write(p)
}

// Close rewrites the header with the real data length when the
// destination can seek; streams keep the open-ended length.
func (w *Writer) Close() error {
	if ws, ok := w.w.(io.WriteSeeker); ok {
		if _, err := ws.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if err := w.writeHeader(w.dataLen); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeHeader(dataLen uint32) error {
	if dataLen == 0 {
		dataLen = 1 << 31
	}
	rh := &riffHeader{
		ChunkId:   [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize: dataLen + 36,
		Format:    [4]byte{'W', 'A', 'V', 'E'},
	}
	if err := binary.Write(w.w, binary.LittleEndian, rh); err != nil {
		return err
	}
	fc := &chunkHeader{ChunkId: [4]byte{'f', 'm', 't', ' '}, ChunkSize: 16}
	if err := binary.Write(w.w, binary.LittleEndian, fc); err != nil {
		return err
	}
	fh := &fmtBody{
		AudioFormat:   formatPCM,
		NumChannels:   w.NumChannels,
		SampleRate:    w.SampleRate,
		ByteRate:      w.SampleRate * uint32(w.NumChannels) * uint32(w.BitsPerSample) / 8,
		BlockAlign:    uint16((uint32(w.NumChannels) * uint32(w.BitsPerSample)) / 8),
		BitsPerSample: w.BitsPerSample,
	}
	if err := binary.Write(w.w, binary.LittleEndian, fh); err != nil {
		return err
	}
	dh := &chunkHeader{
		ChunkId:   [4]byte{'d', 'a', 't', 'a'},
		ChunkSize: dataLen,
	}
	return binary.Write(w.w, binary.LittleEndian, dh)
}

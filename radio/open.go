package radio

import (
	"io"
	"os"
	"strings"

	"github.com/wydy/robot36/radio/wav"
)

// OpenAudio opens a wav file or raw s16le stream ("-" is stdin). The
// format of a wav file comes from its header; raw input uses f.
func OpenAudio(path string, f Format) (*AudioReader, Format, func(), error) {
	in, closer, err := openInput(path)
	if err != nil {
		return nil, f, nil, err
	}
	var r io.Reader = in
	if strings.HasSuffix(path, ".wav") {
		wr, err := wav.NewReader(in)
		if err != nil {
			closer()
			return nil, f, nil, err
		}
		f = Format{SampleRate: wr.SampleRate(), Channels: wr.Channels()}
		r = wr
	}
	ar, err := NewAudioReader(r, f)
	if err != nil {
		closer()
		return nil, f, nil, err
	}
	return ar, f, closer, nil
}

// OpenOutputS16 returns a writer for s16le samples; a .wav suffix gets a header.
func OpenOutputS16(path string, f Format) (io.Writer, func(), error) {
	w, closer, err := openOutput(path)
	if err != nil {
		return nil, nil, err
	}
	if strings.HasSuffix(path, ".wav") {
		ww, err := wav.NewWriter(w, f.SampleRate, 16, f.Channels)
		if err != nil {
			closer()
			return nil, nil, err
		}
		newCloser := func() {
			ww.Close()
			closer()
		}
		return ww, newCloser, nil
	}
	return w, closer, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "-" || path == "-.wav" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" || path == "-.wav" {
		return os.Stdin, func() {}, nil
	}
	fin, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return fin, func() { fin.Close() }, nil
}

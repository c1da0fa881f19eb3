package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	nethttp "net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wydy/robot36/dsp"
	"github.com/wydy/robot36/http"
	"github.com/wydy/robot36/radio"
	"github.com/wydy/robot36/sstv"
	"github.com/wydy/robot36/station"
	"github.com/wydy/robot36/store"
)

// newStation builds a station for audio in format f, saving pictures
// under the configured output directory.
func newStation(f radio.Format, reg prometheus.Registerer) (*station.Station, error) {
	if cfg.Channel == sstv.Mono && f.Channels == 2 {
		logger.Info("stereo input, decoding the sum of both channels")
		cfg.Channel = sstv.Sum
	}
	if cfg.Channel.Channels() != f.Channels {
		return nil, fmt.Errorf("channel %s needs %d channels, input has %d", cfg.Channel, cfg.Channel.Channels(), f.Channels)
	}
	is, err := store.NewImageStore(cfg.Output.Dir, cfg.Output.Pattern)
	if err != nil {
		return nil, err
	}
	idx := store.NewImageIndex()
	if cfg.Output.Index != "" {
		if err := idx.Load(cfg.Output.Index); err != nil {
			logger.Warn("could not load image index", "path", cfg.Output.Index, "err", err)
		}
	}
	opts := []station.Option{
		station.WithLogger(logger),
		station.WithStore(is, idx, cfg.Output.Index),
	}
	if reg != nil {
		opts = append(opts, station.WithMetrics(station.NewMetrics(reg)))
	}
	st := station.New(f.SampleRate, cfg.Channel, cfg.Scope.Width, cfg.Scope.Height, opts...)
	if cfg.Mode != "" && !st.SetMode(cfg.Mode) {
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	return st, nil
}

// run decodes chunks, serving the web interface while it does when an
// address is configured.
func run(ctx context.Context, f radio.Format, chunks func(context.Context) <-chan []float32) error {
	st, err := newStation(f, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.HTTP.Addr != "" {
		srv := &nethttp.Server{
			Addr:    cfg.HTTP.Addr,
			Handler: http.Handler(st, cfg.Output.Dir, cfg.HTTP.Recent, prometheus.DefaultGatherer, logger),
		}
		go func() {
			logger.Info("serving http", "addr", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
				logger.Error("http", "err", err)
				cancel()
			}
		}()
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			srv.Shutdown(sctx)
		}()
	}
	logger.Info("decoding", "rate", f.SampleRate, "channel", cfg.Channel)
	err = st.Run(ctx, chunks(ctx))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func decode(ctx context.Context, path string) error {
	ar, f, closer, err := radio.OpenAudio(path, cfg.Format())
	if err != nil {
		return err
	}
	defer closer()
	st, err := newStation(f, nil)
	if err != nil {
		return err
	}
	if err := st.Run(ctx, ar.BatchStream(ctx, cfg.ChunkFrames, 0)); err != nil {
		return err
	}
	if err := ar.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if status := st.Status(); status.Active {
		logger.Warn("recording ended inside a picture", "mode", status.Mode, "line", status.Line, "height", status.Height)
	}
	if scopeOut == "" {
		return nil
	}
	out, err := os.Create(scopeOut)
	if err != nil {
		return err
	}
	if err := png.Encode(out, st.ScopeImage()); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func serve(ctx context.Context, path string) error {
	ar, f, closer, err := radio.OpenAudio(path, cfg.Format())
	if err != nil {
		return err
	}
	defer closer()
	return run(ctx, f, func(ctx context.Context) <-chan []float32 {
		return ar.BatchStream(ctx, cfg.ChunkFrames, 0)
	})
}

func listen(ctx context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()
	c, err := radio.OpenCapture(cfg.Device, cfg.Format(), cfg.ChunkFrames)
	if err != nil {
		return err
	}
	defer c.Close()
	logger.Info("capturing", "device", c.Name)
	if err := run(ctx, c.Format(), c.Stream); err != nil {
		return err
	}
	return c.Err()
}

func rtlfm(ctx context.Context) error {
	if cfg.Channel != sstv.Mono {
		return fmt.Errorf("rtl_fm audio is mono, not %s", cfg.Channel)
	}
	r, err := radio.StartRTLFM(ctx, cfg.RTLFM, cfg.SampleRate, logger)
	if err != nil {
		return err
	}
	defer r.Close()
	logger.Info("tuned", "hz", cfg.RTLFM.FreqHz)
	return run(ctx, r.Format(), func(ctx context.Context) <-chan []float32 {
		return r.BatchStream(ctx, cfg.ChunkFrames, 0)
	})
}

// trace writes the demodulator's view of the input: -1 is black,
// +1 white and -1.75 sync.
func trace(ctx context.Context, inPath, outPath string) error {
	ar, f, rcloser, err := radio.OpenAudio(inPath, cfg.Format())
	if err != nil {
		return err
	}
	defer rcloser()
	w, wcloser, err := radio.OpenOutputS16(outPath, radio.Format{SampleRate: f.SampleRate, Channels: 1})
	if err != nil {
		return err
	}
	defer wcloser()
	aw := radio.NewAudioWriter(w)

	mono := make(chan []float32, 1)
	go func() {
		defer close(mono)
		for samps := range ar.BatchStream(ctx, cfg.ChunkFrames, 0) {
			mono <- mixMono(samps, f.Channels)
		}
	}()
	mixc := dsp.MixDownCtx(ctx, 1900, f.SampleRate, mono)
	lpc := dsp.LowpassCtx(ctx, 900, f.SampleRate, f.SampleRate/500, mixc)
	for samps := range dsp.DemodFMCtx(ctx, 800, f.SampleRate, lpc) {
		for i := range samps {
			samps[i] /= 2
		}
		if err := aw.Write(samps); err != nil {
			return err
		}
	}
	return nil
}

func mixMono(samps []float32, channels int) []float32 {
	if channels == 1 {
		return samps
	}
	out := make([]float32, len(samps)/channels)
	for i := range out {
		for c := 0; c < channels; c++ {
			out[i] += samps[i*channels+c]
		}
		out[i] /= float32(channels)
	}
	return out
}

var tones = []struct {
	name string
	hz   float64
}{
	{"sync", 1200},
	{"black", 1500},
	{"leader", 1900},
	{"white", 2300},
}

func spectrum(ctx context.Context, path string) error {
	ar, f, closer, err := radio.OpenAudio(path, cfg.Format())
	if err != nil {
		return err
	}
	defer closer()
	sp := radio.NewSpectralPower(f, fftBins, powerFFTs)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := sp.Measure(ar.BatchStream(ctx, fftBins, 0)); err != nil {
		return fmt.Errorf("need %d ffts of %d samples: %w", powerFFTs, fftBins, err)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "tone\thz\tdb\n")
	for _, t := range tones {
		fmt.Fprintf(tw, "%s\t%.0f\t%.1f\n", t.name, t.hz, sp.Level(t.hz, 50))
	}
	hz, db := sp.Peak(radio.NewBandRange(1000, 2800))
	fmt.Fprintf(tw, "peak\t%.0f\t%.1f\n", hz, db-sp.Spread())
	fmt.Fprintf(tw, "floor\t\t%.1f\n", sp.NoiseFloor())
	tw.Flush()
	for _, b := range sp.Bands() {
		fmt.Printf("band %.0f-%.0f Hz %.1f dB\n", b.BeginHz(), b.EndHz(), b.DB)
	}
	return nil
}

func spectrogram(inPath, outPath string) error {
	ar, _, closer, err := radio.OpenAudio(inPath, cfg.Format())
	if err != nil {
		return err
	}
	defer closer()
	return radio.WriteSpectrogramFile(ar, outPath, fftBins)
}

func listModes(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "name\tvis\tsize\tline ms\n")
	const rate = 48000
	for _, m := range sstv.Modes(rate) {
		fmt.Fprintf(tw, "%s\t%d\t%dx%d\t%.1f\n", m.Name(), m.Code(), m.Width(), m.Height(),
			1000*float64(m.ScanLineSamples())/rate)
	}
	fmt.Fprintf(tw, "%s\t-\t-\t-\n", sstv.RawMode(cfg.Scope.Width, rate).Name())
	tw.Flush()
}

func listDevices(w io.Writer) error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	defer portaudio.Terminate()
	devices, err := radio.Devices()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "index\tname\tchannels\trate\n")
	for _, d := range devices {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.0f\n", d.Index, d.Name, d.Channels, d.SampleRate)
	}
	return tw.Flush()
}

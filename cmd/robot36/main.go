package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wydy/robot36/config"
	"github.com/wydy/robot36/sstv"
)

var rootCmd = &cobra.Command{
	Use:               "robot36",
	Short:             "A real-time SSTV decoder.",
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return loadConfig(cmd.Flags()) },
}

var (
	cfg    *config.Config
	logger *log.Logger

	configPath  string
	logLevel    string
	sampleRate  int
	channel     sstv.Channel
	chunkFrames int
	modeName    string
	outputDir   string
	httpAddr    string
	device      string
	scopeOut    string
	fftBins     int
	powerFFTs   int
	freqHz      uint64
	gain        string
	ppm         int
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML configuration file")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.IntVarP(&sampleRate, "sample-rate", "s", 0, "Sample rate in Hz for raw input and capture")
	pf.VarP(&channel, "channel", "c", "Channel layout: mono, left, right, sum or analytic")
	pf.IntVar(&chunkFrames, "chunk", 0, "Frames per chunk handed to the decoder")
	pf.StringVarP(&modeName, "mode", "m", "", "Lock to this mode instead of detecting it")

	decodeCmd := &cobra.Command{
		Use:   "decode [flags] input.wav",
		Short: "Decode a recording and save the pictures",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return decode(cmd.Context(), args[0]) },
	}
	decodeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Directory for decoded pictures")
	decodeCmd.Flags().StringVar(&scopeOut, "scope", "", "Write the final scope to this PNG")
	rootCmd.AddCommand(decodeCmd)

	listenCmd := &cobra.Command{
		Use:   "listen [flags]",
		Short: "Decode live from a sound card",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return listen(cmd.Context()) },
	}
	listenCmd.Flags().StringVarP(&device, "device", "d", "", "Input device index, name prefix or default")
	addServeFlags(listenCmd.Flags())
	rootCmd.AddCommand(listenCmd)

	rtlfmCmd := &cobra.Command{
		Use:   "rtlfm [flags]",
		Short: "Decode from an RTL-SDR through rtl_fm",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return rtlfm(cmd.Context()) },
	}
	rtlfmCmd.Flags().Uint64VarP(&freqHz, "frequency", "f", 0, "Frequency to tune in Hz")
	rtlfmCmd.Flags().StringVarP(&gain, "gain", "g", "", "Tuner gain in dB, empty for auto")
	rtlfmCmd.Flags().IntVarP(&ppm, "ppm", "p", 0, "Frequency correction in ppm")
	rtlfmCmd.Flags().StringVarP(&device, "device", "d", "", "RTL-SDR device index or serial")
	addServeFlags(rtlfmCmd.Flags())
	rootCmd.AddCommand(rtlfmCmd)

	serveCmd := &cobra.Command{
		Use:   "serve [flags] input",
		Short: "Decode a stream (\"-\" for stdin) behind the web interface",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return serve(cmd.Context(), args[0]) },
	}
	addServeFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)

	traceCmd := &cobra.Command{
		Use:   "trace input.wav output.wav",
		Short: "Write the demodulated frequency trace as audio",
		Args:  cobra.ExactArgs(2),
		RunE:  func(cmd *cobra.Command, args []string) error { return trace(cmd.Context(), args[0], args[1]) },
	}
	rootCmd.AddCommand(traceCmd)

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [flags] input",
		Short: "Measure SSTV tone levels for tuning",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return spectrum(cmd.Context(), args[0]) },
	}
	spectrumCmd.Flags().IntVarP(&fftBins, "bins", "b", 4096, "FFT length")
	spectrumCmd.Flags().IntVarP(&powerFFTs, "ffts", "n", 16, "Number of FFTs to average")
	rootCmd.AddCommand(spectrumCmd)

	spectrogramCmd := &cobra.Command{
		Use:   "spectrogram [flags] input output.jpg",
		Short: "Write spectrogram jpg",
		Args:  cobra.ExactArgs(2),
		RunE:  func(cmd *cobra.Command, args []string) error { return spectrogram(args[0], args[1]) },
	}
	spectrogramCmd.Flags().IntVarP(&fftBins, "bins", "b", 1024, "FFT length")
	rootCmd.AddCommand(spectrogramCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "modes",
		Short: "List supported modes",
		Args:  cobra.NoArgs,
		Run:   func(cmd *cobra.Command, args []string) { listModes(cmd.OutOrStdout()) },
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return listDevices(cmd.OutOrStdout()) },
	})
}

func addServeFlags(fs *pflag.FlagSet) {
	fs.StringVar(&httpAddr, "http", "", "Serve the web interface on this address")
	fs.StringVarP(&outputDir, "output", "o", "", "Directory for decoded pictures")
}

// loadConfig reads the configuration file and applies flags that were set.
func loadConfig(fs *pflag.FlagSet) error {
	var err error
	if cfg, err = config.Load(configPath); err != nil {
		return err
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if fs.Changed("sample-rate") {
		cfg.SampleRate = sampleRate
	}
	if fs.Changed("channel") {
		cfg.Channel = channel
	}
	if fs.Changed("chunk") {
		cfg.ChunkFrames = chunkFrames
	}
	if fs.Changed("mode") {
		cfg.Mode = modeName
	}
	if fs.Changed("output") {
		cfg.Output.Dir = outputDir
		cfg.Output.Index = filepath.Join(outputDir, "index.gob")
	}
	if fs.Changed("http") {
		cfg.HTTP.Addr = httpAddr
	}
	if fs.Changed("device") {
		cfg.Device = device
		cfg.RTLFM.Device = device
	}
	if fs.Changed("frequency") {
		cfg.RTLFM.FreqHz = freqHz
	}
	if fs.Changed("gain") {
		cfg.RTLFM.Gain = gain
	}
	if fs.Changed("ppm") {
		cfg.RTLFM.PPM = ppm
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "robot36"})
	lvl, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("%w: log level %q", config.ErrInvalid, cfg.Log.Level)
	}
	logger.SetLevel(lvl)
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

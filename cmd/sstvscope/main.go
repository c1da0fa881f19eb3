package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/wydy/robot36/config"
	"github.com/wydy/robot36/radio"
	"github.com/wydy/robot36/sstv"
	"github.com/wydy/robot36/station"
)

var (
	configPath string
	device     string
	channel    sstv.Channel
	zoom       int
	resizable  bool
	popup      bool
)

var rootCmd = &cobra.Command{
	Use:          "sstvscope [flags] [input.wav|-]",
	Short:        "Show decoded SSTV scan lines as they arrive.",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         func(cmd *cobra.Command, args []string) error { return scope(cmd, args) },
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.Flags().StringVarP(&device, "device", "d", "", "Capture from this input device instead of a file")
	rootCmd.Flags().VarP(&channel, "channel", "c", "Channel layout: mono, left, right, sum or analytic")
	rootCmd.Flags().IntVarP(&zoom, "zoom", "z", 1, "Window scale factor")
	rootCmd.Flags().BoolVarP(&resizable, "resize", "R", true, "Window is resizable")
	rootCmd.Flags().BoolVarP(&popup, "popup", "p", false, "Window is a pop-up (i3 hack)")
}

func scope(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("channel") {
		cfg.Channel = channel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "sstvscope"})
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var f radio.Format
	var chunks <-chan []float32
	if len(args) == 0 {
		if err := portaudio.Initialize(); err != nil {
			return err
		}
		defer portaudio.Terminate()
		if !cmd.Flags().Changed("device") {
			device = cfg.Device
		}
		c, err := radio.OpenCapture(device, cfg.Format(), cfg.ChunkFrames)
		if err != nil {
			return err
		}
		defer c.Close()
		logger.Info("capturing", "device", c.Name)
		f, chunks = c.Format(), c.Stream(ctx)
	} else {
		ar, af, closer, err := radio.OpenAudio(args[0], cfg.Format())
		if err != nil {
			return err
		}
		defer closer()
		f, chunks = af, ar.BatchStream(ctx, cfg.ChunkFrames, 0)
		if f.Channels == 2 && cfg.Channel == sstv.Mono {
			cfg.Channel = sstv.Sum
		}
	}

	st := station.New(f.SampleRate, cfg.Channel, cfg.Scope.Width, cfg.Scope.Height, station.WithLogger(logger))
	if cfg.Mode != "" && !st.SetMode(cfg.Mode) {
		logger.Warn("unknown mode", "mode", cfg.Mode)
	}
	go func() {
		if err := st.Run(ctx, chunks); err != nil && ctx.Err() == nil {
			logger.Error("decoder stopped", "err", err)
		}
	}()

	sw, err := newScopeWindow(st, f.SampleRate, cfg.Scope.Width, cfg.Scope.Height, logger)
	if err != nil {
		return err
	}
	defer sw.Close()
	sw.Run(ctx)
	return nil
}

func main() {
	if err := sdl.Init(sdl.INIT_TIMER | sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		panic(err)
	}
	defer sdl.Quit()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

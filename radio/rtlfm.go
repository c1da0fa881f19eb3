package radio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/kr/pty"
)

// RTLFMConfig tunes an rtl_fm child process to a narrow FM voice channel.
type RTLFMConfig struct {
	Path       string `yaml:"path"`
	Device     string `yaml:"device"`
	FreqHz     uint64 `yaml:"freq_hz"`
	SampleRate int    `yaml:"sample_rate"`
	Gain       string `yaml:"gain"`
	PPM        int    `yaml:"ppm"`
}

func (c RTLFMConfig) args(rate int) []string {
	args := []string{
		"-f", strconv.FormatUint(c.FreqHz, 10),
		"-M", "fm",
		"-s", strconv.Itoa(c.SampleRate),
		"-r", strconv.Itoa(rate),
	}
	if c.Device != "" {
		args = append(args, "-d", c.Device)
	}
	if c.Gain != "" {
		args = append(args, "-g", c.Gain)
	}
	if c.PPM != 0 {
		args = append(args, "-p", strconv.Itoa(c.PPM))
	}
	return append(args, "-")
}

// RTLFM is a running rtl_fm whose stdout is mono s16le audio.
type RTLFM struct {
	*AudioReader
	cmd  *exec.Cmd
	fpty *os.File
}

// StartRTLFM runs rtl_fm resampled to rate. Its stderr goes to a pty so
// the tuner status lines arrive unbuffered; they are forwarded to logger.
func StartRTLFM(ctx context.Context, c RTLFMConfig, rate int, logger *log.Logger) (*RTLFM, error) {
	path := c.Path
	if path == "" {
		path = "rtl_fm"
	}
	cmd := exec.CommandContext(ctx, path, c.args(rate)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	fpty, tty, err := pty.Open()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = tty
	if err := cmd.Start(); err != nil {
		fpty.Close()
		tty.Close()
		return nil, fmt.Errorf("start %s: %w", path, err)
	}
	tty.Close()
	go logLines(fpty, logger.With("cmd", "rtl_fm"))

	ar, err := NewAudioReader(stdout, Format{SampleRate: rate, Channels: 1})
	if err != nil {
		cmd.Process.Kill()
		return nil, err
	}
	return &RTLFM{AudioReader: ar, cmd: cmd, fpty: fpty}, nil
}

func logLines(r io.Reader, logger *log.Logger) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		logger.Debug(s.Text())
	}
}

func (r *RTLFM) Close() error {
	r.cmd.Process.Kill()
	err := r.cmd.Wait()
	r.fpty.Close()
	return err
}

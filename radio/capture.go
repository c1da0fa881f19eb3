package radio

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

var ErrNoDevice = errors.New("audio device not found")

// Capture reads interleaved float32 frames from a sound card input.
type Capture struct {
	Name string
	fmt  Format

	stream *portaudio.Stream
	buf    []float32
	err    error
	mu     sync.Mutex
}

// Device is an input-capable sound card as listed by Devices.
type Device struct {
	Index      int
	Name       string
	Channels   int
	SampleRate float64
}

// Devices lists input devices; Index is 1-based for use with OpenCapture.
// portaudio.Initialize must have been called.
func Devices() ([]Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	var ret []Device
	for i, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		ret = append(ret, Device{
			Index:      i + 1,
			Name:       d.Name,
			Channels:   d.MaxInputChannels,
			SampleRate: d.DefaultSampleRate,
		})
	}
	return ret, nil
}

func findDevice(dev string) (*portaudio.DeviceInfo, error) {
	if dev == "" || dev == "default" {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if i, err := strconv.Atoi(dev); err == nil && i > 0 && i <= len(devices) {
		return devices[i-1], nil
	}
	for _, d := range devices {
		if strings.HasPrefix(d.Name, dev) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoDevice, dev)
}

// OpenCapture opens and starts device dev (index, name prefix or "default").
// portaudio.Initialize must have been called.
func OpenCapture(dev string, f Format, frames int) (*Capture, error) {
	if f.Channels != 1 && f.Channels != 2 {
		return nil, ErrBadChannels
	}
	info, err := findDevice(dev)
	if err != nil {
		return nil, err
	}
	p := portaudio.HighLatencyParameters(info, nil)
	p.Input.Channels = f.Channels
	p.Output.Channels = 0
	p.SampleRate = float64(f.SampleRate)
	p.FramesPerBuffer = frames

	buf := make([]float32, frames*f.Channels)
	stream, err := portaudio.OpenStream(p, buf)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start input: %w", err)
	}
	return &Capture{Name: info.Name, fmt: f, stream: stream, buf: buf}, nil
}

func (c *Capture) Format() Format { return c.fmt }

func (c *Capture) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Stream emits copies of each captured buffer until ctx is done or a read fails.
func (c *Capture) Stream(ctx context.Context) <-chan []float32 {
	ch := make(chan []float32, 4)
	go func() {
		defer close(ch)
		for ctx.Err() == nil {
			if err := c.stream.Read(); err != nil {
				if errors.Is(err, portaudio.InputOverflowed) {
					continue
				}
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
				return
			}
			samps := make([]float32, len(c.buf))
			copy(samps, c.buf)
			select {
			case ch <- samps:
			case <-ctx.Done():
			}
		}
	}()
	return ch
}

func (c *Capture) Close() error {
	if err := c.stream.Stop(); err != nil {
		c.stream.Close()
		return err
	}
	return c.stream.Close()
}

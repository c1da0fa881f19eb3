package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wydy/robot36/radio"
	"github.com/wydy/robot36/sstv"
)

//go:embed robot36.yaml
var defaultConfigData []byte

var ErrInvalid = errors.New("invalid config")

type Config struct {
	SampleRate  int          `yaml:"sample_rate"`
	Channel     sstv.Channel `yaml:"channel"`
	ChunkFrames int          `yaml:"chunk_frames"`
	Mode        string       `yaml:"mode"`
	Device      string       `yaml:"device"`

	Scope  Scope             `yaml:"scope"`
	Output Output            `yaml:"output"`
	HTTP   HTTP              `yaml:"http"`
	RTLFM  radio.RTLFMConfig `yaml:"rtlfm"`
	Log    Log               `yaml:"log"`
}

type Scope struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Output struct {
	Dir     string `yaml:"dir"`
	Pattern string `yaml:"pattern"`
	Index   string `yaml:"index"`
}

type HTTP struct {
	Addr   string `yaml:"addr"`
	Recent int    `yaml:"recent"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Default returns the embedded configuration.
func Default() *Config {
	var c Config
	if err := yaml.Unmarshal(defaultConfigData, &c); err != nil {
		panic(err)
	}
	return &c
}

// Load reads path on top of the defaults; an empty path yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Format is the audio format implied by the channel layout.
func (c *Config) Format() radio.Format {
	return radio.Format{SampleRate: c.SampleRate, Channels: c.Channel.Channels()}
}

func (c *Config) Validate() error {
	switch {
	case c.SampleRate < 8000:
		return fmt.Errorf("%w: sample_rate %d below 8000", ErrInvalid, c.SampleRate)
	case c.ChunkFrames <= 0:
		return fmt.Errorf("%w: chunk_frames must be positive", ErrInvalid)
	case c.Scope.Width <= 0 || c.Scope.Height <= 0:
		return fmt.Errorf("%w: scope %dx%d", ErrInvalid, c.Scope.Width, c.Scope.Height)
	case c.Output.Pattern == "":
		return fmt.Errorf("%w: empty output pattern", ErrInvalid)
	}
	return nil
}

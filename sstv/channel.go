package sstv

import (
	"fmt"
	"strings"
)

// Channel selects how interleaved input frames become one signal.
type Channel int

const (
	Mono Channel = iota
	Left
	Right
	Sum
	// Analytic treats a stereo pair as the real and imaginary parts of
	// one complex sample.
	Analytic
)

var channelNames = []string{"mono", "left", "right", "sum", "analytic"}

func (c Channel) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

// Channels returns the number of interleaved samples per frame.
func (c Channel) Channels() int {
	if c == Mono {
		return 1
	}
	return 2
}

func (c *Channel) Set(s string) error {
	for i, n := range channelNames {
		if strings.EqualFold(s, n) {
			*c = Channel(i)
			return nil
		}
	}
	return fmt.Errorf("unknown channel %q (want one of %s)", s, strings.Join(channelNames, ", "))
}

func (c *Channel) Type() string { return "channel" }

func (c Channel) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Channel) UnmarshalText(b []byte) error { return c.Set(string(b)) }

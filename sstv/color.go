package sstv

import "math"

// ARGB colours used for scope markers.
const (
	Black uint32 = 0xff000000
	Red   uint32 = 0xffff0000
	Green uint32 = 0xff00ff00
	Cyan  uint32 = 0xff00ffff
)

func clamp(x int) int {
	return min(max(x, 0), 255)
}

func clampf(x float32) float32 {
	return min(max(x, 0), 1)
}

// float2int maps a level in [0, 1] to a byte value.
func float2int(level float32) int {
	return clamp(int(math.Round(255 * float64(level))))
}

// freqToLevel maps a normalized frequency (-1 black, +1 white) after
// removing the measured offset onto [0, 1].
func freqToLevel(frequency, offset float32) float32 {
	return 0.5 * (frequency - offset + 1)
}

func RGB(r, g, b int) uint32 {
	return 0xff000000 | uint32(clamp(r))<<16 | uint32(clamp(g))<<8 | uint32(clamp(b))
}

func rgbLevels(r, g, b float32) uint32 {
	return RGB(float2int(r), float2int(g), float2int(b))
}

// YUV2RGB converts 8-bit BT.601 studio-swing YUV to ARGB.
func YUV2RGB(y, u, v int) uint32 {
	y -= 16
	u -= 128
	v -= 128
	return RGB(
		(298*y+409*v+128)>>8,
		(298*y-100*u-208*v+128)>>8,
		(298*y+516*u+128)>>8)
}

func yuvLevels(y, u, v float32) uint32 {
	return YUV2RGB(float2int(y), float2int(u), float2int(v))
}

// Gray maps a level to a gray pixel, square-root compressed.
func Gray(level float32) uint32 {
	v := float2int(float32(math.Sqrt(float64(clampf(level)))))
	return RGB(v, v, v)
}

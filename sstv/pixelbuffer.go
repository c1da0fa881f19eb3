package sstv

import "image"

// PixelBuffer is a row-major ARGB image with a row cursor.
//
// For a decoded picture, Line < 0 means no picture is in progress and
// Line == Height means the picture is complete.
type PixelBuffer struct {
	Pixels []uint32
	Width  int
	Height int
	Line   int
}

// NewPixelBuffer allocates room for width*height pixels. Width and
// Height may later shrink to any size that fits.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		Pixels: make([]uint32, width*height),
		Width:  width,
		Height: height,
	}
}

// Active reports whether a picture is being filled in.
func (p *PixelBuffer) Active() bool { return p.Line >= 0 && p.Line < p.Height }

// Complete reports whether every row of the picture has been written.
func (p *PixelBuffer) Complete() bool { return p.Height > 0 && p.Line == p.Height }

func (p *PixelBuffer) Row(y int) []uint32 {
	return p.Pixels[y*p.Width : (y+1)*p.Width]
}

// Image copies the first Height rows into an NRGBA image.
func (p *PixelBuffer) Image() *image.NRGBA {
	return toNRGBA(p.Pixels, p.Width, p.Height)
}

func toNRGBA(pixels []uint32, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, argb := range pixels[:width*height] {
		img.Pix[4*i] = uint8(argb >> 16)
		img.Pix[4*i+1] = uint8(argb >> 8)
		img.Pix[4*i+2] = uint8(argb)
		img.Pix[4*i+3] = uint8(argb >> 24)
	}
	return img
}

// Scope is a scrolling view of the most recent scan lines. Every row is
// stored twice, Height rows apart, so the visible window starting at Line
// is always one contiguous slice.
type Scope struct {
	PixelBuffer
}

func NewScope(width, height int) *Scope {
	return &Scope{PixelBuffer{
		Pixels: make([]uint32, width*height*2),
		Width:  width,
		Height: height,
	}}
}

// Visible returns the Height rows ending with the most recent line.
func (s *Scope) Visible() []uint32 {
	return s.Pixels[s.Line*s.Width : (s.Line+s.Height)*s.Width]
}

func (s *Scope) Image() *image.NRGBA {
	return toNRGBA(s.Visible(), s.Width, s.Height)
}

// push writes one row at the cursor and scrolls.
func (s *Scope) push(row []uint32) {
	copy(s.Pixels[s.Line*s.Width:(s.Line+1)*s.Width], row)
	copy(s.Pixels[(s.Line+s.Height)*s.Width:(s.Line+s.Height+1)*s.Width], row)
	if s.Line++; s.Line >= s.Height {
		s.Line = 0
	}
}

// fill pushes count rows of one colour.
func (s *Scope) fill(c uint32, count int) {
	row := make([]uint32, s.Width)
	for i := range row {
		row[i] = c
	}
	for ; count > 0; count-- {
		s.push(row)
	}
}

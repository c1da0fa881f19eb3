package radio

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"math/cmplx"
	"os"

	"github.com/runningwild/go-fftw/fftw32"
)

// black, green, yellow, white
var colorScale = []color.NRGBA{
	{0, 0, 0, 255},
	{0, 255, 0, 255},
	{255, 255, 0, 255},
	{255, 255, 255, 255},
}

func interpolate(t float64, a, b uint8) uint8 { return uint8(float64(a)*(1-t) + float64(b)*t) }

// fftBin2Color maps v in [0, 1) onto colorScale.
func fftBin2Color(v float64) color.NRGBA {
	idx := float64(len(colorScale)-1) * v
	if int(idx)+1 >= len(colorScale) {
		return colorScale[len(colorScale)-1]
	}
	t := idx - float64(int(idx))
	prev, next := colorScale[int(idx)], colorScale[int(idx)+1]
	return color.NRGBA{
		interpolate(t, prev.R, next.R),
		interpolate(t, prev.G, next.G),
		interpolate(t, prev.B, next.B),
		255,
	}
}

// Spectrogram renders one row per bins mono samples, low frequencies on the left.
func Spectrogram(ctx context.Context, ar *AudioReader, bins int) *image.NRGBA {
	var rows [][]float64
	arr := &fftw32.Array{}
	f := ar.Format()
	for samps := range ar.BatchStream(ctx, bins, 0) {
		mono := make([]complex64, bins)
		for i := range mono {
			v := float32(0)
			for c := 0; c < f.Channels; c++ {
				v += samps[i*f.Channels+c]
			}
			mono[i] = complex(v/float32(f.Channels), 0)
		}
		arr.Elems = mono
		fft := make([]float64, bins/2)
		for i, v := range fftw32.FFT(arr).Elems[:bins/2] {
			fft[i] = cmplx.Abs(complex128(v))
		}
		rows = append(rows, fft)
	}

	img := image.NewNRGBA(image.Rect(0, 0, bins/2, len(rows)))
	for y, fft := range rows {
		min, max := fft[0], fft[0]
		for _, v := range fft {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		// scale to [0, 1)
		scale := 1.0 / ((max - min) + 0.001)
		for x, v := range fft {
			val := scale * (v - min)
			img.SetNRGBA(x, y, fftBin2Color(val*val))
		}
	}
	return img
}

func WriteSpectrogramFile(ar *AudioReader, outfn string, bins int) error {
	img := Spectrogram(context.Background(), ar, bins)
	outf, err := os.OpenFile(outfn, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer outf.Close()
	return jpeg.Encode(outf, img, nil)
}

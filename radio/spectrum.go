package radio

import (
	"io"
	"math"
	"math/cmplx"
	"sort"

	"github.com/runningwild/go-fftw/fftw32"
)

// SpectralPower averages the dB spectrum of real audio over several FFTs.
type SpectralPower struct {
	min      []float64
	max      []float64
	avg      []float64
	med      []float64
	fftBins  *fftw32.Array
	ffts     int
	rate     int
	channels int
}

type binBand struct {
	Begin int
	Bins  int
	DB    float64
}

// NewSpectralPower measures ffts windows of bins mono samples; the
// result has bins/2 entries covering 0 to rate/2.
func NewSpectralPower(f Format, bins, ffts int) *SpectralPower {
	return &SpectralPower{
		fftBins:  fftw32.NewArray(bins),
		ffts:     ffts,
		rate:     f.SampleRate,
		channels: f.Channels,
	}
}

func (sp *SpectralPower) Average() []float64 { return sp.avg }
func (sp *SpectralPower) Min() []float64     { return sp.min }
func (sp *SpectralPower) Max() []float64     { return sp.max }

func (sp *SpectralPower) BinHz() float64 {
	return float64(sp.rate) / float64(len(sp.fftBins.Elems))
}

func (sp *SpectralPower) NoiseFloor() float64 {
	med := make([]float64, len(sp.med))
	copy(med, sp.med)
	sort.Float64s(med)
	return med[len(med)/2]
}

func (sp *SpectralPower) Spread() float64 {
	med := make([]float64, len(sp.avg))
	copy(med, sp.avg)
	sort.Float64s(med)
	return med[len(med)/2]
}

func (sp *SpectralPower) Stddev() float64 {
	spr, sdev := sp.Spread(), 0.0
	for _, v := range sp.avg {
		sdev += (v - spr) * (v - spr)
	}
	sdev /= float64(len(sp.avg) - 1)
	return math.Sqrt(sdev)
}

// Level is the average power around hz, relative to the spread.
func (sp *SpectralPower) Level(hz, widthHz float64) float64 {
	b := NewBandRange(hz-widthHz/2, hz+widthHz/2)
	begin := int(math.Max(0, math.Floor(b.BeginHz()/sp.BinHz())))
	end := int(math.Min(float64(len(sp.avg)-1), math.Ceil(b.EndHz()/sp.BinHz())))
	if end < begin {
		return math.Inf(-1)
	}
	avg := 0.0
	for i := begin; i <= end; i++ {
		avg += sp.avg[i]
	}
	return avg/float64(end-begin+1) - sp.Spread()
}

// Peak is the strongest bin inside b.
func (sp *SpectralPower) Peak(b Band) (hz, db float64) {
	db = math.Inf(-1)
	for i, v := range sp.avg {
		f := float64(i) * sp.BinHz()
		if b.Contains(f) && v > db {
			hz, db = f, v
		}
	}
	return hz, db
}

// Bands finds runs of bins well above the spread.
func (sp *SpectralPower) Bands() (ret []Band) {
	spr, sdev := sp.Spread(), sp.Stddev()
	begin, end := -1, -1
	db := 0.0
	for i, avg := range sp.avg {
		if avg-spr >= 1.5*sdev {
			if begin == -1 {
				begin = i
			}
			end = i
			db += avg - spr
		} else if begin != -1 {
			n := end - begin + 1
			ret = append(ret, sp.freq(binBand{begin, n, db / float64(n)}))
			begin, db = -1, 0
		}
	}
	if begin != -1 {
		n := end - begin + 1
		ret = append(ret, sp.freq(binBand{begin, n, db / float64(n)}))
	}
	return BandMerge(ret)
}

func (sp *SpectralPower) freq(bb binBand) Band {
	w := float64(bb.Bins) * sp.BinHz()
	return Band{Center: (float64(bb.Begin)-0.5)*sp.BinHz() + w/2.0, Width: w, DB: bb.DB}
}

// Measure consumes interleaved chunks of any size from ch until ffts
// windows are collected, mixing channels down to mono.
func (sp *SpectralPower) Measure(ch <-chan []float32) error {
	bins := len(sp.fftBins.Elems)
	half := bins / 2
	sp.min = make([]float64, half)
	sp.max = make([]float64, half)
	sp.avg = make([]float64, half)
	sp.med = make([]float64, half)
	medSamples := 10
	if medSamples > sp.ffts {
		medSamples = sp.ffts
	}
	meds := make([][]float64, half)
	for i := range meds {
		meds[i] = make([]float64, medSamples)
	}
	window := make([]complex64, 0, bins)
	arr := &fftw32.Array{}
	n := 0
	for n < sp.ffts {
		samps, ok := <-ch
		if !ok {
			return io.EOF
		}
		for i := 0; i+sp.channels <= len(samps) && n < sp.ffts; i += sp.channels {
			v := float32(0)
			for c := 0; c < sp.channels; c++ {
				v += samps[i+c]
			}
			window = append(window, complex(v/float32(sp.channels), 0))
			if len(window) < bins {
				continue
			}
			arr.Elems = window
			sp.fftBins = fftw32.FFT(arr)
			for k, v := range sp.fftBins.Elems[:half] {
				db := 20 * math.Log10(cmplx.Abs(complex128(v))+1e-12)
				sp.avg[k] += db / float64(sp.ffts)
				if n == 0 || sp.min[k] > db {
					sp.min[k] = db
				}
				if n == 0 || sp.max[k] < db {
					sp.max[k] = db
				}
				meds[k][((len(meds[k])-1)*n)/sp.ffts] = db
			}
			window = window[:0]
			n++
		}
	}
	for i := range sp.med {
		sort.Float64s(meds[i])
		sp.med[i] = meds[i][len(meds[i])/2]
	}
	return nil
}

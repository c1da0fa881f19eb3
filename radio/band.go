package radio

import (
	"math"
	"sort"
)

// Band is an audio frequency range with its mean level above the noise floor.
type Band struct {
	Center float64 `json:"center_hz"`
	Width  float64 `json:"width_hz"`
	DB     float64 `json:"db"`
}

func (b Band) BeginHz() float64 { return b.Center - b.Width/2.0 }
func (b Band) EndHz() float64   { return b.Center + b.Width/2.0 }

func NewBandRange(loHz, hiHz float64) Band {
	return Band{Center: (hiHz + loHz) / 2.0, Width: hiHz - loHz}
}

func (b1 *Band) merge(b2 Band) {
	begin := math.Min(b1.BeginHz(), b2.BeginHz())
	end := math.Max(b1.EndHz(), b2.EndHz())
	b1.Center = (end + begin) / 2.0
	b1.Width = end - begin
	b1.DB = math.Max(b1.DB, b2.DB)
}

func (b1 Band) Overlaps(b2 Band) bool {
	return !(b2.EndHz() < b1.BeginHz() || b2.BeginHz() > b1.EndHz())
}

func (b Band) Contains(hz float64) bool {
	return hz >= b.BeginHz() && hz <= b.EndHz()
}

type Bands []Band

func (a Bands) Len() int           { return len(a) }
func (a Bands) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a Bands) Less(i, j int) bool { return a[i].BeginHz() < a[j].BeginHz() }

// BandMerge sorts bands and joins the overlapping ones.
func BandMerge(bs []Band) (ret []Band) {
	if len(bs) == 0 {
		return nil
	}
	sort.Sort(Bands(bs))
	ret = append(ret, bs[0])
	for _, b := range bs[1:] {
		if b.BeginHz() > ret[len(ret)-1].EndHz() {
			ret = append(ret, b)
		} else {
			ret[len(ret)-1].merge(b)
		}
	}
	return ret
}

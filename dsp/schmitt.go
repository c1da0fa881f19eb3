package dsp

// SchmittTrigger latches true above High and false below Low.
type SchmittTrigger struct {
	Low, High float32
	previous  bool
}

func NewSchmittTrigger(low, high float32) *SchmittTrigger {
	return &SchmittTrigger{Low: low, High: high}
}

func (s *SchmittTrigger) Latch(x float32) bool {
	if s.previous {
		if x < s.Low {
			s.previous = false
		}
	} else if x > s.High {
		s.previous = true
	}
	return s.previous
}

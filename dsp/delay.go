package dsp

// Delay returns its input delayed by a fixed number of samples.
type Delay struct {
	buf []float32
	pos int
}

func NewDelay(length int) *Delay {
	return &Delay{buf: make([]float32, length)}
}

func (d *Delay) Push(x float32) float32 {
	if len(d.buf) == 0 {
		return x
	}
	out := d.buf[d.pos]
	d.buf[d.pos] = x
	if d.pos++; d.pos >= len(d.buf) {
		d.pos = 0
	}
	return out
}

type ComplexDelay struct {
	buf []complex64
	pos int
}

func NewComplexDelay(length int) *ComplexDelay {
	return &ComplexDelay{buf: make([]complex64, length)}
}

func (d *ComplexDelay) Push(z complex64) complex64 {
	if len(d.buf) == 0 {
		return z
	}
	out := d.buf[d.pos]
	d.buf[d.pos] = z
	if d.pos++; d.pos >= len(d.buf) {
		d.pos = 0
	}
	return out
}

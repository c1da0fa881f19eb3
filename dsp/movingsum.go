package dsp

// MovingSum keeps the sum of the last Length inputs in a binary tree.
// Leaves live at [Length, 2*Length) and every parent holds the sum of its
// two children, so the root is always the window sum and an update costs
// O(log Length) without the drift of a running add/subtract.
type MovingSum struct {
	Length int

	tree []float32
	leaf int
}

func NewMovingSum(length int) *MovingSum {
	if length <= 0 {
		panic("moving sum length must be positive")
	}
	return &MovingSum{Length: length, tree: make([]float32, 2*length), leaf: length}
}

func (s *MovingSum) Sum() float32 { return s.tree[1] }

func (s *MovingSum) Add(x float32) {
	s.tree[s.leaf] = x
	for child, parent := s.leaf, s.leaf/2; parent > 0; child, parent = parent, parent/2 {
		s.tree[parent] = s.tree[child] + s.tree[child^1]
	}
	if s.leaf++; s.leaf >= len(s.tree) {
		s.leaf = s.Length
	}
}

// Push adds x and returns the new window sum.
func (s *MovingSum) Push(x float32) float32 {
	s.Add(x)
	return s.Sum()
}

type MovingAverage struct{ *MovingSum }

func NewMovingAverage(length int) *MovingAverage {
	return &MovingAverage{NewMovingSum(length)}
}

func (a *MovingAverage) Avg(x float32) float32 {
	return a.Push(x) / float32(a.Length)
}

type ComplexMovingSum struct {
	re, im *MovingSum
}

func NewComplexMovingSum(length int) *ComplexMovingSum {
	return &ComplexMovingSum{re: NewMovingSum(length), im: NewMovingSum(length)}
}

func (s *ComplexMovingSum) Length() int { return s.re.Length }

func (s *ComplexMovingSum) Sum() complex64 {
	return complex(s.re.Sum(), s.im.Sum())
}

func (s *ComplexMovingSum) Push(z complex64) complex64 {
	s.re.Add(real(z))
	s.im.Add(imag(z))
	return s.Sum()
}

type ComplexMovingAverage struct{ *ComplexMovingSum }

func NewComplexMovingAverage(length int) *ComplexMovingAverage {
	return &ComplexMovingAverage{NewComplexMovingSum(length)}
}

func (a *ComplexMovingAverage) Avg(z complex64) complex64 {
	return a.Push(z) / complex(float32(a.Length()), 0)
}

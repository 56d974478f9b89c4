package filter

// padeSection realises exp(±F(z)) for one operator F with the rational
// approximation R(F) = N(F)/N(-F), N(w) = 1 + Σ a[l] w^l. Stage l applies
// F once more to the output of stage l-1, so after L stages the cascade
// has produced F^1..F^L of the section input.
type padeSection struct {
	ops []operator
	row []float64

	// pt[l] is the value stage l produced on the previous sample; pt[0] is
	// the previous section input.
	pt []float64

	// fb and ff are the per-stage signs of the feedback and feed-forward
	// sums, indexed by stage.
	fb, ff []float64

	transposed bool
	z          []float64
}

func newPadeSection(ops []operator, row []float64, pt []float64, s Structure) *padeSection {
	L := len(ops)
	sec := &padeSection{
		ops:        ops,
		row:        row,
		pt:         pt,
		fb:         make([]float64, L+1),
		ff:         make([]float64, L+1),
		transposed: s.Transposed(),
	}
	for l := 1; l <= L; l++ {
		odd := l%2 == 1
		if s.Inverse() {
			sec.fb[l] = -1
			sec.ff[l] = 1
			if odd {
				sec.ff[l] = -1
			}
		} else {
			sec.fb[l] = -1
			sec.ff[l] = 1
			if odd {
				sec.fb[l] = 1
			}
		}
	}
	if sec.transposed {
		sec.z = make([]float64, L+2)
	}
	return sec
}

func (s *padeSection) step(x float64, c []float64) float64 {
	L := len(s.ops)
	pt := s.pt

	if !s.transposed {
		out := 0.0
		for l := L; l >= 1; l-- {
			y := s.ops[l-1].step(pt[l-1], c)
			pt[l] = y
			v := s.row[l] * y
			x += s.fb[l] * v
			out += s.ff[l] * v
		}
		pt[0] = x
		return out + x
	}

	// Transposed: every stage first emits what it accumulated last sample,
	// then absorbs the new input and output.
	z := s.z
	for l := 1; l <= L; l++ {
		z[l] = s.ops[l-1].step(pt[l], c)
	}
	y := x + z[1]
	for l := 1; l <= L; l++ {
		pt[l] = s.row[l]*(s.ff[l]*x+s.fb[l]*y) + z[l+1]
	}
	return y
}

package kernel

import (
	"github.com/phil-mansfield/unirender/interpolate"
)

// DefaultTableSamples is the number of samples NewTable uses over q in [0, 2]
// when given a non-positive sample count.
const DefaultTableSamples = 1 << 12

// Table is a kernel whose profile has been tabulated over its support. It is
// cheaper to evaluate than the piecewise form for kernels with expensive
// profiles and agrees with the exact kernel to within the interpolation
// error, O(1/samples^2).
type Table struct {
	k    Kernel
	intr *interpolate.Linear
}

// NewTable tabulates the profile of k at the given number of uniformly spaced
// points over q in [0, 2].
func NewTable(k Kernel, samples int) *Table {
	if samples < 2 {
		samples = DefaultTableSamples
	}
	dq := 2 / float64(samples-1)
	vals := make([]float64, samples)
	for i := range vals {
		vals[i] = k.Shape(float64(i) * dq)
	}
	// The final sample sits at q = 2, where every kernel vanishes.
	vals[samples-1] = 0

	return &Table{k: k, intr: interpolate.NewUniformLinear(0, dq, vals)}
}

// Kernel returns the kernel family that was tabulated.
func (t *Table) Kernel() Kernel { return t.k }

// Func returns the evaluation function of the tabulated kernel. If inverse is
// true the returned function takes 1/h instead of h.
func (t *Table) Func(inverse bool) Func {
	if inverse {
		return t.evalInv
	}
	return func(r, h float64) float64 { return t.evalInv(r, 1/h) }
}

func (t *Table) evalInv(r, hinv float64) float64 {
	q := r * hinv
	if q >= 2 {
		return 0
	}
	return t.k.Norm(hinv) * t.intr.Eval(q)
}

package interpolate

// Linear is a linear interpolator over uniformly spaced points.
type Linear struct {
	x0, dx float64
	vals   []float64
}

// NewUniformLinear creates a linear interpolator where a uniformly spaced
// sequence of x values starting at x0 and separated by dx take the values
// given by vals.
//
// Lookups are O(1).
func NewUniformLinear(x0, dx float64, vals []float64) *Linear {
	if len(vals) < 2 {
		panic("NewUniformLinear() needs at least two values.")
	} else if dx <= 0 {
		panic("NewUniformLinear() needs a positive spacing.")
	}
	return &Linear{x0: x0, dx: dx, vals: vals}
}

// Eval returns the interpolated value at x. Points outside the table are
// clamped to the value at the nearest end.
func (lin *Linear) Eval(x float64) float64 {
	u := (x - lin.x0) / lin.dx
	if !(u > 0) {
		return lin.vals[0]
	}
	i := int(u)
	if i >= len(lin.vals)-1 {
		return lin.vals[len(lin.vals)-1]
	}
	f := u - float64(i)
	return lin.vals[i] + f*(lin.vals[i+1]-lin.vals[i])
}

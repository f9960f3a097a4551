/*package mat contains routines for the small, dense matrices used by the
camera: 4x4 view and projection transforms and their products.

Matrices are stored as flat row-major slices.
*/
package mat

// Matrix represents a matrix of float64 values.
type Matrix struct {
	Vals          []float64
	Width, Height int
}

// NewMatrix creates a matrix with the specified values and dimensions.
func NewMatrix(vals []float64, width, height int) *Matrix {
	if width <= 0 {
		panic("width must be positive.")
	} else if height <= 0 {
		panic("height must be positive.")
	} else if width*height != len(vals) {
		panic("height * width must equal len(vals).")
	}

	return &Matrix{Vals: vals, Width: width, Height: height}
}

// At returns the element in row i and column j.
func (m *Matrix) At(i, j int) float64 { return m.Vals[i*m.Width+j] }

// Mult multiplies two matrices together.
func (m1 *Matrix) Mult(m2 *Matrix) *Matrix {
	h, w := m1.Height, m2.Width
	out := NewMatrix(make([]float64, h*w), w, h)
	return m1.MultAt(m2, out)
}

// MultAt multiplies two matrices together and writes the result to the
// specified matrix. out must not share memory with m1 or m2.
func (m1 *Matrix) MultAt(m2, out *Matrix) *Matrix {
	if m1.Width != m2.Height {
		panic("Multiplication of incompatible matrix sizes.")
	} else if out.Height != m1.Height || out.Width != m2.Width {
		panic("Output matrix has the wrong dimensions.")
	}

	for i := range out.Vals {
		out.Vals[i] = 0
	}
	for i := 0; i < m1.Height; i++ {
		off := i * m1.Width
		for j := 0; j < m2.Width; j++ {
			outIdx := i*out.Width + j
			for k := 0; k < m1.Width; k++ {
				out.Vals[outIdx] += m1.Vals[off+k] * m2.Vals[k*m2.Width+j]
			}
		}
	}

	return out
}

// VecMultAt computes m * xs and writes the result to out. xs and out must not
// share memory.
func (m *Matrix) VecMultAt(xs, out []float64) []float64 {
	if len(xs) != m.Width {
		panic("len(xs) != m.Width")
	} else if len(out) != m.Height {
		panic("len(out) != m.Height")
	}

	for i := 0; i < m.Height; i++ {
		off, sum := i*m.Width, 0.0
		for j := 0; j < m.Width; j++ {
			sum += m.Vals[off+j] * xs[j]
		}
		out[i] = sum
	}
	return out
}

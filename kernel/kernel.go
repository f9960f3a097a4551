/*package kernel contains the smoothing kernels used to spread a particle's
quantity over the pixels around it.

Every kernel is a two-dimensional, radially symmetric function with compact
support on r <= 2h whose integral over its support disk is one.
*/
package kernel

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidLength is returned when a kernel is evaluated with a smoothing
// length that is not a positive, finite number.
var ErrInvalidLength = errors.New("kernel: smoothing length must be positive")

// Kernel identifies a kernel family.
type Kernel int

const (
	CubicSpline Kernel = iota
	// EndKernel is one past the last valid Kernel.
	EndKernel
)

var kernelNames = [EndKernel]string{"CubicSpline"}

func (k Kernel) String() string {
	if k < 0 || k >= EndKernel {
		return fmt.Sprintf("Kernel(%d)", int(k))
	}
	return kernelNames[k]
}

// FromString returns the Kernel with the given name, ignoring case.
func FromString(name string) (Kernel, bool) {
	name = strings.TrimSpace(name)
	for k := Kernel(0); k < EndKernel; k++ {
		if strings.EqualFold(k.String(), name) {
			return k, true
		}
	}
	return 0, false
}

// Func evaluates a kernel at distance r. Depending on how it was obtained,
// x is either the smoothing length h or its inverse, 1/h. Func does not check
// its arguments.
type Func func(r, x float64) float64

// Func returns the kernel's evaluation function. If inverse is true the
// returned function takes 1/h instead of h.
func (k Kernel) Func(inverse bool) Func {
	switch k {
	case CubicSpline:
		if inverse {
			return CubicSpline2DInv
		}
		return CubicSpline2D
	}
	panic(fmt.Sprintf("Unrecognized kernel %d.", int(k)))
}

// Shape returns the dimensionless profile f(q) of the kernel, where q = r/h.
// The full kernel is Norm(h) * f(q).
func (k Kernel) Shape(q float64) float64 {
	switch k {
	case CubicSpline:
		return cubicShape(q)
	}
	panic(fmt.Sprintf("Unrecognized kernel %d.", int(k)))
}

// Norm returns the normalization of the kernel for a given inverse smoothing
// length.
func (k Kernel) Norm(hinv float64) float64 {
	switch k {
	case CubicSpline:
		return cubicNorm * hinv * hinv
	}
	panic(fmt.Sprintf("Unrecognized kernel %d.", int(k)))
}

// Weight evaluates the kernel k at distance r with smoothing length h. It
// returns ErrInvalidLength if h is not positive and finite.
func Weight(k Kernel, r, h float64) (float64, error) {
	if !ValidLength(h) {
		return 0, fmt.Errorf("%w: h = %g", ErrInvalidLength, h)
	} else if k < 0 || k >= EndKernel {
		return 0, fmt.Errorf("kernel: unrecognized kernel %d", int(k))
	}
	return k.Func(false)(r, h), nil
}

// ValidLength returns true if h can be used as a smoothing length.
func ValidLength(h float64) bool {
	return h > 0 && !math.IsInf(h, 0)
}

/////////////////////
// Cubic B-spline. //
/////////////////////

// cubicNorm is 10 / (7 pi), the 2D normalization of the cubic spline.
const cubicNorm = 10 / (7 * math.Pi)

// CubicSpline2D is the 2D cubic spline kernel with smoothing length h.
func CubicSpline2D(r, h float64) float64 {
	// Going through the inverse form keeps the two variants bit-identical.
	return CubicSpline2DInv(r, 1/h)
}

// CubicSpline2DInv is the 2D cubic spline kernel with inverse smoothing
// length hinv.
func CubicSpline2DInv(r, hinv float64) float64 {
	return cubicNorm * hinv * hinv * cubicShape(r*hinv)
}

func cubicShape(q float64) float64 {
	switch {
	case q > 2:
		return 0
	case q > 1:
		d := 2 - q
		return 0.25 * d * d * d
	default:
		return 1 - 1.5*q*q*(1-0.5*q)
	}
}

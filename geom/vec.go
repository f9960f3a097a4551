/*package geom contains the small amount of vector algebra needed to move
particles between world space and camera space.
*/
package geom

import (
	"math"
)

// Vec is a three dimensional vector.
type Vec [3]float64

// Add returns v + u.
func (v Vec) Add(u Vec) Vec {
	return Vec{v[0] + u[0], v[1] + u[1], v[2] + u[2]}
}

// Sub returns v - u.
func (v Vec) Sub(u Vec) Vec {
	return Vec{v[0] - u[0], v[1] - u[1], v[2] - u[2]}
}

// Scale returns a*v.
func (v Vec) Scale(a float64) Vec {
	return Vec{a * v[0], a * v[1], a * v[2]}
}

// Dot returns the dot product of v and u.
func (v Vec) Dot(u Vec) float64 {
	return v[0]*u[0] + v[1]*u[1] + v[2]*u[2]
}

// Cross returns the cross product v x u.
func (v Vec) Cross(u Vec) Vec {
	return Vec{
		v[1]*u[2] - v[2]*u[1],
		v[2]*u[0] - v[0]*u[2],
		v[0]*u[1] - v[1]*u[0],
	}
}

// Norm returns the Euclidean length of v.
func (v Vec) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length. The zero vector has no direction,
// so ok is false in that case and the returned vector should not be used.
func (v Vec) Normalize() (u Vec, ok bool) {
	n := v.Norm()
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return Vec{}, false
	}
	return v.Scale(1 / n), true
}

// IsFinite returns true if none of the components of v are NaN or infinite.
func (v Vec) IsFinite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Rotate rotates v by the angle theta (radians) about the unit axis k using
// Rodrigues' formula.
func (v Vec) Rotate(k Vec, theta float64) Vec {
	sin, cos := math.Sincos(theta)
	out := v.Scale(cos)
	out = out.Add(k.Cross(v).Scale(sin))
	return out.Add(k.Scale(k.Dot(v) * (1 - cos)))
}

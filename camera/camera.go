/*package camera implements a perspective camera which moves particles from
world space into clip space and discards the ones it cannot see.

The conventions follow OpenGL: camera space looks down its -z axis and clip
space spans [-1, 1] on each axis for points inside the view frustum.
*/
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/phil-mansfield/unirender/geom"
	"github.com/phil-mansfield/unirender/mat"
)

// ErrInvalidCamera is returned when a camera is constructed from parameters
// which do not describe a valid view.
var ErrInvalidCamera = errors.New("camera: invalid configuration")

// parallelTol is the smallest |sin| allowed between the look direction and
// the up hint.
const parallelTol = 1e-10

// Camera is an immutable perspective camera. The orthonormal basis
// (right, up, forward) is derived once in New; to move a camera, make a new
// one.
type Camera struct {
	pos, look, upHint geom.Vec
	fov, near, far    float64

	right, up, forward geom.Vec
	tanHalf            float64

	view, proj *mat.Matrix
}

// New creates a camera at pos looking along look. up is a hint for the
// vertical direction of the image and must not be parallel to look. fov is
// the full field of view in radians and must lie in (0, pi). near and far are
// the distances to the clipping planes, with 0 < near < far.
func New(pos, look, up geom.Vec, fov, near, far float64) (*Camera, error) {
	if !pos.IsFinite() {
		return nil, fmt.Errorf("%w: position %v is not finite",
			ErrInvalidCamera, pos)
	}
	if !(fov > 0 && fov < math.Pi) {
		return nil, fmt.Errorf("%w: field of view %g is not in (0, pi)",
			ErrInvalidCamera, fov)
	}
	if !(near > 0) || math.IsInf(near, 0) {
		return nil, fmt.Errorf("%w: near plane %g is not positive",
			ErrInvalidCamera, near)
	}
	if !(far > near) || math.IsInf(far, 0) {
		return nil, fmt.Errorf("%w: far plane %g is not beyond near plane %g",
			ErrInvalidCamera, far, near)
	}

	forward, ok := look.Scale(-1).Normalize()
	if !ok {
		return nil, fmt.Errorf("%w: look direction %v has no length",
			ErrInvalidCamera, look)
	}
	upUnit, ok := up.Normalize()
	if !ok {
		return nil, fmt.Errorf("%w: up hint %v has no length",
			ErrInvalidCamera, up)
	}
	right, ok := upUnit.Cross(forward).Normalize()
	if !ok || upUnit.Cross(forward).Norm() < parallelTol {
		return nil, fmt.Errorf("%w: up hint %v is parallel to look direction %v",
			ErrInvalidCamera, up, look)
	}
	upDir, _ := forward.Cross(right).Normalize()

	c := &Camera{
		pos: pos, look: look, upHint: up,
		fov: fov, near: near, far: far,
		right: right, up: upDir, forward: forward,
		tanHalf: math.Tan(fov / 2),
	}
	c.view = c.lookAt()
	c.proj = PerspectiveMatrix(
		-c.tanHalf*near, c.tanHalf*near, -c.tanHalf*near, c.tanHalf*near,
		near, far,
	)

	return c, nil
}

// Basis returns the camera's orthonormal basis. forward points from the scene
// towards the camera, opposite to the look direction.
func (c *Camera) Basis() (right, up, forward geom.Vec) {
	return c.right, c.up, c.forward
}

// Position returns the position of the camera.
func (c *Camera) Position() geom.Vec { return c.pos }

// FOV returns the field of view in radians.
func (c *Camera) FOV() float64 { return c.fov }

// Planes returns the distances to the near and far clipping planes.
func (c *Camera) Planes() (near, far float64) { return c.near, c.far }

// ViewMatrix returns the rigid transformation from world coordinates to
// camera coordinates.
func (c *Camera) ViewMatrix() *mat.Matrix {
	out := mat.NewMatrix(make([]float64, 16), 4, 4)
	copy(out.Vals, c.view.Vals)
	return out
}

// ProjectionMatrix returns the symmetric perspective projection implied by
// the camera's field of view and clipping planes.
func (c *Camera) ProjectionMatrix() *mat.Matrix {
	out := mat.NewMatrix(make([]float64, 16), 4, 4)
	copy(out.Vals, c.proj.Vals)
	return out
}

func (c *Camera) lookAt() *mat.Matrix {
	r, u, f := c.right, c.up, c.forward
	rot := mat.NewMatrix([]float64{
		r[0], r[1], r[2], 0,
		u[0], u[1], u[2], 0,
		f[0], f[1], f[2], 0,
		0, 0, 0, 1,
	}, 4, 4)
	trans := mat.NewMatrix([]float64{
		1, 0, 0, -c.pos[0],
		0, 1, 0, -c.pos[1],
		0, 0, 1, -c.pos[2],
		0, 0, 0, 1,
	}, 4, 4)
	return rot.Mult(trans)
}

// PerspectiveMatrix returns the (possibly off-center) perspective projection
// for a frustum whose near face spans [l, r] x [b, t] at distance n and which
// is truncated at distance f. Multiplying a camera-space point by this matrix
// and dividing by the resulting w = -z gives clip coordinates.
func PerspectiveMatrix(l, r, b, t, n, f float64) *mat.Matrix {
	return mat.NewMatrix([]float64{
		2 * n / (r - l), 0, (r + l) / (r - l), 0,
		0, 2 * n / (t - b), (t + b) / (t - b), 0,
		0, 0, -(f + n) / (f - n), -2 * f * n / (f - n),
		0, 0, -1, 0,
	}, 4, 4)
}

// Aspect returns the clip-space half widths of an nx by ny image. The
// vertical axis always spans [-1, 1].
func Aspect(nx, ny int) (aspectX, aspectY float64) {
	return float64(nx) / float64(ny), 1
}

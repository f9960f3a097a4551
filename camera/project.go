package camera

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/unirender/geom"
)

// Masked holds the particles which survived ProjectAndMask, in their
// original relative order.
type Masked struct {
	// Qty is the rendered quantity of each particle.
	Qty []float64
	// Size is the smoothing length, in clip units until remapped.
	Size []float64
	// XY is the clip-space position, in clip units until remapped.
	XY [][2]float64
	// Index is the index of each surviving particle in the input arrays.
	Index []int
	// Degenerate counts particles which were dropped because they lie in
	// the camera's own plane (zero view depth), where the perspective
	// divide is undefined.
	Degenerate int
}

// Len returns the number of surviving particles.
func (m *Masked) Len() int { return len(m.Qty) }

// Project transforms world-space positions into clip space and rescales each
// smoothing length by perspective foreshortening,
//
//     size_clip = size / |z_view| / tan(fov / 2).
//
// Particles in the camera plane (z_view = 0) come back with non-finite
// coordinates and sizes.
func (c *Camera) Project(
	pos []geom.Vec, sizes []float64,
) (clip []geom.Vec, clipSizes []float64) {
	clip = make([]geom.Vec, len(pos))
	clipSizes = make([]float64, len(pos))
	for i := range pos {
		clip[i], clipSizes[i] = c.project(pos[i], sizes[i])
	}
	return clip, clipSizes
}

func (c *Camera) project(x geom.Vec, size float64) (geom.Vec, float64) {
	var p4, view, clip [4]float64
	p4[0], p4[1], p4[2], p4[3] = x[0], x[1], x[2], 1

	c.view.VecMultAt(p4[:], view[:])
	c.proj.VecMultAt(view[:], clip[:])

	// This needs the depth from before the perspective divide.
	clipSize := size / math.Abs(view[2]) / c.tanHalf

	w := clip[3]
	return geom.Vec{clip[0] / w, clip[1] / w, clip[2] / w}, clipSize
}

// ProjectAndMask projects particles into clip space and keeps those that lie
// strictly inside -aspectX < x < aspectX, -aspectY < y < aspectY and
// -1 < z < 1. Points exactly on a boundary are dropped.
func (c *Camera) ProjectAndMask(
	qty, sizes []float64, pos []geom.Vec, aspectX, aspectY float64,
) (*Masked, error) {
	if len(qty) != len(sizes) || len(qty) != len(pos) {
		return nil, fmt.Errorf(
			"camera: len(qty) = %d, len(sizes) = %d, len(pos) = %d",
			len(qty), len(sizes), len(pos),
		)
	}

	m := &Masked{}
	for i := range pos {
		x, size := c.project(pos[i], sizes[i])
		if !x.IsFinite() || math.IsNaN(size) || math.IsInf(size, 0) {
			m.Degenerate++
			continue
		}

		if x[0] > -aspectX && x[0] < aspectX &&
			x[1] > -aspectY && x[1] < aspectY &&
			x[2] > -1 && x[2] < 1 {

			m.Qty = append(m.Qty, qty[i])
			m.Size = append(m.Size, size)
			m.XY = append(m.XY, [2]float64{x[0], x[1]})
			m.Index = append(m.Index, i)
		}
	}

	return m, nil
}

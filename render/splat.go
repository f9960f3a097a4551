package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/phil-mansfield/unirender/kernel"
)

// ErrInvalidRadius is returned by Accumulate when a pixel radius is NaN,
// infinite, not positive, or so small that the kernel overflows.
var ErrInvalidRadius = errors.New("render: invalid pixel radius")

// Splatter deposits kernel-weighted particle quantities onto a Grid.
type Splatter struct {
	f       kernel.Func
	inverse bool
	threads int
}

// NewSplatter creates a Splatter which evaluates f. If inverse is true, f
// takes an inverse smoothing length as its second argument. threads is the
// number of goroutines Accumulate may use; values below 1 are treated as 1.
func NewSplatter(f kernel.Func, inverse bool, threads int) *Splatter {
	if threads < 1 {
		threads = 1
	}
	return &Splatter{f: f, inverse: inverse, threads: threads}
}

// Accumulate adds the contribution of every particle to g. Particle i is
// centered at pixel coordinates xy[i] with a smoothing length of radius[i]
// pixels, and pixel (ix, iy) in its footprint receives
//
//     W(|(ix, iy) - xy[i]|, radius[i]) * qty[i].
//
// The footprint is the box [floor(x - 2r), ceil(x + 2r)) on each axis,
// clipped to the grid. Radii are checked before anything is written.
func (sp *Splatter) Accumulate(
	qty, radius []float64, xy [][2]float64, g *Grid,
) error {
	if len(qty) != len(radius) || len(qty) != len(xy) {
		return fmt.Errorf(
			"render: len(qty) = %d, len(radius) = %d, len(xy) = %d",
			len(qty), len(radius), len(xy),
		)
	}
	for i, r := range radius {
		// The kernel normalization scales as 1/r^2.
		if !(r > 0) || math.IsInf(r, 0) || math.IsInf(1/(r*r), 0) {
			return fmt.Errorf("%w: particle %d has radius %g",
				ErrInvalidRadius, i, r)
		}
	}

	workers := sp.threads
	if workers > g.NX {
		workers = g.NX
	}
	if workers <= 1 || len(qty) == 0 {
		sp.splatStrip(qty, radius, xy, g, 0, g.NX)
		return nil
	}

	out := make(chan int, workers)
	for id := 0; id < workers; id++ {
		go sp.chanSplat(id, workers, qty, radius, xy, g, out)
	}
	for i := 0; i < workers; i++ {
		<-out
	}
	return nil
}

// chanSplat is a worker function which splats onto the worker's strip of
// columns and then sends its ID to out. Strips are disjoint, so no two
// workers write to the same pixel.
func (sp *Splatter) chanSplat(
	worker, workers int, qty, radius []float64, xy [][2]float64,
	g *Grid, out chan<- int,
) {
	x0 := worker * g.NX / workers
	x1 := (worker + 1) * g.NX / workers
	sp.splatStrip(qty, radius, xy, g, x0, x1)
	out <- worker
}

// splatStrip deposits every particle onto the columns [x0, x1) of g.
func (sp *Splatter) splatStrip(
	qty, radius []float64, xy [][2]float64, g *Grid, x0, x1 int,
) {
	for i := range qty {
		r, q := radius[i], qty[i]
		px, py := xy[i][0], xy[i][1]

		ix0, ix1, ok := footprint(px, r, x0, x1)
		if !ok {
			continue
		}
		iy0, iy1, ok := footprint(py, r, 0, g.NY)
		if !ok {
			continue
		}

		arg := r
		if sp.inverse {
			arg = 1 / r
		}

		for ix := ix0; ix < ix1; ix++ {
			dx := float64(ix) - px
			col := g.Vals[ix*g.NY : (ix+1)*g.NY]
			for iy := iy0; iy < iy1; iy++ {
				dy := float64(iy) - py
				d := math.Sqrt(dx*dx + dy*dy)
				col[iy] += sp.f(d, arg) * q
			}
		}
	}
}

// footprint returns the pixel range [lo, hi) covered by a kernel of
// smoothing length r centered at x, clipped to [min, max). ok is false if the
// range is empty. Clipping happens before the conversion to int so that
// particles far off the grid cannot overflow.
func footprint(x, r float64, min, max int) (lo, hi int, ok bool) {
	flo, fhi := math.Floor(x-2*r), math.Ceil(x+2*r)
	if flo < float64(min) {
		flo = float64(min)
	}
	if fhi > float64(max) {
		fhi = float64(max)
	}
	if !(fhi > flo) {
		return 0, 0, false
	}
	return int(flo), int(fhi), true
}

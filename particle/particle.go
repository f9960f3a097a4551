/*package particle contains the particle sets rendered by unirender and the
code which reads them from text catalogs and numpy arrays.
*/
package particle

import (
	"errors"
	"fmt"
	"math"

	"github.com/phil-mansfield/table"

	"github.com/phil-mansfield/unirender/geom"
)

// ErrInvalidParticle is returned when a particle set is malformed.
var ErrInvalidParticle = errors.New("particle: invalid particle set")

// Set is a collection of SPH particles stored as parallel arrays. Size is
// the smoothing length and Qty is the quantity being rendered, e.g. density.
type Set struct {
	Pos  []geom.Vec
	Size []float64
	Qty  []float64
}

// Len returns the number of particles in the set.
func (ps *Set) Len() int { return len(ps.Pos) }

// Validate returns an ErrInvalidParticle if the arrays have different
// lengths or if any smoothing length is not positive and finite.
func (ps *Set) Validate() error {
	if len(ps.Size) != len(ps.Pos) || len(ps.Qty) != len(ps.Pos) {
		return fmt.Errorf("%w: len(Pos) = %d, len(Size) = %d, len(Qty) = %d",
			ErrInvalidParticle, len(ps.Pos), len(ps.Size), len(ps.Qty))
	}
	for i, h := range ps.Size {
		if !(h > 0) || math.IsInf(h, 0) {
			return fmt.Errorf("%w: particle %d has smoothing length %g",
				ErrInvalidParticle, i, h)
		}
	}
	return nil
}

// Slice returns the particles [start, end) as a Set which shares memory
// with ps.
func (ps *Set) Slice(start, end int) *Set {
	return &Set{
		Pos:  ps.Pos[start:end],
		Size: ps.Size[start:end],
		Qty:  ps.Qty[start:end],
	}
}

// Columns gives the zero-indexed columns of a text catalog which hold each
// particle property.
type Columns struct {
	X, Y, Z, Qty, Size int
}

// DefaultColumns is the layout of the standard gas catalogs: positions in
// the first three columns, temperature in the fourth, density in the fifth
// and smoothing length in the sixth.
var DefaultColumns = Columns{X: 0, Y: 1, Z: 2, Qty: 4, Size: 5}

// Valid returns true if every column index is non-negative.
func (cols Columns) Valid() bool {
	return cols.X >= 0 && cols.Y >= 0 && cols.Z >= 0 &&
		cols.Qty >= 0 && cols.Size >= 0
}

// ReadText reads a whitespace-separated particle catalog. Lines starting
// with '#' are comments. The returned set has been validated.
func ReadText(file string, cols Columns) (*Set, error) {
	if !cols.Valid() {
		return nil, fmt.Errorf("particle: invalid column layout %+v", cols)
	}

	colIdxs := []int{cols.X, cols.Y, cols.Z, cols.Qty, cols.Size}
	vals, err := table.ReadTable(file, colIdxs, nil)
	if err != nil {
		return nil, err
	}

	xs, ys, zs := vals[0], vals[1], vals[2]
	ps := &Set{
		Pos:  make([]geom.Vec, len(xs)),
		Qty:  vals[3],
		Size: vals[4],
	}
	for i := range ps.Pos {
		ps.Pos[i] = geom.Vec{xs[i], ys[i], zs[i]}
	}

	if err := ps.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return ps, nil
}

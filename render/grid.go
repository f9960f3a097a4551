package render

import (
	"fmt"
)

// Grid is an NX x NY array of accumulated kernel weights. Vals is stored
// column-major so that the value at pixel (ix, iy) is Vals[ix*NY + iy].
type Grid struct {
	NX, NY int
	Vals   []float64
}

// NewGrid returns a zeroed grid with the given dimensions.
func NewGrid(nx, ny int) *Grid {
	if nx <= 0 || ny <= 0 {
		panic(fmt.Sprintf("Grid shape (%d, %d) is not positive.", nx, ny))
	}
	return &Grid{NX: nx, NY: ny, Vals: make([]float64, nx*ny)}
}

// Shape returns the dimensions of the grid.
func (g *Grid) Shape() [2]int { return [2]int{g.NX, g.NY} }

func (g *Grid) At(ix, iy int) float64 { return g.Vals[ix*g.NY+iy] }

func (g *Grid) Add(ix, iy int, val float64) { g.Vals[ix*g.NY+iy] += val }

// Clear zeroes every pixel.
func (g *Grid) Clear() {
	for i := range g.Vals {
		g.Vals[i] = 0
	}
}

// Sum returns the total of all pixels.
func (g *Grid) Sum() float64 {
	sum := 0.0
	for _, v := range g.Vals {
		sum += v
	}
	return sum
}

// SameShape returns true if the two grids have the same dimensions.
func (g *Grid) SameShape(other *Grid) bool {
	return g.NX == other.NX && g.NY == other.NY
}

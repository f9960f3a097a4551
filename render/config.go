package render

import (
	"fmt"

	"github.com/phil-mansfield/unirender/geom"
	"github.com/phil-mansfield/unirender/kernel"
)

// Config holds the parameters shared by every frame of a rendering job.
type Config struct {
	// PixelsX and PixelsY are the dimensions of the output grid.
	PixelsX, PixelsY int
	Kernel           kernel.Kernel
	// InverseLength selects the kernel variant which takes an inverse
	// smoothing length.
	InverseLength bool
	// KernelTable replaces direct kernel evaluation with a lookup table.
	KernelTable bool
	// Up is the up hint given to every frame's camera.
	Up geom.Vec
	// Threads is the number of goroutines each worker splats with.
	Threads int
}

// DefaultConfig returns a 1920 x 1080 single-threaded configuration with
// a cubic spline kernel and +z as the up hint.
func DefaultConfig() *Config {
	return &Config{
		PixelsX: 1920, PixelsY: 1080,
		Kernel:  kernel.CubicSpline,
		Up:      geom.Vec{0, 0, 1},
		Threads: 1,
	}
}

// Validate returns an error if con cannot be rendered with.
func (con *Config) Validate() error {
	if con.PixelsX <= 0 || con.PixelsY <= 0 {
		return fmt.Errorf("render: invalid grid shape (%d, %d)",
			con.PixelsX, con.PixelsY)
	} else if con.Kernel < 0 || con.Kernel >= kernel.EndKernel {
		return fmt.Errorf("render: unknown kernel %v", con.Kernel)
	} else if _, ok := con.Up.Normalize(); !ok {
		return fmt.Errorf("render: invalid up hint %v", con.Up)
	} else if con.Threads <= 0 {
		return fmt.Errorf("render: %d threads requested", con.Threads)
	}
	return nil
}

// Canvas returns the canvas implied by con's grid shape.
func (con *Config) Canvas() Canvas {
	return Canvas{NX: con.PixelsX, NY: con.PixelsY}
}

// Splatter builds the Splatter described by con.
func (con *Config) Splatter() *Splatter {
	var f kernel.Func
	if con.KernelTable {
		f = kernel.NewTable(con.Kernel, kernel.DefaultTableSamples).
			Func(con.InverseLength)
	} else {
		f = con.Kernel.Func(con.InverseLength)
	}
	return NewSplatter(f, con.InverseLength, con.Threads)
}

package io

import (
	"strings"

	"github.com/phil-mansfield/unirender/geom"
	"github.com/phil-mansfield/unirender/kernel"
	"github.com/phil-mansfield/unirender/particle"
	"github.com/phil-mansfield/unirender/render"
)

const (
	ExampleRenderFile = `[Render]

#######################
# Required Parameters #
#######################

# Particle catalog. Files ending in .npy are read as numpy arrays of shape
# (fields, particles). Anything else is read as a whitespace-separated text
# file containing one particle per line, where lines starting with '#' are
# ignored.
Input = path/to/particles.txt
# Frame file describing the camera at every frame of the animation. Frame
# files can be generated from a handful of keyframes in Interpolate mode.
Frames = path/to/frames.txt
# Directory where rendered grids and images will be written to.
Output = path/to/output/dir

# Dimensions of the output images in pixels. The vertical field of view
# always spans PixelsY pixels.
PixelsX = 1920
PixelsY = 1080

#######################
# Optional Parameters #
#######################

# Output files are named Prefix_0000, Prefix_0001, etc. By default, Prefix is
# the first eight hex digits of the SHA-256 hash of the frame file, so that
# different camera paths never overwrite each other.
# Prefix = my_movie

# Smoothing kernel. Currently, only CubicSpline is supported.
# Kernel = CubicSpline

# Evaluate the kernel with 1/h instead of h. Results are identical.
# InverseSmoothingLength = false

# Replace direct kernel evaluation with a lookup table. This is faster for
# large particles and accurate to about one part in a million.
# KernelTable = false

# Up direction of the camera. It must not be parallel to any frame's look
# direction. Default is +z.
# UpX = 0
# UpY = 0
# UpZ = 1

# Zero-indexed columns (or numpy rows) of the particle file. The defaults match catalogs
# with columns x, y, z, temperature, density, smoothing length.
# XColumn = 0
# YColumn = 1
# ZColumn = 2
# QuantityColumn = 4
# SizeColumn = 5

# Transport must be one of [ Local | TCP ]. Local runs Workers goroutines in
# this process. TCP runs one worker per process; each process reads its rank,
# the number of processes, and the address of rank 0 from $UNIRENDER_RANK,
# $UNIRENDER_SIZE and $UNIRENDER_ADDRESS.
# Transport = Local
# Workers = 1

# GridFormat must be one of [ Raw | Gzip | EXR | None ].
# GridFormat = Raw
# ImageFormat must be one of [ PNG | TIFF | BMP | None ].
# ImageFormat = PNG

# log10 values mapped to the ends of the colormap. If AutoColor is true,
# limits are instead picked from the 1st and 99th percentiles of each frame.
# ColorMin = -9
# ColorMax = -4
# AutoColor = false

# Resamples images by this factor after colormapping.
# ImageScale = 1

# Saves a plot of the camera path here. Requires python and matplotlib.
# TrajectoryPlot = path.png

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out`

	ExampleInterpolateFile = `[Interpolate]

#######################
# Required Parameters #
#######################

# Frame file containing keyframes. Keyframe times must increase and
# consecutive look directions must not point in opposite directions.
Input = path/to/keyframes.txt
# Frame file which the interpolated frames will be written to.
Output = path/to/frames.txt

# Time between consecutive output frames.
TimeStep = 1

#######################
# Optional Parameters #
#######################

# Saves a plot of the interpolated camera path here. Requires python and
# matplotlib.
# TrajectoryPlot = path.png

# ProfileFile = prof.out
# LogFile = log.out`
)

type SharedConfig struct {
	// Required
	Input, Output string
	// Optional
	TrajectoryPlot       string
	LogFile, ProfileFile string
}

func (con *SharedConfig) ValidInput() bool {
	return con.Input != ""
}
func (con *SharedConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *SharedConfig) ValidTrajectoryPlot() bool {
	return con.TrajectoryPlot != ""
}
func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

type RenderConfig struct {
	SharedConfig

	// Required
	Frames           string
	PixelsX, PixelsY int

	// Optional
	Prefix                              string
	Kernel                              string
	InverseSmoothingLength, KernelTable bool
	UpX, UpY, UpZ                       float64

	XColumn, YColumn, ZColumn   int
	QuantityColumn, SizeColumn int

	Transport string
	Workers   int

	GridFormat, ImageFormat string
	ColorMin, ColorMax      float64
	AutoColor               bool
	ImageScale              float64
}

func DefaultRenderWrapper() *RenderWrapper {
	rc := RenderConfig{}
	rc.Kernel = kernel.CubicSpline.String()
	rc.UpX, rc.UpY, rc.UpZ = 0, 0, 1

	cols := particle.DefaultColumns
	rc.XColumn, rc.YColumn, rc.ZColumn = cols.X, cols.Y, cols.Z
	rc.QuantityColumn, rc.SizeColumn = cols.Qty, cols.Size

	rc.Transport = "Local"
	rc.Workers = 1
	rc.GridFormat, rc.ImageFormat = "Raw", "PNG"
	rc.ColorMin, rc.ColorMax = -9, -4
	rc.ImageScale = 1
	return &RenderWrapper{rc}
}

func (con *RenderConfig) ValidFrames() bool {
	return con.Frames != ""
}
func (con *RenderConfig) ValidPixels() bool {
	return con.PixelsX > 0 && con.PixelsY > 0
}
func (con *RenderConfig) ValidKernel() bool {
	_, ok := kernel.FromString(con.Kernel)
	return ok
}
func (con *RenderConfig) ValidUp() bool {
	_, ok := con.Up().Normalize()
	return ok
}
func (con *RenderConfig) ValidColumns() bool {
	return con.Columns().Valid()
}
func (con *RenderConfig) ValidTransport() bool {
	t := strings.ToLower(con.Transport)
	return t == "local" || t == "tcp"
}
func (con *RenderConfig) ValidWorkers() bool {
	return con.Workers > 0
}
func (con *RenderConfig) ValidColorRange() bool {
	return con.ColorMax > con.ColorMin
}
func (con *RenderConfig) ValidImageScale() bool {
	return con.ImageScale > 0
}

// IsTCP returns true if workers run in separate processes.
func (con *RenderConfig) IsTCP() bool {
	return strings.ToLower(con.Transport) == "tcp"
}

// Up returns the up hint as a vector.
func (con *RenderConfig) Up() geom.Vec {
	return geom.Vec{con.UpX, con.UpY, con.UpZ}
}

// Columns returns the particle file layout.
func (con *RenderConfig) Columns() particle.Columns {
	return particle.Columns{
		X: con.XColumn, Y: con.YColumn, Z: con.ZColumn,
		Qty: con.QuantityColumn, Size: con.SizeColumn,
	}
}

// Config converts con into the configuration used by render. threads
// is the number of splatting goroutines per worker. con's kernel must be
// valid.
func (con *RenderConfig) Config(threads int) *render.Config {
	k, _ := kernel.FromString(con.Kernel)
	return &render.Config{
		PixelsX: con.PixelsX, PixelsY: con.PixelsY,
		Kernel:        k,
		InverseLength: con.InverseSmoothingLength,
		KernelTable:   con.KernelTable,
		Up:            con.Up(),
		Threads:       threads,
	}
}

type InterpolateConfig struct {
	SharedConfig

	// Required
	TimeStep float64
}

func DefaultInterpolateWrapper() *InterpolateWrapper {
	return &InterpolateWrapper{InterpolateConfig{TimeStep: 1}}
}

func (con *InterpolateConfig) ValidTimeStep() bool {
	return con.TimeStep > 0
}

type RenderWrapper struct {
	Render RenderConfig
}

type InterpolateWrapper struct {
	Interpolate InterpolateConfig
}

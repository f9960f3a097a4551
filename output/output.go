/*package output writes the rendered frames of a job to disk: the raw grid
of each frame as a data artifact and a colormapped image of it.
*/
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/phil-mansfield/unirender/kernel"
	"github.com/phil-mansfield/unirender/render"
)

// GridFormat selects how grid data artifacts are stored.
type GridFormat int

const (
	// Raw grids use the io package's binary grid format.
	Raw GridFormat = iota
	// Gzip grids are gzip-compressed Raw grids.
	Gzip
	// EXR grids are single channel, 32-bit float OpenEXR images.
	EXR
	// NoGrid disables grid artifacts.
	NoGrid
)

var gridFormatNames = []string{"Raw", "Gzip", "EXR", "None"}

func (f GridFormat) String() string {
	if f < 0 || int(f) >= len(gridFormatNames) {
		return fmt.Sprintf("GridFormat(%d)", int(f))
	}
	return gridFormatNames[f]
}

// Ext returns the file extension of the format, or "" for NoGrid.
func (f GridFormat) Ext() string {
	switch f {
	case Raw:
		return ".grid"
	case Gzip:
		return ".grid.gz"
	case EXR:
		return ".exr"
	}
	return ""
}

// ImageFormat selects how colormapped images are stored.
type ImageFormat int

const (
	PNG ImageFormat = iota
	TIFF
	BMP
	// NoImage disables images.
	NoImage
)

var imageFormatNames = []string{"PNG", "TIFF", "BMP", "None"}

func (f ImageFormat) String() string {
	if f < 0 || int(f) >= len(imageFormatNames) {
		return fmt.Sprintf("ImageFormat(%d)", int(f))
	}
	return imageFormatNames[f]
}

// Ext returns the file extension of the format, or "" for NoImage.
func (f ImageFormat) Ext() string {
	switch f {
	case PNG:
		return ".png"
	case TIFF:
		return ".tiff"
	case BMP:
		return ".bmp"
	}
	return ""
}

// GridFormatFromString parses a GridFormat name, ignoring case.
func GridFormatFromString(s string) (GridFormat, bool) {
	for i, name := range gridFormatNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return GridFormat(i), true
		}
	}
	return 0, false
}

// ImageFormatFromString parses an ImageFormat name, ignoring case. "TIF" is
// accepted for TIFF.
func ImageFormatFromString(s string) (ImageFormat, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "TIF") {
		return TIFF, true
	}
	for i, name := range imageFormatNames {
		if strings.EqualFold(s, name) {
			return ImageFormat(i), true
		}
	}
	return 0, false
}

// Default color limits, in log10 units.
const (
	DefaultColorMin = -9.0
	DefaultColorMax = -4.0
)

// Writer saves frames into Dir. It implements render.Sink.
type Writer struct {
	Dir         string
	GridFormat  GridFormat
	ImageFormat ImageFormat

	// ColorMin and ColorMax are the log10 values mapped to the ends of the
	// colormap. If AutoColor is set, they are instead chosen per frame from
	// the 1st and 99th percentiles of the positive pixels.
	ColorMin, ColorMax float64
	AutoColor          bool
	// ImageScale resamples images by this factor. Values <= 0 are treated
	// as 1.
	ImageScale float64

	// Kernel is recorded in grid headers.
	Kernel kernel.Kernel
}

var _ render.Sink = &Writer{}

// NewWriter returns a Writer which saves raw grids and PNG images to dir
// with the default color limits.
func NewWriter(dir string) *Writer {
	return &Writer{
		Dir:        dir,
		GridFormat: Raw, ImageFormat: PNG,
		ColorMin: DefaultColorMin, ColorMax: DefaultColorMax,
		ImageScale: 1,
		Kernel:     kernel.CubicSpline,
	}
}

// Save writes the grid artifact and image of g, named after name. Both are
// written to temporary files first, so a failed Save leaves nothing behind.
func (w *Writer) Save(g *render.Grid, name string) error {
	var fnames, tmps []string
	fail := func(err error) error {
		for _, tmp := range tmps {
			os.Remove(tmp)
		}
		return err
	}

	if w.GridFormat != NoGrid {
		fname := filepath.Join(w.Dir, name+w.GridFormat.Ext())
		fnames, tmps = append(fnames, fname), append(tmps, fname+".tmp")
		if err := w.saveGrid(g, tmps[len(tmps)-1]); err != nil {
			return fail(err)
		}
	}

	if w.ImageFormat != NoImage {
		fname := filepath.Join(w.Dir, name+w.ImageFormat.Ext())
		fnames, tmps = append(fnames, fname), append(tmps, fname+".tmp")
		if err := w.saveImage(g, tmps[len(tmps)-1]); err != nil {
			return fail(err)
		}
	}

	for i := range tmps {
		if err := os.Rename(tmps[i], fnames[i]); err != nil {
			for _, fname := range fnames[:i] {
				os.Remove(fname)
			}
			return fail(err)
		}
	}
	return nil
}

func (w *Writer) saveGrid(g *render.Grid, fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}

	switch w.GridFormat {
	case Raw, Gzip:
		err = WriteGrid(f, g, w.Kernel, w.GridFormat == Gzip)
	case EXR:
		err = WriteEXR(f, g)
	default:
		err = fmt.Errorf("output: unknown grid format %v", w.GridFormat)
	}

	if err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", fname, err)
	}
	return f.Close()
}

func (w *Writer) saveImage(g *render.Grid, fname string) error {
	min, max := w.ColorMin, w.ColorMax
	if w.AutoColor {
		if lo, hi, ok := render.AutoLimits(g, 0.01, 0.99); ok {
			min, max = lo, hi
		}
	}
	if !(max > min) {
		return fmt.Errorf("output: color range [%g, %g] is empty", min, max)
	}

	img := Colormap(g, min, max)
	if w.ImageScale > 0 && w.ImageScale != 1 {
		img = Scale(img, w.ImageScale)
	}

	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := EncodeImage(f, img, w.ImageFormat); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", fname, err)
	}
	return f.Close()
}

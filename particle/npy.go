package particle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbinet/npyio"

	"github.com/phil-mansfield/unirender/geom"
)

// Read reads a particle catalog, choosing the format from the file's
// extension: ".npy" files are read with ReadNPY and everything else with
// ReadText.
func Read(file string, cols Columns) (*Set, error) {
	if strings.ToLower(filepath.Ext(file)) == ".npy" {
		return ReadNPY(file, cols)
	}
	return ReadText(file, cols)
}

// ReadNPY reads a numpy array of shape (fields, particles), so that row
// cols.X holds every x coordinate. float32, float64, int32 and int64
// arrays of either byte order are accepted. The returned set has been
// validated.
func ReadNPY(file string, cols Columns) (*Set, error) {
	if !cols.Valid() {
		return nil, fmt.Errorf("particle: invalid column layout %+v", cols)
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vals, shape, fortran, err := readNPY(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	if len(shape) != 2 {
		return nil, fmt.Errorf("%s: array has shape %v, not (fields, n)",
			file, shape)
	}
	fields, n := shape[0], shape[1]
	if len(vals) != fields*n {
		return nil, fmt.Errorf("%s: %d values for shape %v",
			file, len(vals), shape)
	}

	for _, c := range []int{cols.X, cols.Y, cols.Z, cols.Qty, cols.Size} {
		if c >= fields {
			return nil, fmt.Errorf("%s: column %d requested, but array "+
				"only has %d fields", file, c, fields)
		}
	}

	at := func(field, i int) float64 {
		if fortran {
			return vals[i*fields+field]
		}
		return vals[field*n+i]
	}

	ps := &Set{
		Pos:  make([]geom.Vec, n),
		Qty:  make([]float64, n),
		Size: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		ps.Pos[i] = geom.Vec{at(cols.X, i), at(cols.Y, i), at(cols.Z, i)}
		ps.Qty[i] = at(cols.Qty, i)
		ps.Size[i] = at(cols.Size, i)
	}

	if err := ps.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return ps, nil
}

// readNPY reads the array in rd as float64 values along with its shape and
// storage order.
func readNPY(rd io.Reader) (vals []float64, shape []int, fortran bool, err error) {
	r, err := npyio.NewReader(rd)
	if err != nil {
		return nil, nil, false, err
	}
	descr := r.Header.Descr
	if len(descr.Type) < 2 {
		return nil, nil, false, fmt.Errorf("unsupported dtype '%s'", descr.Type)
	}

	switch descr.Type[1:] {
	case "f8":
		err = r.Read(&vals)
	case "f4":
		var buf []float32
		if err = r.Read(&buf); err == nil {
			vals = make([]float64, len(buf))
			for i := range buf {
				vals[i] = float64(buf[i])
			}
		}
	case "i8":
		var buf []int64
		if err = r.Read(&buf); err == nil {
			vals = make([]float64, len(buf))
			for i := range buf {
				vals[i] = float64(buf[i])
			}
		}
	case "i4":
		var buf []int32
		if err = r.Read(&buf); err == nil {
			vals = make([]float64, len(buf))
			for i := range buf {
				vals[i] = float64(buf[i])
			}
		}
	default:
		return nil, nil, false, fmt.Errorf("unsupported dtype '%s'", descr.Type)
	}
	if err != nil {
		return nil, nil, false, err
	}

	return vals, descr.Shape, descr.Fortran, nil
}

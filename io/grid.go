package io

import (
	"encoding/binary"
	"fmt"
	"io"
)

var end = binary.LittleEndian

/*
The binary format used for rendered grids is as follows:
    |-- 1 --||-- 2 --||-- ... 3 ... --||-- ... 4 ... --|

    1 - (int64) Flag indicating the endianness of the file. 0 indicates a big
        endian byte ordering and -1 indicates a little endian byte order.
    2 - (int64) Size of a GridHeader struct in bytes. Checked on read.
    3 - The remaining fields of GridHeader.
    4 - ([]float64) The NX * NY pixel values. The value of pixel (ix, iy)
        is at index ix*NY + iy.
*/
type GridHeader struct {
	Type   TypeInfo
	Render RenderInfo
}

type TypeInfo struct {
	Endianness int64
	HeaderSize int64
	GridType   int64
}

// RenderInfo describes how a grid was rendered.
type RenderInfo struct {
	PixelsX, PixelsY int64
	// Kernel is the numeric value of the kernel.Kernel used.
	Kernel int64
}

// GridFlag identifies what a grid's pixels hold.
type GridFlag int64

const (
	// SurfaceDensity pixels hold kernel-weighted sums of a particle
	// quantity.
	SurfaceDensity GridFlag = iota
)

// Pixels returns the number of values in a grid with this header.
func (hd *GridHeader) Pixels() int {
	return int(hd.Render.PixelsX * hd.Render.PixelsY)
}

// WriteGrid writes a little endian grid to wr.
func WriteGrid(wr io.Writer, render RenderInfo, vals []float64) error {
	if int64(len(vals)) != render.PixelsX*render.PixelsY {
		return fmt.Errorf("%d values given for a %d x %d grid.",
			len(vals), render.PixelsX, render.PixelsY)
	}

	hd := GridHeader{}
	hd.Type.Endianness = -1
	hd.Type.HeaderSize = int64(binary.Size(&hd))
	hd.Type.GridType = int64(SurfaceDensity)
	hd.Render = render

	if err := binary.Write(wr, end, &hd); err != nil {
		return err
	}
	return binary.Write(wr, end, vals)
}

// ReadGridHeader reads the header at the start of rd. Grids of either
// endianness can be read.
func ReadGridHeader(rd io.Reader) (*GridHeader, binary.ByteOrder, error) {
	hd := &GridHeader{}

	// -1 and 0 have the same representation in both byte orders.
	if err := binary.Read(rd, end, &hd.Type.Endianness); err != nil {
		return nil, nil, err
	}
	var order binary.ByteOrder
	switch hd.Type.Endianness {
	case -1:
		order = binary.LittleEndian
	case 0:
		order = binary.BigEndian
	default:
		return nil, nil, fmt.Errorf("Invalid endianness flag %d.",
			hd.Type.Endianness)
	}

	if err := binary.Read(rd, order, &hd.Type.HeaderSize); err != nil {
		return nil, nil, err
	}
	if hd.Type.HeaderSize != int64(binary.Size(hd)) {
		return nil, nil, fmt.Errorf(
			"Header size is %d, but expected %d. Is this a grid file?",
			hd.Type.HeaderSize, binary.Size(hd),
		)
	}
	if err := binary.Read(rd, order, &hd.Type.GridType); err != nil {
		return nil, nil, err
	}
	if err := binary.Read(rd, order, &hd.Render); err != nil {
		return nil, nil, err
	}

	if hd.Render.PixelsX <= 0 || hd.Render.PixelsY <= 0 {
		return nil, nil, fmt.Errorf("Invalid grid shape (%d, %d).",
			hd.Render.PixelsX, hd.Render.PixelsY)
	}
	return hd, order, nil
}

// ReadGrid reads a full grid from rd.
func ReadGrid(rd io.Reader) (*GridHeader, []float64, error) {
	hd, order, err := ReadGridHeader(rd)
	if err != nil {
		return nil, nil, err
	}
	vals := make([]float64, hd.Pixels())
	if err := binary.Read(rd, order, vals); err != nil {
		return nil, nil, err
	}
	return hd, vals, nil
}

package output

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/mrjoshuak/go-openexr/exr"

	"github.com/phil-mansfield/unirender/kernel"
	"github.com/phil-mansfield/unirender/render"
	uio "github.com/phil-mansfield/unirender/io"
)

// EXRChannel is the name of the channel EXR grids are stored in.
const EXRChannel = "Y"

// WriteGrid writes g in the binary grid format, optionally gzipped.
func WriteGrid(wr io.Writer, g *render.Grid, k kernel.Kernel, compress bool) error {
	info := uio.RenderInfo{
		PixelsX: int64(g.NX), PixelsY: int64(g.NY), Kernel: int64(k),
	}
	if !compress {
		bw := bufio.NewWriter(wr)
		if err := uio.WriteGrid(bw, info, g.Vals); err != nil {
			return err
		}
		return bw.Flush()
	}

	zw := gzip.NewWriter(wr)
	if err := uio.WriteGrid(zw, info, g.Vals); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadGrid reads a grid file written by WriteGrid. Gzipped files are
// detected automatically.
func ReadGrid(fname string) (*render.Grid, kernel.Kernel, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var rd io.Reader = br
	if magic, err := br.Peek(2); err == nil &&
		magic[0] == 0x1f && magic[1] == 0x8b {

		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", fname, err)
		}
		defer zr.Close()
		rd = zr
	}

	hd, vals, err := uio.ReadGrid(rd)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", fname, err)
	}

	g := &render.Grid{
		NX: int(hd.Render.PixelsX), NY: int(hd.Render.PixelsY), Vals: vals,
	}
	return g, kernel.Kernel(hd.Render.Kernel), nil
}

// WriteEXR writes g as a single channel float image. Values are narrowed
// to float32, and the image is flipped so that iy = 0 is the bottom row.
func WriteEXR(ws io.WriteSeeker, g *render.Grid) error {
	data := make([]float32, g.NX*g.NY)
	for ix := 0; ix < g.NX; ix++ {
		for iy := 0; iy < g.NY; iy++ {
			row := g.NY - 1 - iy
			data[row*g.NX+ix] = float32(g.At(ix, iy))
		}
	}

	h := exr.NewScanlineHeader(g.NX, g.NY)
	cl := exr.NewChannelList()
	cl.Add(exr.NewChannel(EXRChannel, exr.PixelTypeFloat))
	h.SetChannels(cl)
	h.SetCompression(exr.CompressionZIP)

	sw, err := exr.NewScanlineWriter(ws, h)
	if err != nil {
		return err
	}

	fb := exr.NewFrameBuffer()
	fb.Set(EXRChannel, exr.NewSliceFromFloat32(data, g.NX, g.NY))
	sw.SetFrameBuffer(fb)

	if err := sw.WritePixels(0, g.NY-1); err != nil {
		sw.Close()
		return err
	}
	return sw.Close()
}

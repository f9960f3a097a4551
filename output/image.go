package output

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/phil-mansfield/unirender/render"
)

// Cubehelix returns the color at x in [0, 1] of Green's cubehelix colormap
// with the parameters matplotlib uses: start 0.5, 1.5 rotations backwards,
// unit hue and gamma. Values outside [0, 1] are clamped.
func Cubehelix(x float64) color.NRGBA {
	const (
		start, rot, hue = 0.5, -1.5, 1.0
	)
	if !(x > 0) {
		x = 0
	} else if x > 1 {
		x = 1
	}

	a := hue * x * (1 - x) / 2
	phi := 2 * math.Pi * (start/3 + rot*x)
	sin, cos := math.Sincos(phi)

	r := x + a*(-0.14861*cos+1.78277*sin)
	g := x + a*(-0.29227*cos-0.90649*sin)
	b := x + a*(1.97294*cos)
	return color.NRGBA{R: toByte(r), G: toByte(g), B: toByte(b), A: 0xff}
}

func toByte(x float64) uint8 {
	if x <= 0 {
		return 0
	} else if x >= 1 {
		return 0xff
	}
	return uint8(math.Round(x * 0xff))
}

// Colormap converts g into an image. Pixel values are mapped through
// log10 onto [min, max] and colored with Cubehelix. Non-positive pixels get
// the color of min. iy = 0 is the bottom row of the image.
func Colormap(g *render.Grid, min, max float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, g.NX, g.NY))
	width := max - min
	for ix := 0; ix < g.NX; ix++ {
		for iy := 0; iy < g.NY; iy++ {
			v := g.At(ix, iy)
			x := 0.0
			if v > 0 {
				x = (math.Log10(v) - min) / width
			}
			img.SetNRGBA(ix, g.NY-1-iy, Cubehelix(x))
		}
	}
	return img
}

// Scale resamples img by factor with a Catmull-Rom filter.
func Scale(img image.Image, factor float64) *image.NRGBA {
	b := img.Bounds()
	nx := int(math.Max(1, math.Round(float64(b.Dx())*factor)))
	ny := int(math.Max(1, math.Round(float64(b.Dy())*factor)))

	dst := image.NewNRGBA(image.Rect(0, 0, nx, ny))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// EncodeImage writes img to wr in the given format.
func EncodeImage(wr io.Writer, img image.Image, format ImageFormat) error {
	switch format {
	case PNG:
		return png.Encode(wr, img)
	case TIFF:
		return tiff.Encode(wr, img, &tiff.Options{Compression: tiff.Deflate})
	case BMP:
		return bmp.Encode(wr, img)
	}
	return fmt.Errorf("output: cannot encode image format %v", format)
}

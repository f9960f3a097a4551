package render

// Canvas maps clip-space lengths and positions onto an NX x NY pixel grid.
// The vertical axis spans [-1, 1] in clip space and NY is used as the length
// scale on both axes, so pixels are square.
type Canvas struct {
	NX, NY int
}

// Radius converts a clip-space length to pixels.
func (c Canvas) Radius(r float64) float64 {
	return r * float64(c.NY) / 2
}

// Position converts a clip-space point to pixel coordinates, with the clip
// origin at the center of the canvas.
func (c Canvas) Position(x, y float64) (px, py float64) {
	scale := float64(c.NY) / 2
	return x*scale + float64(c.NX)/2, y*scale + float64(c.NY)/2
}

// Remap converts sizes and xy from clip units to pixel units in place.
func (c Canvas) Remap(sizes []float64, xy [][2]float64) {
	for i := range sizes {
		sizes[i] = c.Radius(sizes[i])
	}
	for i := range xy {
		xy[i][0], xy[i][1] = c.Position(xy[i][0], xy[i][1])
	}
}

package frames

import (
	"fmt"
	"path/filepath"
	"strings"

	plt "github.com/phil-mansfield/pyplot"
)

// PlotTrajectory saves a two-panel diagnostic plot of a camera path to
// fname: the position projected onto the x-y plane, and the field of view
// against time. It requires python with matplotlib.
func PlotTrajectory(frs []Frame, fname string) error {
	if len(frs) == 0 {
		return fmt.Errorf("frames: no frames to plot")
	}

	ts, xs, ys, fovs := make([]float64, len(frs)), make([]float64, len(frs)),
		make([]float64, len(frs)), make([]float64, len(frs))
	for i := range frs {
		ts[i], xs[i], ys[i], fovs[i] =
			frs[i].Time, frs[i].Pos[0], frs[i].Pos[1], frs[i].FOV
	}

	plt.Reset()

	plt.Figure(plt.FigSize(8, 8))
	plt.Plot(xs, ys, "k", plt.LW(2))
	plt.Plot(xs[:1], ys[:1], "or")
	plt.XLabel(`$x$`, plt.FontSize(16))
	plt.YLabel(`$y$`, plt.FontSize(16))
	plt.Title(fmt.Sprintf("Camera path, %d frames", len(frs)))
	plt.Grid(plt.Axis("both"))
	plt.SaveFig(fname)

	plt.Figure()
	plt.Plot(ts, fovs, "k", plt.LW(2))
	plt.XLabel(`$t$`, plt.FontSize(16))
	plt.YLabel(`FOV [deg]`, plt.FontSize(16))
	plt.SaveFig(fovName(fname))

	plt.Execute()
	return nil
}

// fovName inserts "_fov" before the extension of fname.
func fovName(fname string) string {
	ext := filepath.Ext(fname)
	return strings.TrimSuffix(fname, ext) + "_fov" + ext
}

package render

import (
	"fmt"
	"math"
	"strings"
)

// HistInfo describes the binning of a histogram.
type HistInfo struct {
	Min, Max float64
	Bins     int
	// Scale is either "Log" or "Linear".
	Scale string
}

// Hist is a histogram of grid values.
type Hist struct {
	Info    HistInfo
	Centers []float64
	Counts  []int
}

// NewHist bins the values of g. Values outside [info.Min, info.Max) are
// ignored, as are non-positive values for a log histogram.
func NewHist(g *Grid, info *HistInfo) (*Hist, error) {
	if info.Bins <= 0 {
		return nil, fmt.Errorf("render: histogram has %d bins", info.Bins)
	} else if !(info.Max > info.Min) {
		return nil, fmt.Errorf("render: histogram range [%g, %g) is empty",
			info.Min, info.Max)
	} else if isLog(info) && !(info.Min > 0) {
		return nil, fmt.Errorf("render: log histogram has minimum %g",
			info.Min)
	}

	h := &Hist{
		Info:    *info,
		Centers: histCenters(info),
		Counts:  make([]int, info.Bins),
	}
	histogram(g.Vals, info, h.Counts)
	return h, nil
}

// Quantile returns the center of the bin containing the q-th quantile of the
// binned values. q is clamped to [0, 1]. The second return value is false if
// the histogram is empty.
func (h *Hist) Quantile(q float64) (float64, bool) {
	total := 0
	for _, n := range h.Counts {
		total += n
	}
	if total == 0 {
		return 0, false
	}

	if q < 0 {
		q = 0
	} else if q > 1 {
		q = 1
	}
	target := q * float64(total)

	sum := 0
	for i, n := range h.Counts {
		sum += n
		if float64(sum) >= target && n > 0 {
			return h.Centers[i], true
		}
	}
	return h.Centers[len(h.Centers)-1], true
}

// AutoLimits picks log10 color limits for g from the lo and hi quantiles of
// its positive pixels. ok is false if g has no positive pixels.
func AutoLimits(g *Grid, lo, hi float64) (min, max float64, ok bool) {
	vMin, vMax := math.Inf(+1), math.Inf(-1)
	for _, v := range g.Vals {
		if v > 0 && !math.IsInf(v, 0) {
			if v < vMin {
				vMin = v
			}
			if v > vMax {
				vMax = v
			}
		}
	}
	if math.IsInf(vMin, 0) {
		return 0, 0, false
	}
	if vMin == vMax {
		l := math.Log10(vMin)
		return l - 0.5, l + 0.5, true
	}

	info := &HistInfo{
		Min: vMin, Max: vMax * (1 + 1e-6),
		Bins: 200, Scale: "Log",
	}
	h, err := NewHist(g, info)
	if err != nil {
		return 0, 0, false
	}

	qLo, _ := h.Quantile(lo)
	qHi, _ := h.Quantile(hi)
	min, max = math.Log10(qLo), math.Log10(qHi)
	if !(max > min) {
		max = min + 1
	}
	return min, max, true
}

func isLog(info *HistInfo) bool {
	return strings.ToLower(info.Scale) == "log"
}

// histCenters returns the centers of a histogram.
func histCenters(info *HistInfo) []float64 {
	min, max := info.Min, info.Max

	log := isLog(info)
	if log {
		min, max = math.Log10(min), math.Log10(max)
	}

	dx := (max - min) / float64(info.Bins)

	centers := make([]float64, info.Bins)
	for i := range centers {
		centers[i] = min + dx*(float64(i)+0.5)
		if log {
			centers[i] = math.Pow(10, centers[i])
		}
	}

	return centers
}

func histogram(x []float64, info *HistInfo, counts []int) {
	// Avoid unneeded dereferences and conversions
	min, max := info.Min, info.Max
	fBins := float64(info.Bins)

	if isLog(info) {
		min, max := math.Log10(min), math.Log10(max)
		dx := (max - min) / fBins

		for i := range x {
			if !(x[i] > 0) {
				continue
			}

			idx := (math.Log10(x[i]) - min) / dx
			if idx < 0 || idx >= fBins {
				continue
			}
			counts[int(idx)]++
		}
	} else {
		dx := (max - min) / fBins

		for i := range x {
			idx := (x[i] - min) / dx
			if !(idx >= 0) || idx >= fBins {
				continue
			}
			counts[int(idx)]++
		}
	}
}

package frames

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/unirender/geom"
	"github.com/phil-mansfield/unirender/interpolate"
)

// parallelTol is the largest |sin| between two directions which are treated
// as parallel.
const parallelTol = 1e-12

// segment is the rotation carrying one keyframe's direction to the next.
type segment struct {
	axis  geom.Vec
	theta float64
}

// Interpolate generates frames at times t0, t0 + step, t0 + 2*step, ... up
// to but not including the time of the last keyframe. Position, field of
// view and clipping planes follow natural cubic splines through the
// keyframes. Between consecutive keyframes the look direction rotates at a
// constant rate about the axis perpendicular to both keyframe directions.
//
// keys must have strictly increasing times, and consecutive directions must
// not be zero or opposite.
func Interpolate(keys []Frame, step float64) ([]Frame, error) {
	if len(keys) < 2 {
		return nil, fmt.Errorf("frames: %d keyframes given, need at least 2",
			len(keys))
	} else if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("frames: invalid time step %g", step)
	}

	ts := make([]float64, len(keys))
	for i := range keys {
		ts[i] = keys[i].Time
	}

	// Columns 1-3 and 7-9 of a frame row are splined.
	splined := []int{1, 2, 3, 7, 8, 9}
	splines := make([]*interpolate.Spline, Columns)
	for _, k := range splined {
		ys := make([]float64, len(keys))
		for i := range keys {
			ys[i] = keys[i].row()[k]
		}
		sp, err := interpolate.NewSpline(ts, ys)
		if err != nil {
			return nil, fmt.Errorf("frames: %w", err)
		}
		splines[k] = sp
	}

	segs := make([]segment, len(keys)-1)
	for i := range segs {
		var err error
		segs[i], err = rotation(keys[i].Dir, keys[i+1].Dir)
		if err != nil {
			return nil, fmt.Errorf("frames: keyframes %d and %d: %w",
				i, i+1, err)
		}
	}

	t0, tEnd := ts[0], ts[len(ts)-1]
	n := int(math.Ceil((tEnd - t0) / step))
	frs := make([]Frame, 0, n)
	seg := 0
	for j := 0; ; j++ {
		t := t0 + float64(j)*step
		if t >= tEnd {
			break
		}
		for seg < len(segs)-1 && t >= ts[seg+1] {
			seg++
		}

		row := [Columns]float64{}
		row[0] = t
		for _, k := range splined {
			row[k] = splines[k].Eval(t)
		}
		fr := fromRow(row)

		frac := (t - ts[seg]) / (ts[seg+1] - ts[seg])
		fr.Dir = keys[seg].Dir
		if segs[seg].theta != 0 {
			fr.Dir = fr.Dir.Rotate(segs[seg].axis, frac*segs[seg].theta)
		}
		frs = append(frs, fr)
	}

	return frs, nil
}

// rotation returns the axis and angle of the smallest rotation carrying the
// direction of v1 onto the direction of v2.
func rotation(v1, v2 geom.Vec) (segment, error) {
	u1, ok1 := v1.Normalize()
	u2, ok2 := v2.Normalize()
	if !ok1 || !ok2 {
		return segment{}, fmt.Errorf("zero or non-finite direction (%v, %v)",
			v1, v2)
	}

	cross := u1.Cross(u2)
	sin, cos := cross.Norm(), u1.Dot(u2)
	if sin < parallelTol {
		if cos > 0 {
			return segment{}, nil
		}
		return segment{}, fmt.Errorf("directions %v and %v are opposite",
			v1, v2)
	}

	axis, _ := cross.Normalize()
	return segment{axis: axis, theta: math.Atan2(sin, cos)}, nil
}

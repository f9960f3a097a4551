package camera

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/unirender/geom"
)

const deg = math.Pi / 180

func TestBasisOrthonormal(t *testing.T) {
	table := []struct {
		look, up geom.Vec
	}{
		{geom.Vec{0, 0, -1}, geom.Vec{0, 1, 0}},
		{geom.Vec{1, 0, 0}, geom.Vec{0, 0, 1}},
		{geom.Vec{1, 2, 3}, geom.Vec{0, 0, 1}},
		{geom.Vec{-4, 0.5, 0.1}, geom.Vec{0.3, -1, 2}},
		{geom.Vec{0, 0, 7}, geom.Vec{1, 1, 0}},
	}

	for i, test := range table {
		c, err := New(geom.Vec{1, 2, 3}, test.look, test.up, 60*deg, 0.1, 100)
		require.NoError(t, err, "%d)", i)

		r, u, f := c.Basis()
		for _, v := range []geom.Vec{r, u, f} {
			assert.InDelta(t, 1.0, v.Norm(), 1e-12, "%d)", i)
		}
		assert.InDelta(t, 0.0, r.Dot(u), 1e-12, "%d)", i)
		assert.InDelta(t, 0.0, r.Dot(f), 1e-12, "%d)", i)
		assert.InDelta(t, 0.0, u.Dot(f), 1e-12, "%d)", i)

		// Right-handed, and forward points back along the look direction.
		cross := r.Cross(u)
		for k := 0; k < 3; k++ {
			assert.InDelta(t, f[k], cross[k], 1e-12, "%d)", i)
		}
		look, _ := test.look.Normalize()
		assert.InDelta(t, -1.0, look.Dot(f), 1e-12, "%d)", i)
	}
}

func TestInvalidCamera(t *testing.T) {
	pos, look, up := geom.Vec{0, 0, 10}, geom.Vec{0, 0, -1}, geom.Vec{0, 1, 0}
	table := []struct {
		pos, look, up        geom.Vec
		fov, near, far       float64
	}{
		{pos, geom.Vec{}, up, 90 * deg, 0.1, 100},
		{pos, look, geom.Vec{}, 90 * deg, 0.1, 100},
		{pos, look, geom.Vec{0, 0, 1}, 90 * deg, 0.1, 100},
		{pos, look, geom.Vec{0, 0, -3}, 90 * deg, 0.1, 100},
		{pos, look, up, 0, 0.1, 100},
		{pos, look, up, math.Pi, 0.1, 100},
		{pos, look, up, -1, 0.1, 100},
		{pos, look, up, math.NaN(), 0.1, 100},
		{pos, look, up, 90 * deg, 0, 100},
		{pos, look, up, 90 * deg, -1, 100},
		{pos, look, up, 90 * deg, 1, 1},
		{pos, look, up, 90 * deg, 1, 0.5},
		{pos, look, up, 90 * deg, 1, math.Inf(1)},
		{geom.Vec{math.NaN(), 0, 0}, look, up, 90 * deg, 0.1, 100},
	}

	for i, test := range table {
		_, err := New(test.pos, test.look, test.up, test.fov, test.near, test.far)
		assert.True(t, errors.Is(err, ErrInvalidCamera), "%d) err = %v", i, err)
	}
}

func TestViewMatrix(t *testing.T) {
	c, err := New(geom.Vec{0, 0, 10}, geom.Vec{0, 0, -1}, geom.Vec{0, 1, 0},
		90*deg, 0.1, 100)
	require.NoError(t, err)

	out := make([]float64, 4)
	c.ViewMatrix().VecMultAt([]float64{0, 0, 0, 1}, out)
	assert.InDeltaSlice(t, []float64{0, 0, -10, 1}, out, 1e-12)

	c.ViewMatrix().VecMultAt([]float64{0, 0, 10, 1}, out)
	assert.InDeltaSlice(t, []float64{0, 0, 0, 1}, out, 1e-12)
}

func TestProjectionFrustum(t *testing.T) {
	n, f, fov := 0.5, 50.0, 70*deg
	c, err := New(geom.Vec{}, geom.Vec{0, 0, -1}, geom.Vec{0, 1, 0}, fov, n, f)
	require.NoError(t, err)
	th := math.Tan(fov / 2)

	// Corners of the near and far faces map to the corners of the clip cube.
	table := []struct {
		view, clip geom.Vec
	}{
		{geom.Vec{n * th, n * th, -n}, geom.Vec{1, 1, -1}},
		{geom.Vec{-n * th, n * th, -n}, geom.Vec{-1, 1, -1}},
		{geom.Vec{f * th, -f * th, -f}, geom.Vec{1, -1, 1}},
		{geom.Vec{0, 0, -f}, geom.Vec{0, 0, 1}},
	}

	clip, _ := c.Project(
		[]geom.Vec{table[0].view, table[1].view, table[2].view, table[3].view},
		[]float64{1, 1, 1, 1},
	)
	for i, test := range table {
		for k := 0; k < 3; k++ {
			assert.InDelta(t, test.clip[k], clip[i][k], 1e-9, "%d)", i)
		}
	}

	proj := c.ProjectionMatrix()
	assert.Equal(t, -1.0, proj.At(3, 2))
	assert.Equal(t, 0.0, proj.At(3, 3))
}

func TestOffCenterPerspective(t *testing.T) {
	m := PerspectiveMatrix(-1, 3, -2, 2, 1, 10)
	out := make([]float64, 4)
	m.VecMultAt([]float64{3, 2, -1, 1}, out)
	assert.InDelta(t, 1.0, out[0]/out[3], 1e-12)
	assert.InDelta(t, 1.0, out[1]/out[3], 1e-12)
	assert.InDelta(t, -1.0, out[2]/out[3], 1e-12)

	m.VecMultAt([]float64{-1, -2, -1, 1}, out)
	assert.InDelta(t, -1.0, out[0]/out[3], 1e-12)
	assert.InDelta(t, -1.0, out[1]/out[3], 1e-12)
}

func TestProjectSize(t *testing.T) {
	c, err := New(geom.Vec{0, 0, 10}, geom.Vec{0, 0, -1}, geom.Vec{0, 1, 0},
		90*deg, 0.1, 100)
	require.NoError(t, err)

	clip, sizes := c.Project(
		[]geom.Vec{{0, 0, 0}, {0, 0, 5}}, []float64{1, 2},
	)
	assert.InDelta(t, 0.1, sizes[0], 1e-12)
	assert.InDelta(t, 0.4, sizes[1], 1e-12)
	assert.InDelta(t, 0.0, clip[0][0], 1e-12)
	assert.InDelta(t, 0.0, clip[0][1], 1e-12)
	assert.True(t, clip[0][2] > -1 && clip[0][2] < 1)
}

func TestMaskBoundary(t *testing.T) {
	c, err := New(geom.Vec{0, 0, 10}, geom.Vec{0, 0, -1}, geom.Vec{0, 1, 0},
		90*deg, 0.1, 100)
	require.NoError(t, err)

	pos := []geom.Vec{{7, 0, 0}}
	clip, _ := c.Project(pos, []float64{1})
	x := clip[0][0]

	// Exactly on the boundary: excluded.
	m, err := c.ProjectAndMask([]float64{1}, []float64{1}, pos, x, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	// Boundary just beyond the point: included.
	m, err = c.ProjectAndMask(
		[]float64{1}, []float64{1}, pos, math.Nextafter(x, math.Inf(1)), 1,
	)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	m, err = c.ProjectAndMask([]float64{1}, []float64{1}, pos, x+1e-9, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
}

func TestMaskOrderAndDepth(t *testing.T) {
	c, err := New(geom.Vec{0, 0, 10}, geom.Vec{0, 0, -1}, geom.Vec{0, 1, 0},
		90*deg, 1, 20)
	require.NoError(t, err)

	pos := []geom.Vec{
		{0, 0, 0},    // visible
		{0, 0, 20},   // behind the camera
		{1, 1, 0},    // visible
		{0, 0, 9.5},  // in front of the near plane
		{0, 0, -15},  // beyond the far plane
		{50, 0, 0},   // outside horizontally
		{-2, -3, 1},  // visible
		{0, 0, 10},   // at the camera
		{3, 0, 10},   // in the camera plane
	}
	qty := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8}
	sizes := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1}

	m, err := c.ProjectAndMask(qty, sizes, pos, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 6}, m.Index)
	assert.Equal(t, []float64{0, 2, 6}, m.Qty)
	assert.Equal(t, 2, m.Degenerate)
	assert.Len(t, m.Size, 3)
	assert.Len(t, m.XY, 3)

	_, err = c.ProjectAndMask(qty[:2], sizes, pos, 1, 1)
	assert.Error(t, err)
}

func TestEverythingBehind(t *testing.T) {
	c, err := New(geom.Vec{0, 0, 10}, geom.Vec{0, 0, 1}, geom.Vec{0, 1, 0},
		90*deg, 0.1, 100)
	require.NoError(t, err)

	pos := []geom.Vec{{0, 0, 0}, {1, 1, 1}, {-3, 2, 5}}
	m, err := c.ProjectAndMask(
		[]float64{1, 1, 1}, []float64{1, 1, 1}, pos, 1, 1,
	)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.Degenerate)
}

func TestAspect(t *testing.T) {
	ax, ay := Aspect(1920, 1080)
	assert.InDelta(t, 16.0/9, ax, 1e-12)
	assert.Equal(t, 1.0, ay)
}

package frames

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/unirender/geom"
)

func vecInDelta(t *testing.T, exp, act geom.Vec, delta float64, msg string) {
	for k := 0; k < 3; k++ {
		assert.InDelta(t, exp[k], act[k], delta, "%s[%d]", msg, k)
	}
}

func TestFileRoundTrip(t *testing.T) {
	frs := []Frame{
		{0, geom.Vec{0, 0, 10}, geom.Vec{0, 0, -1}, 90, 0.1, 100},
		{1.5, geom.Vec{-1.25, 3e5, 2}, geom.Vec{1, 2, 3}, 45.5, 1e-3, 2e4},
	}

	file := filepath.Join(t.TempDir(), "frames.txt")
	require.NoError(t, WriteFile(file, frs))

	text, err := os.ReadFile(file)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(text)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, Columns, len(strings.Fields(lines[1])))
	assert.True(t, strings.HasPrefix(lines[1], "+0.000000E+00 "))

	read, err := ReadFile(file)
	require.NoError(t, err)
	require.Len(t, read, len(frs))
	for i := range frs {
		exp, act := frs[i].row(), read[i].row()
		for k := range exp {
			assert.InDelta(t, exp[k], act[k], 1e-6*math.Abs(exp[k]),
				"frame %d, column %d", i, k)
		}
	}
}

func TestWriteFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Write(buf, []Frame{{Time: -2, FOV: 60}}))
	assert.Equal(t, Header+"\n"+
		"-2.000000E+00 +0.000000E+00 +0.000000E+00 +0.000000E+00 "+
		"+0.000000E+00 +0.000000E+00 +0.000000E+00 +6.000000E+01 "+
		"+0.000000E+00 +0.000000E+00\n", buf.String())
}

func TestCamera(t *testing.T) {
	fr := Frame{0, geom.Vec{0, 0, 10}, geom.Vec{0, 0, -1}, 90, 0.1, 100}
	c, err := fr.Camera(geom.Vec{0, 1, 0})
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/2, c.FOV(), 1e-12)

	fr.FOV = 180
	_, err = fr.Camera(geom.Vec{0, 1, 0})
	assert.Error(t, err)
}

func TestHashPrefix(t *testing.T) {
	file := filepath.Join(t.TempDir(), "frames.txt")
	require.NoError(t, os.WriteFile(file, []byte("abc"), 0644))

	prefix, err := HashPrefix(file)
	require.NoError(t, err)
	// sha256("abc") = ba7816bf...
	assert.Equal(t, "ba7816bf", prefix)

	_, err = HashPrefix(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestInterpolateEndpoints(t *testing.T) {
	keys := []Frame{
		{0, geom.Vec{0, 0, 10}, geom.Vec{1, 0, 0}, 60, 0.1, 100},
		{2, geom.Vec{1, 2, 8}, geom.Vec{0, 1, 0}, 70, 0.2, 90},
		{5, geom.Vec{3, 2, 4}, geom.Vec{0, 1, 1}, 50, 0.1, 120},
	}

	frs, err := Interpolate(keys, 0.5)
	require.NoError(t, err)
	require.Len(t, frs, 10)

	// Frames land on the keyframes at knot times.
	for _, i := range []int{0, 4} {
		key := keys[i/4]
		vecInDelta(t, key.Pos, frs[i].Pos, 1e-10, "pos")
		vecInDelta(t, key.Dir, frs[i].Dir, 1e-10, "dir")
		assert.InDelta(t, key.FOV, frs[i].FOV, 1e-10)
		assert.InDelta(t, key.Near, frs[i].Near, 1e-10)
		assert.InDelta(t, key.Far, frs[i].Far, 1e-10)
	}

	for i := range frs {
		assert.InDelta(t, 0.5*float64(i), frs[i].Time, 1e-12)
		assert.InDelta(t, 1.0, frs[i].Dir.Norm(), 1e-10, "%d)", i)
	}
}

func TestInterpolateRotation(t *testing.T) {
	keys := []Frame{
		{0, geom.Vec{}, geom.Vec{1, 0, 0}, 60, 1, 10},
		{4, geom.Vec{}, geom.Vec{0, 3, 0}, 60, 1, 10},
	}
	frs, err := Interpolate(keys, 1)
	require.NoError(t, err)
	require.Len(t, frs, 4)

	// Constant angular rate about +z, preserving the first direction's
	// length.
	for i, fr := range frs {
		phi := float64(i) * math.Pi / 8
		vecInDelta(t, geom.Vec{math.Cos(phi), math.Sin(phi), 0}, fr.Dir,
			1e-12, "dir")
		assert.InDelta(t, 60.0, fr.FOV, 1e-12)
	}
}

func TestInterpolateSameDirection(t *testing.T) {
	keys := []Frame{
		{0, geom.Vec{0, 0, 0}, geom.Vec{0, 0, -1}, 60, 1, 10},
		{1, geom.Vec{0, 0, 1}, geom.Vec{0, 0, -2}, 60, 1, 10},
	}
	frs, err := Interpolate(keys, 0.25)
	require.NoError(t, err)
	require.Len(t, frs, 4)
	for i, fr := range frs {
		assert.Equal(t, geom.Vec{0, 0, -1}, fr.Dir)
		assert.InDelta(t, 0.25*float64(i), fr.Pos[2], 1e-12)
	}
}

func TestInterpolateErrors(t *testing.T) {
	good := Frame{0, geom.Vec{}, geom.Vec{1, 0, 0}, 60, 1, 10}
	table := []struct {
		keys []Frame
		step float64
	}{
		{[]Frame{good}, 1},
		{[]Frame{good, {1, geom.Vec{}, geom.Vec{1, 0, 0}, 60, 1, 10}}, 0},
		{[]Frame{good, {1, geom.Vec{}, geom.Vec{1, 0, 0}, 60, 1, 10}}, -1},
		{[]Frame{good, {1, geom.Vec{}, geom.Vec{-2, 0, 0}, 60, 1, 10}}, 1},
		{[]Frame{good, {1, geom.Vec{}, geom.Vec{}, 60, 1, 10}}, 1},
		{[]Frame{good, {0, geom.Vec{}, geom.Vec{1, 0, 0}, 60, 1, 10}}, 1},
		{[]Frame{{1, geom.Vec{}, geom.Vec{1, 0, 0}, 60, 1, 10}, good}, 1},
	}

	for i, test := range table {
		_, err := Interpolate(test.keys, test.step)
		assert.Error(t, err, "%d)", i)
	}
}

func TestFovName(t *testing.T) {
	assert.Equal(t, "out/path_fov.png", fovName("out/path.png"))
	assert.Equal(t, "path_fov", fovName("path"))
}

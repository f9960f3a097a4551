package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCross(t *testing.T) {
	table := []struct {
		v, u, cross Vec
	}{
		{Vec{1, 0, 0}, Vec{0, 1, 0}, Vec{0, 0, 1}},
		{Vec{0, 1, 0}, Vec{0, 0, 1}, Vec{1, 0, 0}},
		{Vec{0, 0, 1}, Vec{1, 0, 0}, Vec{0, 1, 0}},
		{Vec{0, 1, 0}, Vec{1, 0, 0}, Vec{0, 0, -1}},
		{Vec{2, 0, 0}, Vec{4, 0, 0}, Vec{0, 0, 0}},
	}

	for i, test := range table {
		assert.Equal(t, test.cross, test.v.Cross(test.u), "%d)", i)
	}
}

func TestNormalize(t *testing.T) {
	u, ok := Vec{3, 0, 4}.Normalize()
	assert.True(t, ok)
	assert.InDelta(t, 1.0, u.Norm(), 1e-12)
	assert.InDelta(t, 0.6, u[0], 1e-12)
	assert.InDelta(t, 0.8, u[2], 1e-12)

	_, ok = Vec{}.Normalize()
	assert.False(t, ok)
	_, ok = Vec{math.NaN(), 0, 0}.Normalize()
	assert.False(t, ok)
}

func TestRotate(t *testing.T) {
	v := Vec{1, 0, 0}.Rotate(Vec{0, 0, 1}, math.Pi/2)
	assert.InDelta(t, 0.0, v[0], 1e-12)
	assert.InDelta(t, 1.0, v[1], 1e-12)
	assert.InDelta(t, 0.0, v[2], 1e-12)

	// Components along the axis are untouched.
	v = Vec{1, 2, 3}.Rotate(Vec{0, 0, 1}, 1.234)
	assert.InDelta(t, 3.0, v[2], 1e-12)
	assert.InDelta(t, math.Sqrt(14), v.Norm(), 1e-12)
}

func TestIsFinite(t *testing.T) {
	assert.True(t, Vec{1, 2, 3}.IsFinite())
	assert.False(t, Vec{1, math.Inf(1), 3}.IsFinite())
	assert.False(t, Vec{math.NaN(), 2, 3}.IsFinite())
}

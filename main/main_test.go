package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerThreads(t *testing.T) {
	table := []struct {
		threads, workers, exp int
	}{
		{8, 1, 8},
		{8, 2, 4},
		{8, 3, 2},
		{8, 8, 1},
		{4, 16, 1},
		{1, 4, 1},
	}

	for i, test := range table {
		assert.Equal(t, test.exp, workerThreads(test.threads, test.workers),
			"%d) threads = %d, workers = %d", i, test.threads, test.workers)
	}
}

func TestGetModeName(t *testing.T) {
	a, b, c := "", "", ""
	vars := map[string]*string{"Render": &a, "Interpolate": &b, "ExampleConfig": &c}

	_, err := getModeName(vars)
	assert.Error(t, err)

	a = "render.config"
	name, err := getModeName(vars)
	assert.NoError(t, err)
	assert.Equal(t, "Render", name)

	b = "interpolate.config"
	_, err = getModeName(vars)
	assert.Error(t, err)
}

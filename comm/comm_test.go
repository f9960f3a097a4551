package comm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	for n := 0; n <= 50; n++ {
		for w := 1; w <= 9; w++ {
			maxLen := (n + w - 1) / w
			next := 0
			for r := 0; r < w; r++ {
				start, end := Partition(n, w, r)
				assert.Equal(t, next, start, "n = %d, w = %d, r = %d", n, w, r)
				assert.True(t, end >= start)
				assert.True(t, end-start <= maxLen,
					"n = %d, w = %d, r = %d: length %d", n, w, r, end-start)
				assert.True(t, end-start >= n/w)
				next = end
			}
			assert.Equal(t, n, next, "n = %d, w = %d", n, w)
		}
	}
}

func TestPartitionExamples(t *testing.T) {
	table := []struct {
		n, w, r    int
		start, end int
	}{
		{10, 3, 0, 0, 4},
		{10, 3, 1, 4, 7},
		{10, 3, 2, 7, 10},
		{2, 4, 3, 2, 2},
		{0, 1, 0, 0, 0},
	}
	for i, test := range table {
		start, end := Partition(test.n, test.w, test.r)
		assert.Equal(t, test.start, start, "%d)", i)
		assert.Equal(t, test.end, end, "%d)", i)
	}

	assert.Panics(t, func() { Partition(10, 0, 0) })
	assert.Panics(t, func() { Partition(10, 2, 2) })
}

// runGroup calls f once per communicator, each on its own goroutine.
func runGroup(comms []Communicator, f func(c Communicator) error) []error {
	errs := make([]error, len(comms))
	wg := sync.WaitGroup{}
	for i := range comms {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f(comms[i])
		}(i)
	}
	wg.Wait()
	return errs
}

func contribution(rank, n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(rank*100 + i)
	}
	return vals
}

func expectedSum(size, n int) []float64 {
	vals := make([]float64, n)
	for r := 0; r < size; r++ {
		for i, v := range contribution(r, n) {
			vals[i] += v
		}
	}
	return vals
}

func testReduce(t *testing.T, comms []Communicator, root int) {
	shape := [2]int{3, 4}
	results := make([][]float64, len(comms))
	errs := runGroup(comms, func(c Communicator) error {
		for frame := 0; frame < 3; frame++ {
			if err := c.Barrier(context.Background()); err != nil {
				return err
			}
			out, err := c.ReduceSum(context.Background(), shape,
				contribution(c.Rank(), 12), root)
			if err != nil {
				return err
			}
			results[c.Rank()] = out
		}
		return nil
	})

	for r := range comms {
		require.NoError(t, errs[r], "rank %d", r)
		if r == root {
			assert.Equal(t, expectedSum(len(comms), 12), results[r])
		} else {
			assert.Nil(t, results[r], "rank %d", r)
		}
	}
}

func TestLocalReduce(t *testing.T) {
	for _, size := range []int{1, 2, 4, 7} {
		testReduce(t, NewLocalGroup(size), 0)
	}
	testReduce(t, NewLocalGroup(4), 2)
}

func TestLocalBarrier(t *testing.T) {
	comms := NewLocalGroup(5)
	mu := sync.Mutex{}
	arrived := 0

	errs := runGroup(comms, func(c Communicator) error {
		mu.Lock()
		arrived++
		mu.Unlock()

		if err := c.Barrier(context.Background()); err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		if arrived != 5 {
			return errors.New("left barrier early")
		}
		return nil
	})
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestLocalShapeMismatch(t *testing.T) {
	comms := NewLocalGroup(3)
	errs := runGroup(comms, func(c Communicator) error {
		shape := [2]int{2, 2}
		if c.Rank() == 2 {
			shape = [2]int{4, 1}
		}
		_, err := c.ReduceSum(context.Background(), shape,
			make([]float64, 4), 0)
		return err
	})
	for r, err := range errs {
		assert.True(t, errors.Is(err, ErrShapeMismatch), "rank %d: %v", r, err)
	}

	comms = NewLocalGroup(2)
	errs = runGroup(comms, func(c Communicator) error {
		_, err := c.ReduceSum(context.Background(), [2]int{2, 2},
			make([]float64, 3), 0)
		return err
	})
	for r, err := range errs {
		assert.True(t, errors.Is(err, ErrShapeMismatch), "rank %d: %v", r, err)
	}
}

func TestLocalCancel(t *testing.T) {
	comms := NewLocalGroup(3)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Rank 2 never arrives.
	errs := runGroup(comms[:2], func(c Communicator) error {
		return c.Barrier(ctx)
	})
	for _, err := range errs {
		assert.Error(t, err)
	}

	// The group stays aborted.
	err := comms[2].Barrier(context.Background())
	assert.True(t, errors.Is(err, ErrClosed))
	_, err = comms[2].ReduceSum(context.Background(), [2]int{1, 1},
		[]float64{1}, 0)
	assert.True(t, errors.Is(err, ErrClosed))
}

func tcpGroup(t *testing.T, size int) []Communicator {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	root, err := ListenTCP("127.0.0.1:0", size)
	require.NoError(t, err)

	comms := make([]Communicator, size)
	comms[0] = root
	errs := make([]error, size)
	wg := sync.WaitGroup{}
	for r := 1; r < size; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			c, err := DialTCP(ctx, root.Addr(), r, size)
			errs[r] = err
			if err == nil {
				comms[r] = c
			}
		}(r)
	}
	require.NoError(t, root.Accept(ctx))
	wg.Wait()
	for r := range errs {
		require.NoError(t, errs[r], "rank %d", r)
	}

	t.Cleanup(func() {
		for _, c := range comms {
			c.(*TCP).Close()
		}
	})
	return comms
}

func TestTCPReduce(t *testing.T) {
	for _, size := range []int{1, 2, 4} {
		testReduce(t, tcpGroup(t, size), 0)
	}
}

func TestTCPMatchesLocal(t *testing.T) {
	shape := [2]int{2, 3}
	vals := func(rank int) []float64 {
		return []float64{0.1 * float64(rank), 1e-17, 3.3, -2.2, 1e16, 0.7}
	}

	reduce := func(comms []Communicator) []float64 {
		var out []float64
		errs := runGroup(comms, func(c Communicator) error {
			res, err := c.ReduceSum(context.Background(), shape,
				vals(c.Rank()), 0)
			if c.Rank() == 0 {
				out = res
			}
			return err
		})
		for _, err := range errs {
			require.NoError(t, err)
		}
		return out
	}

	assert.Equal(t, reduce(NewLocalGroup(4)), reduce(tcpGroup(t, 4)))
}

func TestTCPShapeMismatch(t *testing.T) {
	comms := tcpGroup(t, 3)
	errs := runGroup(comms, func(c Communicator) error {
		shape := [2]int{2, 2}
		if c.Rank() == 1 {
			shape = [2]int{1, 4}
		}
		_, err := c.ReduceSum(context.Background(), shape,
			make([]float64, 4), 0)
		return err
	})
	for r, err := range errs {
		assert.True(t, errors.Is(err, ErrShapeMismatch), "rank %d: %v", r, err)
	}
}

func TestTCPRootOnly(t *testing.T) {
	comms := tcpGroup(t, 1)
	_, err := comms[0].ReduceSum(context.Background(), [2]int{1, 1},
		[]float64{1}, 1)
	assert.Error(t, err)
}

func TestTCPCancel(t *testing.T) {
	comms := tcpGroup(t, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := comms[0].Barrier(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "%v", err)
}

func TestTCPLargeGrid(t *testing.T) {
	comms := tcpGroup(t, 2)
	shape := [2]int{1024, 1024}

	var out []float64
	errs := runGroup(comms, func(c Communicator) error {
		vals := make([]float64, shape[0]*shape[1])
		for i := range vals {
			vals[i] = float64(c.Rank() + 1)
		}
		res, err := c.ReduceSum(context.Background(), shape, vals, 0)
		if c.Rank() == 0 {
			out = res
		}
		return err
	})
	for r, err := range errs {
		require.NoError(t, err, "rank %d", r)
	}
	require.Len(t, out, shape[0]*shape[1])
	assert.Equal(t, 3.0, out[0])
	assert.Equal(t, 3.0, out[len(out)-1])
}

func TestTCPRootClose(t *testing.T) {
	comms := tcpGroup(t, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- comms[1].Barrier(ctx) }()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, comms[0].(*TCP).Close())

	err := <-errc
	assert.True(t, errors.Is(err, ErrClosed), "%v", err)
	assert.True(t, errors.Is(comms[0].Barrier(ctx), ErrClosed))
}

func TestTCPJoinWrongSize(t *testing.T) {
	root, err := ListenTCP("127.0.0.1:0", 2)
	require.NoError(t, err)
	defer root.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = DialTCP(ctx, root.Addr(), 1, 3)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, context.DeadlineExceeded))

	short, cancelShort := context.WithTimeout(context.Background(),
		50*time.Millisecond)
	defer cancelShort()
	assert.Error(t, root.Accept(short))
}

func TestFromEnv(t *testing.T) {
	t.Setenv(RankEnv, "2")
	t.Setenv(SizeEnv, "4")
	t.Setenv(AddressEnv, "localhost:7000")

	env, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, &Env{Rank: 2, Size: 4, Address: "localhost:7000"}, env)

	t.Setenv(RankEnv, "4")
	_, err = FromEnv()
	assert.Error(t, err)

	t.Setenv(RankEnv, "x")
	_, err = FromEnv()
	assert.Error(t, err)

	t.Setenv(RankEnv, "1")
	t.Setenv(AddressEnv, "")
	_, err = FromEnv()
	assert.Error(t, err)
}

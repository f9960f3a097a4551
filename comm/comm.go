/*package comm implements the collective operations which synchronize SPMD
rendering workers: a barrier and an elementwise sum-reduction of grids onto a
root worker.

Two transports are provided. NewLocalGroup connects goroutines within a single
process and ListenTCP/DialTCP connect separate processes through gRPC calls
served by rank 0.
*/
package comm

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned by ReduceSum when the workers do not all
	// contribute grids with the root's shape.
	ErrShapeMismatch = errors.New("comm: grid shape mismatch")
	// ErrClosed is returned by collectives on a closed or aborted
	// communicator.
	ErrClosed = errors.New("comm: communicator closed")
)

// Communicator is one worker's handle on a group of Size() workers.
// Collectives must be called by every worker in the group in the same order.
type Communicator interface {
	// Rank returns this worker's index in [0, Size()).
	Rank() int
	// Size returns the number of workers in the group.
	Size() int
	// Barrier blocks until every worker has called it.
	Barrier(ctx context.Context) error
	// ReduceSum sums vals elementwise over all workers. The root receives
	// the sum, accumulated in rank order, and every other worker receives
	// nil. No worker returns before the root has finished combining. vals
	// must hold shape[0]*shape[1] values.
	ReduceSum(
		ctx context.Context, shape [2]int, vals []float64, root int,
	) ([]float64, error)
}

// Partition returns the half-open range [start, end) of items owned by rank
// when n items are split among workers. The first n % workers ranks own one
// extra item, so no range is longer than ceil(n / workers).
func Partition(n, workers, rank int) (start, end int) {
	if workers <= 0 {
		panic(fmt.Sprintf("Partition over %d workers.", workers))
	} else if rank < 0 || rank >= workers {
		panic(fmt.Sprintf("Rank %d is not in [0, %d).", rank, workers))
	} else if n < 0 {
		panic(fmt.Sprintf("Partition of %d items.", n))
	}

	base, rem := n/workers, n%workers
	start = rank*base + minInt(rank, rem)
	end = start + base
	if rank < rem {
		end++
	}
	return start, end
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// checkShape returns an ErrShapeMismatch if vals cannot hold a grid of the
// given shape.
func checkShape(shape [2]int, vals []float64) error {
	if shape[0] < 0 || shape[1] < 0 || shape[0]*shape[1] != len(vals) {
		return fmt.Errorf("%w: shape %v with %d values",
			ErrShapeMismatch, shape, len(vals))
	}
	return nil
}

// sumInOrder adds contributions elementwise in slice order.
func sumInOrder(n int, contribs [][]float64) []float64 {
	out := make([]float64, n)
	for _, vals := range contribs {
		for i, v := range vals {
			out[i] += v
		}
	}
	return out
}

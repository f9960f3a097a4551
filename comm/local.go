package comm

import (
	"context"
	"fmt"
	"sync"
)

// localGroup is the state shared by the members of a local group.
type localGroup struct {
	size int

	mu sync.Mutex

	// Barrier state. gen is closed and replaced when the last worker
	// arrives.
	waiting int
	gen     chan struct{}

	// The reduction currently collecting contributions, if any.
	red *reduction

	// aborted is closed when any member gives up on a collective, which
	// releases every other member.
	aborted   chan struct{}
	abortOnce sync.Once
}

type reduction struct {
	root     int
	shapes   [][2]int
	contribs [][]float64
	arrived  int

	done   chan struct{}
	result []float64
	err    error
}

type local struct {
	rank  int
	group *localGroup
}

// NewLocalGroup returns the communicators for a group of size goroutine
// workers sharing memory. Element i has rank i.
func NewLocalGroup(size int) []Communicator {
	if size <= 0 {
		panic(fmt.Sprintf("Local group of size %d.", size))
	}

	g := &localGroup{
		size:    size,
		gen:     make(chan struct{}),
		aborted: make(chan struct{}),
	}
	comms := make([]Communicator, size)
	for i := range comms {
		comms[i] = &local{rank: i, group: g}
	}
	return comms
}

func (c *local) Rank() int { return c.rank }
func (c *local) Size() int { return c.group.size }

func (g *localGroup) abort() {
	g.abortOnce.Do(func() { close(g.aborted) })
}

// wait blocks until ch is closed. If ctx ends first, the whole group is
// aborted, since the collective can no longer complete.
func (g *localGroup) wait(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-g.aborted:
		return ErrClosed
	case <-ctx.Done():
		g.abort()
		return ctx.Err()
	}
}

func (c *local) Barrier(ctx context.Context) error {
	g := c.group

	g.mu.Lock()
	select {
	case <-g.aborted:
		g.mu.Unlock()
		return ErrClosed
	default:
	}

	ch := g.gen
	g.waiting++
	if g.waiting == g.size {
		g.waiting = 0
		g.gen = make(chan struct{})
		close(ch)
	}
	g.mu.Unlock()

	return g.wait(ctx, ch)
}

func (c *local) ReduceSum(
	ctx context.Context, shape [2]int, vals []float64, root int,
) ([]float64, error) {
	g := c.group
	if root < 0 || root >= g.size {
		return nil, fmt.Errorf("comm: root %d is not in [0, %d)", root, g.size)
	}

	g.mu.Lock()
	select {
	case <-g.aborted:
		g.mu.Unlock()
		return nil, ErrClosed
	default:
	}

	if g.red == nil {
		g.red = &reduction{
			root:     root,
			shapes:   make([][2]int, g.size),
			contribs: make([][]float64, g.size),
			done:     make(chan struct{}),
		}
	}
	red := g.red
	red.shapes[c.rank] = shape
	red.contribs[c.rank] = vals
	red.arrived++

	if root != red.root {
		red.err = fmt.Errorf("comm: rank %d reduced onto %d, but root is %d",
			c.rank, root, red.root)
	}

	if red.arrived == g.size {
		g.red = nil
		red.combine()
		close(red.done)
	}
	g.mu.Unlock()

	if err := g.wait(ctx, red.done); err != nil {
		return nil, err
	}
	if red.err != nil {
		return nil, red.err
	}
	if c.rank == root {
		return red.result, nil
	}
	return nil, nil
}

// combine checks every contribution against the root's shape and sums them
// in rank order.
func (red *reduction) combine() {
	if red.err != nil {
		return
	}

	shape := red.shapes[red.root]
	for rank := range red.contribs {
		if red.shapes[rank] != shape {
			red.err = fmt.Errorf("%w: rank %d sent %v, root has %v",
				ErrShapeMismatch, rank, red.shapes[rank], shape)
			return
		}
		if err := checkShape(shape, red.contribs[rank]); err != nil {
			red.err = fmt.Errorf("rank %d: %w", rank, err)
			return
		}
	}

	red.result = sumInOrder(shape[0]*shape[1], red.contribs)
	red.contribs = nil
}

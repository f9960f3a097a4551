/*package render turns particle sets into images. A Manager runs on each of
a group of SPMD workers: it renders its share of the particles for each frame
and combines the partial grids onto rank 0, which saves them.
*/
package render

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/phil-mansfield/unirender/camera"
	"github.com/phil-mansfield/unirender/comm"
	"github.com/phil-mansfield/unirender/frames"
	"github.com/phil-mansfield/unirender/particle"
)

// RootRank is the worker which receives reduced grids and saves them.
const RootRank = 0

// State is the stage a Manager has reached.
type State int

const (
	Initialized State = iota
	PartitionAssigned
	Rendering
	Synchronizing
	Reduced
	Done
)

var stateNames = []string{
	"Initialized", "PartitionAssigned", "Rendering",
	"Synchronizing", "Reduced", "Done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Sink receives the combined grid of each frame on the root worker.
type Sink interface {
	Save(g *Grid, name string) error
}

// FrameStats summarizes how a worker's particles fared in one frame.
type FrameStats struct {
	// Visible is the number of particles which were splatted.
	Visible int
	// Degenerate is the number of particles dropped because they lie in
	// the camera plane.
	Degenerate int
}

// Manager renders one worker's partition of a particle set.
type Manager struct {
	con    Config
	comm   comm.Communicator
	ps     *particle.Set
	start  int
	canvas Canvas
	splat  *Splatter

	mu    sync.Mutex
	state State
}

// NewManager validates its inputs and assigns c's partition of ps to the
// new Manager. ps is shared, not copied.
func NewManager(
	ps *particle.Set, c comm.Communicator, con *Config,
) (*Manager, error) {
	if err := con.Validate(); err != nil {
		return nil, err
	}
	if err := ps.Validate(); err != nil {
		return nil, err
	}

	man := &Manager{
		con: *con, comm: c,
		canvas: con.Canvas(), splat: con.Splatter(),
		state: Initialized,
	}

	start, end := comm.Partition(ps.Len(), c.Size(), c.Rank())
	man.ps, man.start = ps.Slice(start, end), start
	man.setState(PartitionAssigned)

	return man, nil
}

// State returns the Manager's current stage.
func (man *Manager) State() State {
	man.mu.Lock()
	defer man.mu.Unlock()
	return man.state
}

func (man *Manager) setState(s State) {
	man.mu.Lock()
	man.state = s
	man.mu.Unlock()
}

// Partition returns the range of particle indices owned by this worker.
func (man *Manager) Partition() (start, end int) {
	return man.start, man.start + man.ps.Len()
}

// RenderFrame renders this worker's particles as seen from fr into a new
// grid.
func (man *Manager) RenderFrame(fr frames.Frame) (*Grid, *FrameStats, error) {
	man.setState(Rendering)

	cam, err := fr.Camera(man.con.Up)
	if err != nil {
		return nil, nil, err
	}

	ax, ay := camera.Aspect(man.con.PixelsX, man.con.PixelsY)
	m, err := cam.ProjectAndMask(man.ps.Qty, man.ps.Size, man.ps.Pos, ax, ay)
	if err != nil {
		return nil, nil, err
	}
	man.canvas.Remap(m.Size, m.XY)

	g := NewGrid(man.con.PixelsX, man.con.PixelsY)
	if err := man.splat.Accumulate(m.Qty, m.Size, m.XY, g); err != nil {
		return nil, nil, err
	}

	return g, &FrameStats{Visible: m.Len(), Degenerate: m.Degenerate}, nil
}

// Run renders every frame in order. Each frame's grids are summed onto the
// root, which saves the result under the name prefix_%04d. Every worker in
// the group must call Run with the same frames. sink is only used on the
// root and may be nil elsewhere.
func (man *Manager) Run(
	ctx context.Context, frs []frames.Frame, sink Sink, prefix string,
) error {
	rank := man.comm.Rank()
	for i := range frs {
		g, stats, err := man.RenderFrame(frs[i])
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if stats.Degenerate > 0 {
			log.Printf(
				"Worker %d dropped %d particles in the camera plane "+
					"of frame %d.", rank, stats.Degenerate, i,
			)
		}

		man.setState(Synchronizing)
		if err := man.comm.Barrier(ctx); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		sum, err := man.comm.ReduceSum(ctx, g.Shape(), g.Vals, RootRank)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		man.setState(Reduced)

		if rank == RootRank {
			total := &Grid{NX: g.NX, NY: g.NY, Vals: sum}
			name := FrameName(prefix, i)
			if sink != nil {
				if err := sink.Save(total, name); err != nil {
					return fmt.Errorf("frame %d: %w", i, err)
				}
			}
			log.Printf("Rendered frame %d/%d (%s)", i+1, len(frs), name)
		}
	}

	man.setState(Done)
	return nil
}

// FrameName returns the artifact name of the ith frame.
func FrameName(prefix string, i int) string {
	return fmt.Sprintf("%s_%04d", prefix, i)
}

// RunLocal renders frs with workers goroutines sharing memory. The first
// worker to fail cancels the others and its error is returned.
func RunLocal(
	ctx context.Context, ps *particle.Set, frs []frames.Frame,
	sink Sink, prefix string, con *Config, workers int,
) error {
	if workers <= 0 {
		return fmt.Errorf("render: %d workers requested", workers)
	}

	mans := make([]*Manager, workers)
	comms := comm.NewLocalGroup(workers)
	for r := range mans {
		var err error
		if mans[r], err = NewManager(ps, comms[r], con); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
		wg       sync.WaitGroup
	)
	for r := range mans {
		wg.Add(1)
		go func(man *Manager) {
			defer wg.Done()
			if err := man.Run(ctx, frs, sink, prefix); err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}(mans[r])
	}
	wg.Wait()

	return firstErr
}

package comm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
)

// maxMessage bounds the size of a gob-encoded grid.
const maxMessage = 1 << 30

// DialRetry is the initial delay between attempts to reach the root in
// DialTCP.
var DialRetry = 100 * time.Millisecond

// TCP is a Communicator for workers in separate processes. Rank 0 serves
// the collectives over gRPC and every other rank calls it. Only rank 0 may
// be the root of a reduction.
type TCP struct {
	rank, size int

	// Root only.
	listener net.Listener
	server   *grpc.Server
	coord    *coordinator

	// Workers only.
	conn *grpc.ClientConn

	mu     sync.Mutex
	closed bool
}

// ListenTCP creates the root (rank 0) of a group of size workers listening
// on addr. Accept must be called before any collective.
func ListenTCP(addr string, size int) (*TCP, error) {
	if size <= 0 {
		return nil, fmt.Errorf("comm: group size %d", size)
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	t := &TCP{
		rank: 0, size: size, listener: l,
		server: grpc.NewServer(
			grpc.MaxRecvMsgSize(maxMessage), grpc.MaxSendMsgSize(maxMessage),
		),
		coord: newCoordinator(size),
	}
	t.server.RegisterService(&collectiveDesc, t.coord)
	go t.server.Serve(l)

	return t, nil
}

// Addr returns the address the root is listening on.
func (t *TCP) Addr() string {
	if t.listener == nil {
		return ""
	}
	return t.listener.Addr().String()
}

// Accept waits until every other rank has joined.
func (t *TCP) Accept(ctx context.Context) error {
	if t.coord == nil {
		return fmt.Errorf("comm: rank %d cannot accept connections", t.rank)
	}
	select {
	case <-t.coord.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DialTCP connects rank to the root listening at addr, retrying until the
// root is reachable or ctx ends.
func DialTCP(ctx context.Context, addr string, rank, size int) (*TCP, error) {
	if rank <= 0 || rank >= size {
		return nil, fmt.Errorf("comm: cannot dial as rank %d of %d",
			rank, size)
	}

	bo := backoff.DefaultConfig
	bo.BaseDelay = DialRetry
	bo.MaxDelay = 10 * DialRetry

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff: bo, MinConnectTimeout: 5 * time.Second,
		}),
		grpc.WithDefaultCallOptions(
			grpc.CallContentSubtype(codecName), grpc.WaitForReady(true),
			grpc.MaxCallSendMsgSize(maxMessage),
			grpc.MaxCallRecvMsgSize(maxMessage),
		),
	)
	if err != nil {
		return nil, err
	}

	t := &TCP{rank: rank, size: size, conn: conn}
	err = conn.Invoke(ctx, joinMethod,
		&joinRequest{Rank: rank, Size: size}, &ack{})
	if err != nil {
		conn.Close()
		return nil, fromStatus(ctx, err)
	}
	return t, nil
}

func (t *TCP) Rank() int { return t.rank }
func (t *TCP) Size() int { return t.size }

// Close shuts down t's server or connection. Collectives blocked on the
// root are released with ErrClosed.
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	if t.conn != nil {
		return t.conn.Close()
	}
	t.coord.abort()
	t.server.Stop()
	return nil
}

func (t *TCP) ready() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if t.coord != nil {
		select {
		case <-t.coord.ready:
		default:
			return errors.New("comm: not every rank has joined")
		}
	}
	return nil
}

func (t *TCP) Barrier(ctx context.Context) error {
	if err := t.ready(); err != nil {
		return err
	}
	if t.coord != nil {
		return t.coord.group[0].Barrier(ctx)
	}

	err := t.conn.Invoke(ctx, barrierMethod,
		&barrierRequest{Rank: t.rank}, &ack{})
	if err != nil {
		return fromStatus(ctx, err)
	}
	return nil
}

func (t *TCP) ReduceSum(
	ctx context.Context, shape [2]int, vals []float64, root int,
) ([]float64, error) {
	if root != 0 {
		return nil, fmt.Errorf("comm: TCP reductions must target rank 0, "+
			"not %d", root)
	}
	if err := t.ready(); err != nil {
		return nil, err
	}
	if t.coord != nil {
		return t.coord.group[0].ReduceSum(ctx, shape, vals, 0)
	}

	res := &reduceReply{}
	err := t.conn.Invoke(ctx, reduceMethod,
		&reduceRequest{Rank: t.rank, Shape: shape, Vals: vals}, res)
	if err != nil {
		return nil, fromStatus(ctx, err)
	}
	if res.Mismatch {
		return nil, fmt.Errorf("%w: %s", ErrShapeMismatch, res.Err)
	} else if res.Err != "" {
		return nil, errors.New(res.Err)
	}
	return nil, nil
}

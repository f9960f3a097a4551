package comm

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

// gobCodec carries the collective messages as gob payloads.
type gobCodec struct{}

const codecName = "gob"

func (gobCodec) Name() string { return codecName }

func (gobCodec) Marshal(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := gob.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func init() {
	encoding.RegisterCodec(gobCodec{})
}

type joinRequest struct {
	Rank, Size int
}

type barrierRequest struct {
	Rank int
}

type reduceRequest struct {
	Rank  int
	Shape [2]int
	Vals  []float64
}

// ack is the reply to joins and barriers. gob cannot send structs without
// exported fields.
type ack struct {
	Rank int
}

type reduceReply struct {
	Mismatch bool
	Err      string
}

const (
	serviceName   = "unirender.Collective"
	joinMethod    = "/" + serviceName + "/Join"
	barrierMethod = "/" + serviceName + "/Barrier"
	reduceMethod  = "/" + serviceName + "/Reduce"
)

// collectiveServer is served by rank 0.
type collectiveServer interface {
	Join(ctx context.Context, in *joinRequest) (*ack, error)
	Barrier(ctx context.Context, in *barrierRequest) (*ack, error)
	Reduce(ctx context.Context, in *reduceRequest) (*reduceReply, error)
}

var collectiveDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*collectiveServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Join", Handler: joinHandler},
		{MethodName: "Barrier", Handler: barrierHandler},
		{MethodName: "Reduce", Handler: reduceHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func joinHandler(
	srv any, ctx context.Context, dec func(any) error,
	_ grpc.UnaryServerInterceptor,
) (any, error) {
	in := &joinRequest{}
	if err := dec(in); err != nil {
		return nil, err
	}
	return srv.(collectiveServer).Join(ctx, in)
}

func barrierHandler(
	srv any, ctx context.Context, dec func(any) error,
	_ grpc.UnaryServerInterceptor,
) (any, error) {
	in := &barrierRequest{}
	if err := dec(in); err != nil {
		return nil, err
	}
	return srv.(collectiveServer).Barrier(ctx, in)
}

func reduceHandler(
	srv any, ctx context.Context, dec func(any) error,
	_ grpc.UnaryServerInterceptor,
) (any, error) {
	in := &reduceRequest{}
	if err := dec(in); err != nil {
		return nil, err
	}
	return srv.(collectiveServer).Reduce(ctx, in)
}

// coordinator runs the collectives on rank 0. Rank r's requests are
// executed by member r of a local group, so remote workers block exactly
// like goroutine workers would.
type coordinator struct {
	group []Communicator

	mu     sync.Mutex
	joined []bool
	left   int
	ready  chan struct{}
}

func newCoordinator(size int) *coordinator {
	c := &coordinator{
		group:  NewLocalGroup(size),
		joined: make([]bool, size),
		left:   size - 1,
		ready:  make(chan struct{}),
	}
	if c.left == 0 {
		close(c.ready)
	}
	return c
}

func (c *coordinator) abort() {
	c.group[0].(*local).group.abort()
}

func (c *coordinator) checkRank(rank int) error {
	if rank <= 0 || rank >= len(c.group) {
		return status.Errorf(codes.InvalidArgument,
			"rank %d is not in [1, %d)", rank, len(c.group))
	}
	return nil
}

func (c *coordinator) Join(ctx context.Context, in *joinRequest) (*ack, error) {
	if in.Size != len(c.group) {
		return nil, status.Errorf(codes.InvalidArgument,
			"rank %d expects a group of %d, not %d",
			in.Rank, in.Size, len(c.group))
	}
	if err := c.checkRank(in.Rank); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if !c.joined[in.Rank] {
		c.joined[in.Rank] = true
		c.left--
		if c.left == 0 {
			close(c.ready)
		}
	}
	c.mu.Unlock()

	return &ack{Rank: 0}, nil
}

func (c *coordinator) Barrier(
	ctx context.Context, in *barrierRequest,
) (*ack, error) {
	if err := c.checkRank(in.Rank); err != nil {
		return nil, err
	}
	if err := c.group[in.Rank].Barrier(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &ack{Rank: 0}, nil
}

func (c *coordinator) Reduce(
	ctx context.Context, in *reduceRequest,
) (*reduceReply, error) {
	if err := c.checkRank(in.Rank); err != nil {
		return nil, err
	}
	_, err := c.group[in.Rank].ReduceSum(ctx, in.Shape, in.Vals, 0)
	switch {
	case err == nil:
		return &reduceReply{}, nil
	case ctx.Err() != nil || errors.Is(err, ErrClosed):
		return nil, toStatus(err)
	default:
		return &reduceReply{
			Mismatch: errors.Is(err, ErrShapeMismatch), Err: err.Error(),
		}, nil
	}
}

// toStatus converts a local collective error into a gRPC status.
func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrClosed):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// fromStatus converts the error of a failed call back into the errors
// returned by local collectives.
func fromStatus(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	switch status.Code(err) {
	case codes.Aborted, codes.Unavailable:
		return fmt.Errorf("%w: %s", ErrClosed, status.Convert(err).Message())
	}
	return err
}

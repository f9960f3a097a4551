package comm

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// Environment variables read by FromEnv.
const (
	RankEnv    = "UNIRENDER_RANK"
	SizeEnv    = "UNIRENDER_SIZE"
	AddressEnv = "UNIRENDER_ADDRESS"
)

// Env describes this process's place in a multi-process group.
type Env struct {
	Rank, Size int
	Address    string
}

// FromEnv reads the group layout from $UNIRENDER_RANK, $UNIRENDER_SIZE and
// $UNIRENDER_ADDRESS.
func FromEnv() (*Env, error) {
	rank, err := intEnv(RankEnv)
	if err != nil {
		return nil, err
	}
	size, err := intEnv(SizeEnv)
	if err != nil {
		return nil, err
	}
	addr := os.Getenv(AddressEnv)
	if addr == "" {
		return nil, fmt.Errorf("%s not set.", AddressEnv)
	}

	if size <= 0 {
		return nil, fmt.Errorf("%s = %d is not positive.", SizeEnv, size)
	} else if rank < 0 || rank >= size {
		return nil, fmt.Errorf("%s = %d is not in [0, %d).", RankEnv, rank, size)
	}
	return &Env{Rank: rank, Size: size, Address: addr}, nil
}

func intEnv(name string) (int, error) {
	str := os.Getenv(name)
	if str == "" {
		return 0, fmt.Errorf("%s not set.", name)
	}
	n, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("%s = '%s' is not an integer.", name, str)
	}
	return n, nil
}

// Connect joins the group described by env: rank 0 listens and waits for
// the other ranks, which dial it.
func Connect(ctx context.Context, env *Env) (*TCP, error) {
	if env.Rank != 0 {
		return DialTCP(ctx, env.Address, env.Rank, env.Size)
	}

	t, err := ListenTCP(env.Address, env.Size)
	if err != nil {
		return nil, err
	}
	if err := t.Accept(ctx); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

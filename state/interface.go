package state

import "context"

// Backend is where committed state lives between events.
type Backend interface {
	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Commit applies all deltas atomically: either every delta is visible
	// afterwards or none is.
	Commit(ctx context.Context, deltas []StateDelta) error
}

// Iterable backends can enumerate a table in key order.
type Iterable interface {
	ForEach(ctx context.Context, table string, f func(key string, value []byte) error) error
}

type Reader interface {
	GetFirst(key string) (Value, bool)
	GetLast(key string) (Value, bool)
	GetAt(ord uint64, key string) (Value, bool)
}

type Writer interface {
	Set(ctx context.Context, ord uint64, key string, value []byte) error
	Del(ctx context.Context, ord uint64, key string) error
}

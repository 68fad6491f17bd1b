package subscription

import (
	"context"

	"github.com/streamingfast/algebra-analytics/state"
)

const defaultBufferSize = 100

type Subscriber struct {
	input chan state.StateDelta
}

func NewSubscriber() *Subscriber {
	return NewBufferedSubscriber(defaultBufferSize)
}

func NewBufferedSubscriber(size int) *Subscriber {
	return &Subscriber{
		input: make(chan state.StateDelta, size),
	}
}

// Next blocks until a delta is available or ctx is done.
func (s *Subscriber) Next(ctx context.Context) (*state.StateDelta, error) {
	select {
	case next := <-s.input:
		return &next, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Pending is the number of buffered deltas.
func (s *Subscriber) Pending() int {
	return len(s.input)
}

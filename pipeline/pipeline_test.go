package pipeline

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/streamingfast/algebra-analytics/exchange"
	"github.com/streamingfast/algebra-analytics/state"
	"github.com/streamingfast/eth-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPool = "0x0000000000000000000000000000000000000100"

type sliceSource struct {
	events []exchange.Event
}

func (s *sliceSource) Next() (exchange.Event, error) {
	if len(s.events) == 0 {
		return nil, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

type recordingSink struct {
	batches [][]state.StateDelta
	err     error
}

func (s *recordingSink) Publish(_ context.Context, deltas []state.StateDelta) error {
	s.batches = append(s.batches, deltas)
	return s.err
}

func address(in string) eth.Address {
	return eth.Address(common.HexToAddress(in).Bytes())
}

func poolCreated(config *exchange.Config, block uint64) *exchange.PoolCreated {
	return &exchange.PoolCreated{
		EventMeta: exchange.TestMeta(block, 0, config.FactoryAddress),
		Token0:    address(config.StableCoins[0]),
		Token1:    address(config.ReferenceToken),
		Pool:      address(testPool),
	}
}

func fee(block, logIndex uint64, value int64) *exchange.Fee {
	return &exchange.Fee{EventMeta: exchange.TestMeta(block, logIndex, testPool), Fee: value}
}

func TestPipeline_Run(t *testing.T) {
	config := exchange.NewTestConfig()
	subgraph := exchange.NewTestSubgraph(t, config)
	sink := &recordingSink{}

	p := New(subgraph, WithSinks(sink), WithProgressInterval(1))
	err := p.Run(context.Background(), &sliceSource{events: []exchange.Event{
		poolCreated(config, 1),
		fee(2, 0, 500),
		fee(2, 1, 600),
	}})
	require.NoError(t, err)

	events, deltas := p.Stats()
	assert.Equal(t, uint64(3), events)
	require.Len(t, sink.batches, 3)
	assert.NotEmpty(t, sink.batches[0])
	assert.Equal(t, uint64(len(sink.batches[0])+len(sink.batches[1])+len(sink.batches[2])), deltas)

	block, logIndex := p.LastPosition()
	assert.Equal(t, uint64(2), block)
	assert.Equal(t, uint64(1), logIndex)
}

func TestPipeline_OutOfOrder(t *testing.T) {
	tests := []struct {
		name   string
		second exchange.Event
	}{
		{"same position", fee(2, 3, 1)},
		{"lower log index", fee(2, 1, 1)},
		{"lower block", fee(1, 7, 1)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := exchange.NewTestConfig()
			subgraph := exchange.NewTestSubgraph(t, config)
			sink := &recordingSink{}

			p := New(subgraph, WithSinks(sink))
			err := p.Run(context.Background(), &sliceSource{events: []exchange.Event{
				poolCreated(config, 1),
				fee(2, 3, 500),
				test.second,
			}})
			require.ErrorIs(t, err, ErrOutOfOrder)
			assert.Len(t, sink.batches, 2)
		})
	}
}

func TestPipeline_StopBlock(t *testing.T) {
	config := exchange.NewTestConfig()
	subgraph := exchange.NewTestSubgraph(t, config)
	sink := &recordingSink{}

	p := New(subgraph, WithSinks(sink), WithStopBlock(3))
	err := p.Run(context.Background(), &sliceSource{events: []exchange.Event{
		poolCreated(config, 1),
		fee(2, 0, 500),
		fee(3, 0, 600),
		fee(4, 0, 700),
	}})
	require.NoError(t, err)

	events, _ := p.Stats()
	assert.Equal(t, uint64(2), events)
	assert.Len(t, sink.batches, 2)
}

func TestPipeline_CanceledContext(t *testing.T) {
	config := exchange.NewTestConfig()
	p := New(exchange.NewTestSubgraph(t, config))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx, &sliceSource{events: []exchange.Event{poolCreated(config, 1)}})
	assert.ErrorIs(t, err, context.Canceled)
	events, _ := p.Stats()
	assert.Zero(t, events)
}

func TestPipeline_Errors(t *testing.T) {
	config := exchange.NewTestConfig()

	t.Run("sink failure", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("broker down")}
		p := New(exchange.NewTestSubgraph(t, config), WithSinks(sink))

		err := p.Run(context.Background(), &sliceSource{events: []exchange.Event{poolCreated(config, 1)}})
		assert.EqualError(t, err, "publishing deltas of block 1 log 0: broker down")
	})

	t.Run("fatal event", func(t *testing.T) {
		p := New(exchange.NewTestSubgraph(t, config))

		burn := &exchange.Burn{
			EventMeta:       exchange.TestMeta(2, 0, testPool),
			Owner:           address(config.PositionManagerAddress),
			BottomTick:      -10,
			TopTick:         10,
			LiquidityAmount: big.NewInt(1),
			Amount0:         big.NewInt(1),
			Amount1:         big.NewInt(1),
		}
		err := p.Run(context.Background(), &sliceSource{events: []exchange.Event{poolCreated(config, 1), burn}})
		assert.ErrorIs(t, err, exchange.ErrMissingEntity)
	})

	t.Run("source failure", func(t *testing.T) {
		p := New(exchange.NewTestSubgraph(t, config))
		err := p.Run(context.Background(), failingSource{})
		assert.EqualError(t, err, "reading event: line 1: bad json")
	})
}

type failingSource struct{}

func (failingSource) Next() (exchange.Event, error) {
	return nil, errors.New("line 1: bad json")
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/streamingfast/algebra-analytics/exchange"
	"github.com/streamingfast/algebra-analytics/state"
	"go.uber.org/zap"
)

// ErrOutOfOrder is returned when an event does not strictly follow the
// previous one in (block, log index) order.
var ErrOutOfOrder = errors.New("event out of order")

const DefaultProgressInterval = 1000

// Source yields decoded events in chain order, io.EOF at the end.
type Source interface {
	Next() (exchange.Event, error)
}

// Sink receives the deltas committed by each event.
type Sink interface {
	Publish(ctx context.Context, deltas []state.StateDelta) error
}

type Pipeline struct {
	subgraph *exchange.Subgraph
	sinks    []Sink

	stopBlock        uint64
	progressInterval uint64

	started       bool
	lastBlock     uint64
	lastLogIndex  uint64
	lastProgress  uint64
	eventCount    uint64
	deltaCount    uint64
	abortedEvents uint64
}

type Option func(p *Pipeline)

func WithSinks(sinks ...Sink) Option {
	return func(p *Pipeline) {
		p.sinks = append(p.sinks, sinks...)
	}
}

// WithStopBlock stops the run on the first event at or past stopBlock.
// Zero means no limit.
func WithStopBlock(stopBlock uint64) Option {
	return func(p *Pipeline) {
		p.stopBlock = stopBlock
	}
}

func WithProgressInterval(blocks uint64) Option {
	return func(p *Pipeline) {
		p.progressInterval = blocks
	}
}

func New(subgraph *exchange.Subgraph, opts ...Option) *Pipeline {
	p := &Pipeline{
		subgraph:         subgraph,
		progressInterval: DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run applies every event of source, one at a time. The context is only
// checked between events, an event is never interrupted halfway.
func (p *Pipeline) Run(ctx context.Context, source Source) error {
	start := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ev, err := source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading event: %w", err)
		}

		meta := ev.Meta()
		if p.stopBlock != 0 && meta.BlockNumber >= p.stopBlock {
			zlog.Info("stop block reached", zap.Uint64("stop_block", p.stopBlock))
			break
		}
		if err := p.checkOrder(meta); err != nil {
			return err
		}

		if err := p.process(ctx, ev); err != nil {
			return err
		}
	}

	zlog.Info("pipeline completed",
		zap.Uint64("events", p.eventCount),
		zap.Uint64("deltas", p.deltaCount),
		zap.Uint64("last_block", p.lastBlock),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (p *Pipeline) process(ctx context.Context, ev exchange.Event) error {
	meta := ev.Meta()

	deltas, err := p.subgraph.Apply(ctx, ev)
	if err != nil {
		return fmt.Errorf("applying %T at block %d log %d: %w", ev, meta.BlockNumber, meta.LogIndex, err)
	}
	if deltas == nil {
		p.abortedEvents++
	}

	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, deltas); err != nil {
			return fmt.Errorf("publishing deltas of block %d log %d: %w", meta.BlockNumber, meta.LogIndex, err)
		}
	}

	p.eventCount++
	p.deltaCount += uint64(len(deltas))
	p.lastBlock = meta.BlockNumber
	p.lastLogIndex = meta.LogIndex
	p.logProgress()
	return nil
}

func (p *Pipeline) checkOrder(meta *exchange.EventMeta) error {
	if !p.started {
		p.started = true
		p.lastProgress = meta.BlockNumber
		return nil
	}

	if meta.BlockNumber > p.lastBlock || (meta.BlockNumber == p.lastBlock && meta.LogIndex > p.lastLogIndex) {
		return nil
	}
	return fmt.Errorf("block %d log %d after block %d log %d: %w", meta.BlockNumber, meta.LogIndex, p.lastBlock, p.lastLogIndex, ErrOutOfOrder)
}

func (p *Pipeline) logProgress() {
	if p.progressInterval == 0 || p.lastBlock < p.lastProgress+p.progressInterval {
		return
	}
	p.lastProgress = p.lastBlock

	zlog.Info("progress",
		zap.Uint64("block_num", p.lastBlock),
		zap.Uint64("events", p.eventCount),
		zap.Uint64("deltas", p.deltaCount),
		zap.Uint64("aborted_events", p.abortedEvents),
	)
}

// Stats reports the number of applied events and committed deltas.
func (p *Pipeline) Stats() (events, deltas uint64) {
	return p.eventCount, p.deltaCount
}

// LastPosition is the (block, log index) of the last applied event.
func (p *Pipeline) LastPosition() (block, logIndex uint64) {
	return p.lastBlock, p.lastLogIndex
}

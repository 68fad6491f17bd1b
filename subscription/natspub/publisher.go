package natspub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/streamingfast/algebra-analytics/state"
	"go.uber.org/zap"
)

const DefaultSubjectPrefix = "algebra.deltas"

// Message is the payload published for one committed delta.
type Message struct {
	Op       string          `json:"op"`
	Ordinal  uint64          `json:"ordinal"`
	Table    string          `json:"table"`
	Key      string          `json:"key"`
	OldValue json.RawMessage `json:"old_value,omitempty"`
	NewValue json.RawMessage `json:"new_value,omitempty"`
}

// Publisher publishes committed deltas on `<prefix>.<Table>`.
type Publisher struct {
	nc     *nats.Conn
	prefix string

	flushTimeout time.Duration
}

func New(url, prefix string) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("nats url is required")
	}
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	opts := []nats.Option{
		nats.Name("algebra-analytics"),
		nats.Timeout(5 * time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	zlog.Info("connected to NATS", zap.String("url", url), zap.String("subject_prefix", prefix))
	return &Publisher{
		nc:           nc,
		prefix:       prefix,
		flushTimeout: 5 * time.Second,
	}, nil
}

func (p *Publisher) Subject(table string) string {
	return p.prefix + "." + table
}

// Publish sends every delta then flushes, so a nil error means the server
// received them all.
func (p *Publisher) Publish(ctx context.Context, deltas []state.StateDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	for _, delta := range deltas {
		if err := ctx.Err(); err != nil {
			return err
		}

		table := delta.Table()
		data, err := json.Marshal(&Message{
			Op:       delta.Op,
			Ordinal:  delta.Ordinal,
			Table:    table,
			Key:      delta.Key,
			OldValue: delta.OldValue,
			NewValue: delta.NewValue,
		})
		if err != nil {
			return fmt.Errorf("encoding delta %q: %w", delta.Key, err)
		}

		if err := p.nc.Publish(p.Subject(table), data); err != nil {
			return fmt.Errorf("publishing delta %q: %w", delta.Key, err)
		}
	}

	if err := p.nc.FlushTimeout(p.flushTimeout); err != nil {
		return fmt.Errorf("flushing %d deltas: %w", len(deltas), err)
	}
	return nil
}

func (p *Publisher) Ready() bool {
	if p.nc == nil {
		return false
	}
	return p.nc.Status() == nats.CONNECTED
}

func (p *Publisher) Close() error {
	if p.nc == nil || p.nc.Status() == nats.CLOSED {
		return nil
	}

	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("failed to drain connection to NATS: %w", err)
	}

	p.nc.Close()
	zlog.Info("NATS connection closed")
	return nil
}

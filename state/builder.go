package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("state key not found")

// Builder stages the writes of a single event on top of a Backend. Nothing
// reaches the backend until Commit.
type Builder struct {
	Name string

	backend Backend

	KV          map[string]Value // KV is the event overlay, and assumes all Deltas were already applied to it.
	Deltas      []StateDelta     // Deltas are always deltas for the current event.
	lastOrdinal uint64
}

type Value struct {
	Value   []byte
	Deleted bool
}

func (v Value) String() string {
	return string(v.Value)
}

type StateDelta struct {
	Op       string `json:"op"`      // "c"reate, "u"pdate, "d"elete, same as https://nightlies.apache.org/flink/flink-docs-master/docs/connectors/table/formats/debezium/#how-to-use-debezium-format
	Ordinal  uint64 `json:"ordinal"` // a sorting key to order deltas, and provide pointers to changes midway
	Key      string `json:"key"`
	OldValue []byte `json:"old_value,omitempty"`
	NewValue []byte `json:"new_value,omitempty"`
}

// Table returns the entity table of the delta key, or the whole key when it
// carries no table prefix.
func (d *StateDelta) Table() string {
	if idx := strings.IndexByte(d.Key, ':'); idx > 0 {
		return d.Key[:idx]
	}
	return d.Key
}

func New(name string, backend Backend) *Builder {
	return &Builder{
		Name:    name,
		backend: backend,
		KV:      make(map[string]Value),
	}
}

func (b *Builder) Backend() Backend {
	return b.backend
}

func (b *Builder) Print() {
	if len(b.Deltas) == 0 {
		return
	}
	fmt.Printf("State deltas for %q\n", b.Name)
	for _, delta := range b.Deltas {
		b.PrintDelta(&delta)
	}
}

func (b *Builder) PrintDelta(delta *StateDelta) {
	fmt.Printf("  %s (o=%d) KEY: %q\n", strings.ToUpper(delta.Op), delta.Ordinal, delta.Key)
	fmt.Printf("    OLD: %s\n", string(delta.OldValue))
	fmt.Printf("    NEW: %s\n", string(delta.NewValue))
}

// Get returns the value of key as seen by the current event: the overlay
// first, then the backend.
func (b *Builder) Get(ctx context.Context, key string) ([]byte, error) {
	if val, found := b.KV[key]; found {
		if val.Deleted {
			return nil, ErrNotFound
		}
		return val.Value, nil
	}

	if b.backend == nil {
		return nil, ErrNotFound
	}

	data, err := b.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading key %q from %s backend: %w", key, b.Name, err)
	}
	return data, nil
}

// GetFirst returns the value key had before the current event touched it.
func (b *Builder) GetFirst(key string) (Value, bool) {
	for _, delta := range b.Deltas {
		if delta.Key == key {
			switch delta.Op {
			case "d", "u":
				return Value{Value: delta.OldValue}, true
			case "c":
				return Value{}, false
			default:
				panic(fmt.Sprintf("invalid value %q for StateDelta::Op for key %q", delta.Op, delta.Key))
			}
		}
	}
	return b.GetLast(key)
}

// GetLast returns the overlay value of key, deletions reported as not found.
func (b *Builder) GetLast(key string) (Value, bool) {
	val, found := b.KV[key]
	if !found || val.Deleted {
		return Value{}, false
	}
	return val, true
}

// GetAt returns the key for the state that includes the processing of `ord`.
func (b *Builder) GetAt(ord uint64, key string) (out Value, found bool) {
	out, found = b.GetLast(key)

	for i := len(b.Deltas) - 1; i >= 0; i-- {
		delta := b.Deltas[i]
		if delta.Ordinal <= ord {
			break
		}
		if delta.Key == key {
			switch delta.Op {
			case "d", "u":
				out = Value{Value: delta.OldValue}
				found = true
			case "c":
				out = Value{}
				found = false
			default:
				panic(fmt.Sprintf("invalid value %q for StateDelta::Op for key %q", delta.Op, delta.Key))
			}
		}
	}
	return
}

func (b *Builder) Del(ctx context.Context, ord uint64, key string) error {
	b.bumpOrdinal(ord)

	old, err := b.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	delta := &StateDelta{
		Op:       "d",
		Ordinal:  ord,
		Key:      key,
		OldValue: old,
	}
	b.applyDelta(delta)
	b.Deltas = append(b.Deltas, *delta)
	return nil
}

func (b *Builder) Set(ctx context.Context, ord uint64, key string, value []byte) error {
	b.bumpOrdinal(ord)

	old, err := b.Get(ctx, key)
	found := true
	if errors.Is(err, ErrNotFound) {
		found = false
	} else if err != nil {
		return err
	}

	var delta *StateDelta
	if found {
		if bytes.Equal(value, old) {
			return nil
		}
		delta = &StateDelta{
			Op:       "u",
			Ordinal:  ord,
			Key:      key,
			OldValue: old,
			NewValue: value,
		}
	} else {
		delta = &StateDelta{
			Op:       "c",
			Ordinal:  ord,
			Key:      key,
			NewValue: value,
		}
	}
	b.applyDelta(delta)
	b.Deltas = append(b.Deltas, *delta)
	return nil
}

func (b *Builder) bumpOrdinal(ord uint64) {
	if b.lastOrdinal > ord {
		panic("cannot Set or Del a value on a state.Builder with an ordinal lower than the previous")
	}
	b.lastOrdinal = ord
}

func (b *Builder) applyDelta(delta *StateDelta) {
	switch delta.Op {
	case "u", "c":
		b.KV[delta.Key] = Value{Value: delta.NewValue}
	case "d":
		b.KV[delta.Key] = Value{Deleted: true}
	}
}

// Collapse folds the current deltas into one delta per key, in the order
// keys were first touched. A key created then deleted within the event
// vanishes, and so does a key whose final value equals its initial one.
func (b *Builder) Collapse() []StateDelta {
	var order []string
	byKey := map[string]*StateDelta{}

	for _, delta := range b.Deltas {
		existing, found := byKey[delta.Key]
		if !found {
			d := delta
			byKey[delta.Key] = &d
			order = append(order, delta.Key)
			continue
		}

		existing.Ordinal = delta.Ordinal
		existing.NewValue = delta.NewValue
		switch {
		case existing.OldValue == nil && existing.Op == "c":
			if delta.Op == "d" {
				existing.Op = "d"
			}
			if delta.Op == "u" || delta.Op == "c" {
				existing.Op = "c"
			}
		default:
			if delta.Op == "d" {
				existing.Op = "d"
			} else {
				existing.Op = "u"
			}
		}
	}

	out := make([]StateDelta, 0, len(order))
	for _, key := range order {
		delta := byKey[key]
		if delta.Op == "d" && delta.OldValue == nil {
			// created then deleted
			continue
		}
		if delta.Op == "u" && bytes.Equal(delta.OldValue, delta.NewValue) {
			continue
		}
		out = append(out, *delta)
	}
	return out
}

// Commit writes the collapsed deltas of the current event to the backend in
// a single atomic write, then resets the overlay. On error the overlay is
// left untouched so the caller can Rollback.
func (b *Builder) Commit(ctx context.Context) ([]StateDelta, error) {
	deltas := b.Collapse()
	if len(deltas) > 0 && b.backend != nil {
		if err := b.backend.Commit(ctx, deltas); err != nil {
			return nil, fmt.Errorf("committing %d deltas to %s backend: %w", len(deltas), b.Name, err)
		}
	}

	zlog.Debug("state committed", zap.String("name", b.Name), zap.Int("raw_deltas", len(b.Deltas)), zap.Int("deltas", len(deltas)))
	b.reset()
	return deltas, nil
}

// Rollback drops every write of the current event.
func (b *Builder) Rollback() {
	if len(b.Deltas) > 0 {
		zlog.Debug("state rolled back", zap.String("name", b.Name), zap.Int("raw_deltas", len(b.Deltas)))
	}
	b.reset()
}

func (b *Builder) reset() {
	b.KV = make(map[string]Value)
	b.Deltas = nil
	b.lastOrdinal = 0
}

// Package kvdb stores committed state in a github.com/luxfi/database
// key-value database, in memory or on disk through BadgerDB.
package kvdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/badgerdb"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/database/prefixdb"
	"github.com/streamingfast/algebra-analytics/state"
)

type Config struct {
	// Path of the BadgerDB folder. Memory is used when empty.
	Path string

	// Namespace prefixes every key, allowing several deployments to share a database.
	Namespace string
}

type Store struct {
	db    database.Database
	raw   database.Database
	owned bool
}

func New(cfg Config) (*Store, error) {
	var raw database.Database
	if cfg.Path == "" {
		raw = memdb.New()
	} else {
		db, err := badgerdb.New(cfg.Path, nil, "", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open badgerdb at %s: %w", cfg.Path, err)
		}
		raw = db
	}

	return wrap(raw, cfg.Namespace, true), nil
}

// NewMemory creates an in-memory store (for testing)
func NewMemory() *Store {
	return wrap(memdb.New(), "", true)
}

// NewFromDatabase shares an already opened database, which Close leaves open.
func NewFromDatabase(db database.Database, namespace string) *Store {
	return wrap(db, namespace, false)
}

func wrap(raw database.Database, namespace string, owned bool) *Store {
	db := raw
	if namespace != "" {
		db = prefixdb.New([]byte(namespace+"/"), raw)
	}
	return &Store{db: db, raw: raw, owned: owned}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	value, err := s.db.Get([]byte(key))
	if errors.Is(err, database.ErrNotFound) {
		return nil, state.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Commit writes all deltas through a single batch.
func (s *Store) Commit(ctx context.Context, deltas []state.StateDelta) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := s.db.NewBatch()
	for _, delta := range deltas {
		var err error
		switch delta.Op {
		case "c", "u":
			err = batch.Put([]byte(delta.Key), delta.NewValue)
		case "d":
			err = batch.Delete([]byte(delta.Key))
		default:
			err = fmt.Errorf("invalid op %q", delta.Op)
		}
		if err != nil {
			batch.Reset()
			return fmt.Errorf("staging delta for key %q: %w", delta.Key, err)
		}
	}

	if err := batch.Write(); err != nil {
		return fmt.Errorf("writing batch of %d deltas: %w", len(deltas), err)
	}
	return nil
}

// ForEach walks the keys of table in byte order.
func (s *Store) ForEach(ctx context.Context, table string, f func(key string, value []byte) error) error {
	iter := s.db.NewIteratorWithPrefix([]byte(table + ":"))
	defer iter.Release()

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		value := make([]byte, len(iter.Value()))
		copy(value, iter.Value())
		if err := f(string(iter.Key()), value); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.raw.Close()
}

package state

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteSnapshot dumps every key of the given tables as one indented JSON
// object, keys sorted, values embedded as raw JSON.
func WriteSnapshot(ctx context.Context, w io.Writer, it Iterable, tables []string) (int, error) {
	kv := map[string]json.RawMessage{}

	for _, table := range tables {
		err := it.ForEach(ctx, table, func(key string, value []byte) error {
			raw := make(json.RawMessage, len(value))
			copy(raw, value)
			kv[key] = raw
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("walking table %s: %w", table, err)
		}
	}

	// encoding/json sorts map keys
	content, err := json.MarshalIndent(kv, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal kv state: %w", err)
	}

	if _, err := w.Write(append(content, '\n')); err != nil {
		return 0, fmt.Errorf("writing kv state: %w", err)
	}
	return len(kv), nil
}

// WriteSnapshotFile is WriteSnapshot to a file, created with its parent folders.
func WriteSnapshotFile(ctx context.Context, path string, it Iterable, tables []string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return 0, fmt.Errorf("creating folder for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	count, err := WriteSnapshot(ctx, f, it, tables)
	if err != nil {
		return 0, err
	}
	return count, f.Close()
}

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/Tiliavir/punch/internal/model"
)

// DefaultKey is the namespace the ledger snapshot is stored under.
const DefaultKey = "punch-storage"

// CorruptError reports a stored snapshot that could not be decoded. The raw
// bytes were moved to BackupKey.
type CorruptError struct {
	Key       string
	BackupKey string
	Err       error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt snapshot in %q (backed up to %q): %v", e.Key, e.BackupKey, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// SnapshotStore encodes the ledger snapshot under a single namespaced key.
type SnapshotStore struct {
	kv  KV
	key string
}

// NewSnapshotStore returns a store for key on kv. An empty key uses DefaultKey.
func NewSnapshotStore(kv KV, key string) *SnapshotStore {
	if key == "" {
		key = DefaultKey
	}
	return &SnapshotStore{kv: kv, key: key}
}

// Key returns the namespaced key.
func (s *SnapshotStore) Key() string {
	return s.key
}

// Load returns the last saved snapshot, or an empty one if nothing was saved.
func (s *SnapshotStore) Load() (model.Snapshot, error) {
	data, err := s.kv.Get(s.key)
	if errors.Is(err, ErrNotFound) {
		return model.Snapshot{Records: []model.PunchRecord{}}, nil
	}
	if err != nil {
		return model.Snapshot{}, err
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// Back up corrupt value and abort.
		backup := s.key + ".corrupt"
		if setErr := s.kv.Set(backup, data); setErr == nil {
			_ = s.kv.Remove(s.key)
		}
		return model.Snapshot{}, &CorruptError{Key: s.key, BackupKey: backup, Err: err}
	}
	if snap.Records == nil {
		snap.Records = []model.PunchRecord{}
	}
	return snap, nil
}

// Save writes snap under the store's key.
func (s *SnapshotStore) Save(snap model.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}
	return s.kv.Set(s.key, data)
}

// Options selects and configures a backend for Open.
type Options struct {
	Backend string // "file" or "sqlite"
	DataDir string
	Key     string
}

// Open builds the snapshot store for opts. The returned closer releases the
// backend and must be called when done.
func Open(opts Options) (*SnapshotStore, io.Closer, error) {
	switch opts.Backend {
	case "", "file":
		return NewSnapshotStore(NewFileKV(opts.DataDir), opts.Key), nopCloser{}, nil
	case "sqlite":
		kv, err := NewSQLiteKV(filepath.Join(opts.DataDir, "punch.db"))
		if err != nil {
			return nil, nil, err
		}
		return NewSnapshotStore(kv, opts.Key), kv, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

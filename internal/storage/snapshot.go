package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/nibzard/tasklist/internal/datadir"
	"github.com/nibzard/tasklist/internal/todo"
)

// DefaultTimeout bounds a single backend call made by a Snapshot.
const DefaultTimeout = 5 * time.Second

// Snapshot persists the whole task list under one key. It implements
// todo.Persister.
type Snapshot struct {
	kv      KV
	codec   Codec
	key     string
	base    context.Context
	timeout time.Duration
}

var _ todo.Persister = (*Snapshot)(nil)

// NewSnapshot returns a Snapshot over kv. An empty key selects
// datadir.DefaultKey and a nil codec selects JSON.
func NewSnapshot(kv KV, codec Codec, key string) (*Snapshot, error) {
	if kv == nil {
		return nil, fmt.Errorf("snapshot: backend is nil")
	}
	if key == "" {
		key = datadir.DefaultKey
	}
	if err := datadir.ValidateKey(key); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if codec == nil {
		codec = jsonCodec{}
	}
	return &Snapshot{kv: kv, codec: codec, key: key, base: context.Background(), timeout: DefaultTimeout}, nil
}

// SetTimeout changes the per-call backend timeout. Zero disables it.
func (s *Snapshot) SetTimeout(d time.Duration) {
	s.timeout = d
}

// SetContext sets the context every backend call derives from, so that
// cancelling ctx aborts a pending read, write or lock wait. A nil ctx
// restores context.Background.
func (s *Snapshot) SetContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.base = ctx
}

// Key returns the storage key.
func (s *Snapshot) Key() string { return s.key }

// Backend returns the underlying key-value store.
func (s *Snapshot) Backend() KV { return s.kv }

// Codec returns the snapshot codec.
func (s *Snapshot) Codec() Codec { return s.codec }

// Load reads and decodes the stored snapshot.
func (s *Snapshot) Load() ([]todo.Task, bool, error) {
	ctx, cancel := s.context()
	defer cancel()

	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot %q: %w", s.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	tasks, err := s.Decode(data)
	if err != nil {
		return nil, false, err
	}
	return tasks, true, nil
}

// Decode validates and decodes raw snapshot bytes. Failures are returned
// as *todo.CorruptSnapshotError.
func (s *Snapshot) Decode(data []byte) ([]todo.Task, error) {
	if s.codec.Name() == "json" {
		if err := todo.ValidateSnapshot(data); err != nil {
			return nil, &todo.CorruptSnapshotError{Key: s.key, Err: err}
		}
	}
	tasks, err := s.codec.Decode(data)
	if err != nil {
		return nil, &todo.CorruptSnapshotError{Key: s.key, Err: err}
	}
	if err := todo.ValidateTasks(tasks); err != nil {
		return nil, &todo.CorruptSnapshotError{Key: s.key, Err: err}
	}
	if tasks == nil {
		tasks = []todo.Task{}
	}
	return tasks, nil
}

// Save encodes tasks and overwrites the stored snapshot.
func (s *Snapshot) Save(tasks []todo.Task) error {
	data, err := s.codec.Encode(tasks)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	ctx, cancel := s.context()
	defer cancel()

	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("write snapshot %q: %w", s.key, err)
	}
	return nil
}

// Close closes the backend.
func (s *Snapshot) Close() error {
	return s.kv.Close()
}

func (s *Snapshot) context() (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(s.base)
	}
	return context.WithTimeout(s.base, s.timeout)
}

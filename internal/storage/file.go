package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/nibzard/tasklist/internal/datadir"
)

// lockRetryDelay is how often a blocked lock attempt is retried.
const lockRetryDelay = 25 * time.Millisecond

// Directory and file permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// File stores each key as <dir>/<key>.<ext>.
type File struct {
	dir string
	ext string
}

// NewFile returns a File backend rooted at dir. ext is the file extension
// used for every key (usually the codec's).
func NewFile(dir, ext string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("data dir is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	return &File{dir: abs, ext: ext}, nil
}

// Dir returns the backend's directory.
func (f *File) Dir() string { return f.dir }

// Path returns the file that holds key.
func (f *File) Path(key string) string {
	return datadir.SnapshotPath(f.dir, key, f.ext)
}

func (f *File) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := datadir.ValidateKey(key); err != nil {
		return nil, false, err
	}
	path := f.Path(key)

	if _, err := os.Stat(f.dir); os.IsNotExist(err) {
		return nil, false, nil
	}

	lock := flock.New(datadir.LockPath(path))
	locked, err := lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, false, fmt.Errorf("lock %s: %w", path, err)
	}
	if locked {
		defer func() { _ = lock.Unlock() }()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	return data, true, nil
}

func (f *File) Set(ctx context.Context, key string, value []byte) error {
	if err := datadir.ValidateKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, dirPerm); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	path := f.Path(key)

	lock := flock.New(datadir.LockPath(path))
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", path)
	}
	defer func() { _ = lock.Unlock() }()

	return atomicWrite(path, value)
}

func (f *File) Close() error { return nil }

// atomicWrite writes data to a temp file in the same directory and renames
// it over path, so readers see either the old or the new snapshot.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

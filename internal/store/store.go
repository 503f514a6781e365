// Package store persists the workflow blob and owns the in-memory graph for
// a session.
package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// DefaultPath is where the workflow blob is kept unless configured otherwise.
const DefaultPath = ".workkflow/workflows.json"

const lockTimeout = 5 * time.Second

// ErrNotFound is returned by Load when nothing has been persisted yet.
var ErrNotFound = errors.New("workflow blob not found")

// Store loads and saves the serialized workflow blob. Save overwrites the
// whole blob.
type Store interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// FileStore keeps the blob in a single file. Reads and writes take an
// advisory lock on a sibling .lock file so concurrent processes do not
// interleave writes.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the blob path.
func (f *FileStore) Path() string {
	return f.path
}

// Exists checks if the blob file exists.
func (f *FileStore) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Load reads the blob under a shared lock.
func (f *FileStore) Load() ([]byte, error) {
	if !f.Exists() {
		return nil, ErrNotFound
	}
	lock, err := f.lock(true)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read workflows: %w", err)
	}
	return data, nil
}

// Save writes the blob under an exclusive lock. The file is replaced by
// rename so readers never see a partial write.
func (f *FileStore) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	lock, err := f.lock(false)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".workflows-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write workflows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write workflows: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace workflows: %w", err)
	}
	return nil
}

// Remove deletes the blob so the next session starts from the default
// dataset. Removing a missing blob is not an error.
func (f *FileStore) Remove() error {
	if !f.Exists() {
		return nil
	}
	lock, err := f.lock(false)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove workflows: %w", err)
	}
	_ = os.Remove(f.lockPath())
	return nil
}

func (f *FileStore) lockPath() string {
	return f.path + ".lock"
}

func (f *FileStore) lock(shared bool) (*flock.Flock, error) {
	lock := flock.New(f.lockPath())

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	var locked bool
	var err error
	if shared {
		locked, err = lock.TryRLockContext(ctx, 50*time.Millisecond)
	} else {
		locked, err = lock.TryLockContext(ctx, 50*time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", f.lockPath(), err)
	}
	if !locked {
		return nil, fmt.Errorf("workflow store is locked by another process (%s)", f.lockPath())
	}
	return lock, nil
}

// MemoryStore keeps the blob in memory.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// NewMemoryStore returns a MemoryStore holding data. A nil data means
// nothing has been saved.
func NewMemoryStore(data []byte) *MemoryStore {
	m := &MemoryStore{}
	if data != nil {
		m.data = append([]byte(nil), data...)
	}
	return m
}

func (m *MemoryStore) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryStore) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

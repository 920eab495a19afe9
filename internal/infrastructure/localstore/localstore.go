// Package localstore keeps small per-shopper key/value documents, the server
// side counterpart of a browser's local storage.
package localstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/google/uuid"
)

var validKey = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

var ErrInvalidKey = errors.New("invalid storage key")

// FileStore persists each key as one file inside a shopper's directory.
type FileStore struct {
	dir string
}

func (s *FileStore) Get(key string) ([]byte, bool, error) {
	if !validKey.MatchString(key) {
		return nil, false, ErrInvalidKey
	}
	data, err := os.ReadFile(filepath.Join(s.dir, key+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, true, nil
}

// Set replaces the value atomically so a crash never leaves half a document.
func (s *FileStore) Set(key string, data []byte) error {
	if !validKey.MatchString(key) {
		return ErrInvalidKey
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, key+".json")); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	if !validKey.MatchString(key) {
		return ErrInvalidKey
	}
	err := os.Remove(filepath.Join(s.dir, key+".json"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Dir hands out one FileStore per shopper session below root.
type Dir struct {
	root string
}

func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating local store root: %w", err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Open(session string) (*FileStore, error) {
	if _, err := uuid.Parse(session); err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}
	return &FileStore{dir: filepath.Join(d.root, session)}, nil
}

// Memory is an in-process store used by tests and by shoppers whose session
// has no backing directory.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Set(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(data))
	copy(v, data)
	m.data[key] = v
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

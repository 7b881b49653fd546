package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSON-backed key/value storage. Single file, human-readable, owner-only permissions.
// Every operation reads or rewrites the whole file; the data set is a handful of keys.

// ErrIO marks a failure of the local storage layer.
var ErrIO = errors.New("storage i/o failure")

func ioErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

// Store is the local persistent key/value store. Get reports ok=false for absent keys.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
	Clear(ctx context.Context) error
}

// FileStore keeps all keys in one JSON object on disk.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath is ~/.backlog/store.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".backlog", "store.json"), nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, ioErr("read file", err)
	}
	kv := map[string]string{}
	if len(b) == 0 {
		return kv, nil
	}
	if err := json.Unmarshal(b, &kv); err != nil {
		return nil, ioErr("json unmarshal", err)
	}
	return kv, nil
}

func (s *FileStore) save(kv map[string]string) error {
	// ensure the parent exists with 0700
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return ioErr("mkdir", err)
	}
	b, err := json.MarshalIndent(kv, "", "  ")
	if err != nil {
		return ioErr("json marshal", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return ioErr("write file", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return ioErr("rename", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := kv[key]
	return v, ok, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, err := s.load()
	if err != nil {
		return err
	}
	kv[key] = value
	return s.save(kv)
}

func (s *FileStore) Remove(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, err := s.load()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := kv[k]; ok {
			delete(kv, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save(kv)
}

// Clear deletes the backing file.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return ioErr("remove", err)
	}
	return nil
}

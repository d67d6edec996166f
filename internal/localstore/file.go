package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a KV persisted as one JSON document. Every write replaces the
// file atomically.
type File struct {
	path string

	mu   sync.Mutex
	data map[string]map[string]string
}

// OpenFile loads path, creating an empty store if it does not exist.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, data: make(map[string]map[string]string)}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read local store: %w", err)
	}
	if len(raw) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		return nil, fmt.Errorf("failed to decode local store %s: %w", path, err)
	}
	if f.data == nil {
		f.data = make(map[string]map[string]string)
	}
	return f, nil
}

// Path returns the backing file.
func (f *File) Path() string { return f.path }

func (f *File) Get(_ context.Context, scope, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[scope][key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, scope, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, hadPrev := f.data[scope][key]
	if f.data[scope] == nil {
		f.data[scope] = make(map[string]string)
	}
	f.data[scope][key] = value
	if err := f.flushLocked(); err != nil {
		if hadPrev {
			f.data[scope][key] = prev
		} else {
			delete(f.data[scope], key)
		}
		return err
	}
	return nil
}

func (f *File) Delete(_ context.Context, scope, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, ok := f.data[scope][key]
	if !ok {
		return nil
	}
	delete(f.data[scope], key)
	if err := f.flushLocked(); err != nil {
		f.data[scope][key] = prev
		return err
	}
	return nil
}

func (f *File) flushLocked() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode local store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create local store directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".localstore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write local store: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace local store: %w", err)
	}
	return nil
}

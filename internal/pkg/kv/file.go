package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File is a Store persisted as one JSON object on disk. Every write rewrites the file through a
// temporary file and a rename.
type File struct {
	path string
	mem  *Memory

	// writeMu serializes writes; mem.values only changes while it is held.
	writeMu sync.Mutex
}

// OpenFile loads path if it exists and returns a Store writing back to it.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, mem: NewMemory()}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("read kv file %s: %w", path, err)
	}

	if len(data) == 0 {
		return f, nil
	}

	if err := json.Unmarshal(data, &f.mem.values); err != nil {
		return nil, fmt.Errorf("decode kv file %s: %w", path, err)
	}
	if f.mem.values == nil {
		f.mem.values = make(map[string]string)
	}

	return f, nil
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	return f.mem.Get(ctx, key)
}

// Set writes the file first and only then updates the in-memory value, so a failed write leaves
// the store as it was.
func (f *File) Set(ctx context.Context, key, value string) error {
	if _, err := f.commit(key, value, true); err != nil {
		return err
	}

	f.mem.bus.publish(key, value, true)
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	changed, err := f.commit(key, "", false)
	if err != nil || !changed {
		return err
	}

	f.mem.bus.publish(key, "", false)
	return nil
}

func (f *File) Watch(key string, fn func(value string, ok bool)) Subscription {
	return f.mem.Watch(key, fn)
}

func (f *File) Close() error {
	return nil
}

// commit applies one change to a copy of the mapping, persists the copy and then installs the change
// in memory. It reports false for a delete of a missing key, which writes nothing.
func (f *File) commit(key, value string, ok bool) (bool, error) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	next := f.mem.snapshot()
	if ok {
		next[key] = value
	} else {
		if _, existed := next[key]; !existed {
			return false, nil
		}
		delete(next, key)
	}

	if err := f.write(next); err != nil {
		return false, err
	}

	f.mem.mu.Lock()
	if ok {
		f.mem.values[key] = value
	} else {
		delete(f.mem.values, key)
	}
	f.mem.mu.Unlock()

	return true, nil
}

func (f *File) write(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode kv file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp kv file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp kv file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp kv file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace kv file %s: %w", f.path, err)
	}

	return nil
}

package kv

import (
	"context"
	"sync"
)

// Memory is an in-process Store. Values are lost when the process exits.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	bus    *broadcaster
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]string),
		bus:    newBroadcaster(),
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	return value, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()

	m.bus.publish(key, value, true)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	_, existed := m.values[key]
	delete(m.values, key)
	m.mu.Unlock()

	if existed {
		m.bus.publish(key, "", false)
	}
	return nil
}

func (m *Memory) Watch(key string, fn func(value string, ok bool)) Subscription {
	return m.bus.add(key, fn)
}

func (m *Memory) Close() error {
	return nil
}

// snapshot copies the current mapping.
func (m *Memory) snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

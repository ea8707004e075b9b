/*
Package kv is a small persisted key-value mapping with a mutation broadcast.

It plays the role a browser's localStorage plays for a single device: string values under string
keys, whole-value read-modify-write, and a change signal delivered to every watcher of a key after a
write. No operation is transactional; two writers racing on the same key both succeed and the last
one wins.
*/
package kv

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Store is a persisted string mapping.
type Store interface {
	// Get returns the value under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key and broadcasts the change.
	Set(ctx context.Context, key, value string) error

	// Delete removes key and broadcasts the change. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Watch registers fn for changes to key. fn receives the new value, or ok=false after a delete.
	Watch(key string, fn func(value string, ok bool)) Subscription

	// Close releases the underlying resources.
	Close() error
}

// Subscription is a registered watcher.
type Subscription interface {
	// Unsubscribe stops delivery. After it returns, the watcher is not invoked again.
	Unsubscribe()
}

// Open creates a Store from a DSN: "memory", "file:<path>" or a redis:// URL.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "" || dsn == "memory":
		return NewMemory(), nil
	case strings.HasPrefix(dsn, "file:"):
		return OpenFile(strings.TrimPrefix(dsn, "file:"))
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return OpenRedis(ctx, dsn, "majlis")
	default:
		return nil, fmt.Errorf("unsupported kv dsn %q", dsn)
	}
}

// watcher is one registered callback. mu serializes delivery against Unsubscribe.
type watcher struct {
	mu     sync.Mutex
	active bool
	fn     func(string, bool)
	owner  *broadcaster
	key    string
}

func (w *watcher) deliver(value string, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active {
		w.fn(value, ok)
	}
}

func (w *watcher) Unsubscribe() {
	w.mu.Lock()
	w.active = false
	w.mu.Unlock()

	w.owner.remove(w)
}

// broadcaster fans a key's changes out to its watchers.
type broadcaster struct {
	mu       sync.RWMutex
	watchers map[string]map[*watcher]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{watchers: make(map[string]map[*watcher]struct{})}
}

func (b *broadcaster) add(key string, fn func(string, bool)) *watcher {
	w := &watcher{active: true, fn: fn, owner: b, key: key}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.watchers[key]; !ok {
		b.watchers[key] = make(map[*watcher]struct{})
	}
	b.watchers[key][w] = struct{}{}

	return w
}

func (b *broadcaster) remove(w *watcher) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if set, ok := b.watchers[w.key]; ok {
		delete(set, w)
		if len(set) == 0 {
			delete(b.watchers, w.key)
		}
	}
}

func (b *broadcaster) publish(key, value string, ok bool) {
	b.mu.RLock()
	targets := make([]*watcher, 0, len(b.watchers[key]))
	for w := range b.watchers[key] {
		targets = append(targets, w)
	}
	b.mu.RUnlock()

	for _, w := range targets {
		w.deliver(value, ok)
	}
}

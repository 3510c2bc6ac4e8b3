package cache

import (
	"context"
	"sync"
	"time"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

type memoryEntry struct {
	data      []byte
	createdAt time.Time
	tabID     int
}

// MemoryCache is the in-process backend: a mutex-guarded map of
// JSON-serialized entries. Entries are serialized on write so the memory
// and SQLite backends enforce the same size policy.
type MemoryCache struct {
	opts    options
	mu      sync.RWMutex
	entries map[string]memoryEntry
	closed  bool
}

// NewMemory creates an in-memory cache.
func NewMemory(opts ...Option) *MemoryCache {
	return &MemoryCache{
		opts:    newOptions(opts),
		entries: make(map[string]memoryEntry),
	}
}

// Get implements Cache.
func (m *MemoryCache) Get(ctx context.Context, key types.PageKey) (*types.ScanResult, bool, error) {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return nil, false, ErrClosed
	}
	e, ok := m.entries[key.String()]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if m.opts.now().Sub(e.createdAt) >= m.opts.ttl {
		m.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have
		// refreshed the entry.
		if cur, ok := m.entries[key.String()]; ok && cur.createdAt.Equal(e.createdAt) {
			delete(m.entries, key.String())
		}
		m.mu.Unlock()
		return nil, false, nil
	}

	res, err := decodeEntry(e.data)
	if err != nil {
		return nil, false, err
	}
	return res, true, nil
}

// Put implements Cache.
func (m *MemoryCache) Put(ctx context.Context, key types.PageKey, res *types.ScanResult) error {
	data, err := encodeEntry(res, m.opts.maxBytes)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.entries[key.String()] = memoryEntry{
		data:      data,
		createdAt: m.opts.now(),
		tabID:     key.TabID,
	}
	return nil
}

// Delete implements Cache.
func (m *MemoryCache) Delete(ctx context.Context, key types.PageKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.entries, key.String())
	return nil
}

// DeleteTab implements Cache.
func (m *MemoryCache) DeleteTab(ctx context.Context, tabID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for k, e := range m.entries {
		if e.tabID == tabID {
			delete(m.entries, k)
		}
	}
	return nil
}

// Close implements Cache.
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.entries = nil
	return nil
}

// Len returns the number of live entries, expired or not.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// MemoryCache keeps values in process memory.
type MemoryCache struct {
	mu      sync.RWMutex
	items   map[string]memoryItem
	latency time.Duration
	now     func() time.Time
}

// NewMemoryCache creates an empty cache. A positive latency delays every call,
// mimicking a slow storage backend.
func NewMemoryCache(latency time.Duration) *MemoryCache {
	return &MemoryCache{
		items:   make(map[string]memoryItem),
		latency: latency,
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := m.wait(ctx); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if item.expired(m.now()) {
		m.evictExpired(key)
		return nil, false, nil
	}
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, true, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	item := memoryItem{value: stored}
	if ttl > 0 {
		item.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, keys ...string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

func (m *MemoryCache) DeletePrefix(ctx context.Context, prefix string) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

// evictExpired re-reads the key under the write lock so a value stored by a
// concurrent Set is kept.
func (m *MemoryCache) evictExpired(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item, ok := m.items[key]; ok && item.expired(m.now()) {
		delete(m.items, key)
	}
}

func (m *MemoryCache) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(m.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

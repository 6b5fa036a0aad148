// Package cache keeps the last normalized stock snapshot locally so
// queries can be answered between source refreshes. The remote store
// stays authoritative: the cache is replaced wholesale on refresh and
// patched per id only with server-confirmed state.
package cache

import (
	"fmt"
	"sync"

	"stockops/internal/stock"
)

// Store abstracts the cache backend.
type Store interface {
	Put(it stock.Item) error
	Get(id string) (stock.Item, bool)
	Delete(id string) error
	Range(fn func(it stock.Item) error) error
	ReplaceAll(items []stock.Item) error
	Len() int
}

// Items collects the full cache contents. Order is backend-defined;
// callers sort through the query engine.
func Items(s Store) []stock.Item {
	out := make([]stock.Item, 0, s.Len())
	_ = s.Range(func(it stock.Item) error {
		out = append(out, it)
		return nil
	})
	return out
}

// Memory is a thread-safe map-backed store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]stock.Item
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]stock.Item)}
}

func (m *Memory) Put(it stock.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[it.ID] = it
	return nil
}

func (m *Memory) Get(id string) (stock.Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.data[id]
	return it, ok
}

func (m *Memory) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *Memory) Range(fn func(it stock.Item) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, it := range m.data {
		if err := fn(it); err != nil {
			return fmt.Errorf("range callback failed: %w", err)
		}
	}
	return nil
}

func (m *Memory) ReplaceAll(items []stock.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]stock.Item, len(items))
	for _, it := range items {
		m.data[it.ID] = it
	}
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

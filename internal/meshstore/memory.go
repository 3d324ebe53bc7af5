package meshstore

import (
	"context"
	"sort"
	"sync"

	"arborgen/internal/domain"
)

// Memory keeps meshes in process.
type Memory struct {
	mu     sync.RWMutex
	meshes map[string]Entry
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{meshes: make(map[string]Entry)}
}

func (m *Memory) Load(_ context.Context, key string) (Entry, error) {
	m.mu.RLock()
	entry, ok := m.meshes[key]
	m.mu.RUnlock()
	if !ok {
		return Entry{}, domain.ErrMeshNotFound
	}
	return cloneEntry(entry), nil
}

func (m *Memory) Save(_ context.Context, key string, entry Entry) error {
	dup := cloneEntry(entry)
	m.mu.Lock()
	m.meshes[key] = dup
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.meshes, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.meshes))
	for k := range m.meshes {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of cached meshes.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.meshes)
}

func (m *Memory) Close() error {
	return nil
}

// internal/catalog/mock.go
package catalog

import (
	"context"
	"sync"
)

// MockSource is a test double for Source.
type MockSource struct {
	mu     sync.Mutex
	tracks []Track
	err    error
	calls  int
	block  chan struct{}
}

// NewMockSource creates a source returning tracks.
func NewMockSource(tracks ...Track) *MockSource {
	return &MockSource{tracks: tracks}
}

func (m *MockSource) Fetch(ctx context.Context) ([]Track, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Track, len(m.tracks))
	copy(out, m.tracks)
	return out, nil
}

// Test helpers

func (m *MockSource) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Block makes Fetch wait until the returned release function is called.
func (m *MockSource) Block() (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.block = ch
	m.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var _ Source = (*MockSource)(nil)

// MemoryFavorites is an in-memory FavoriteStore.
type MemoryFavorites struct {
	mu  sync.Mutex
	ids map[string]bool
	err error
}

// NewMemoryFavorites creates a store seeded with ids.
func NewMemoryFavorites(ids ...string) *MemoryFavorites {
	m := &MemoryFavorites{ids: make(map[string]bool)}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

func (m *MemoryFavorites) Favorites() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.ids))
	for id := range m.ids {
		out = append(out, id)
	}
	return out, nil
}

func (m *MemoryFavorites) SetFavorite(id string, favorite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if favorite {
		m.ids[id] = true
	} else {
		delete(m.ids, id)
	}
	return nil
}

func (m *MemoryFavorites) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *MemoryFavorites) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[id]
}

var _ FavoriteStore = (*MemoryFavorites)(nil)

package state

import (
	"slices"
	"sync"
)

// Mock is a test double for Manager.
type Mock struct {
	mu        sync.Mutex
	favorites []string
	err       error
	closed    bool
}

// NewMock creates a new mock state manager for testing.
func NewMock(favorites ...string) *Mock {
	return &Mock{favorites: slices.Clone(favorites)}
}

func (m *Mock) Favorites() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return slices.Clone(m.favorites), nil
}

func (m *Mock) SetFavorite(id string, favorite bool) error {
	return m.SetFavorites([]string{id}, favorite)
}

func (m *Mock) SetFavorites(ids []string, favorite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, id := range ids {
		i := slices.Index(m.favorites, id)
		switch {
		case favorite && i < 0:
			m.favorites = append(m.favorites, id)
		case !favorite && i >= 0:
			m.favorites = slices.Delete(m.favorites, i, i+1)
		}
	}
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Test helpers

func (m *Mock) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)

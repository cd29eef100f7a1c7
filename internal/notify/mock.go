package notify

import "sync"

// MockNotifier records notifications for tests.
type MockNotifier struct {
	mu       sync.Mutex
	nextID   uint32
	sent     []Notification
	closed   []uint32
	onAction ActionFunc
	err      error
}

// NewMockNotifier creates a notifier assigning ids from 1.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{nextID: 1}
}

func (m *MockNotifier) Notify(n Notification) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.sent = append(m.sent, n)
	if n.ReplacesID != 0 {
		return n.ReplacesID, nil
	}
	id := m.nextID
	m.nextID++
	return id, nil
}

func (m *MockNotifier) Close(id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = append(m.closed, id)
	return nil
}

func (m *MockNotifier) OnAction(fn ActionFunc) {
	m.mu.Lock()
	m.onAction = fn
	m.mu.Unlock()
}

func (m *MockNotifier) Shutdown() error { return nil }

// Test helpers

func (m *MockNotifier) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *MockNotifier) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.sent...)
}

func (m *MockNotifier) Closed() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint32(nil), m.closed...)
}

// Invoke simulates the user pressing the action key of notification id.
func (m *MockNotifier) Invoke(id uint32, key string) {
	m.mu.Lock()
	fn := m.onAction
	m.mu.Unlock()
	if fn != nil {
		fn(id, key)
	}
}

var _ Notifier = (*MockNotifier)(nil)

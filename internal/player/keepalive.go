package player

import "sync"

// KeepAlive is a resource held while streaming, such as a sleep inhibitor.
type KeepAlive interface {
	Acquire()
	Release()
	Held() bool
}

// RefKeepAlive is a KeepAlive that tracks whether it is held and runs
// optional hooks on the first acquire and the matching release.
type RefKeepAlive struct {
	mu        sync.Mutex
	held      bool
	onAcquire func() error
	onRelease func()
}

// NewKeepAlive creates a keep-alive running acquire and release around
// the held period. Either hook may be nil.
func NewKeepAlive(acquire func() error, release func()) *RefKeepAlive {
	return &RefKeepAlive{onAcquire: acquire, onRelease: release}
}

func (k *RefKeepAlive) Acquire() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.held {
		return
	}
	if k.onAcquire != nil {
		if err := k.onAcquire(); err != nil {
			return
		}
	}
	k.held = true
}

func (k *RefKeepAlive) Release() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.held {
		return
	}
	k.held = false
	if k.onRelease != nil {
		k.onRelease()
	}
}

func (k *RefKeepAlive) Held() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.held
}

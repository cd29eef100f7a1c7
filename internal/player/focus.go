package player

import "sync"

// FocusChange is an audio focus event delivered to a FocusHolder.
type FocusChange int

const (
	FocusGain FocusChange = iota
	FocusLossTransient
	FocusLossTransientCanDuck
	FocusLoss
)

// String returns the change name.
func (c FocusChange) String() string {
	switch c {
	case FocusGain:
		return "Gain"
	case FocusLossTransient:
		return "LossTransient"
	case FocusLossTransientCanDuck:
		return "LossTransientCanDuck"
	case FocusLoss:
		return "Loss"
	default:
		return "Unknown"
	}
}

// FocusState is the folded focus situation of a local player.
type FocusState int

const (
	FocusNoFocusNoDuck FocusState = iota
	FocusNoFocusCanDuck
	FocusFocused
)

// String returns the state name.
func (s FocusState) String() string {
	switch s {
	case FocusNoFocusNoDuck:
		return "NoFocusNoDuck"
	case FocusNoFocusCanDuck:
		return "NoFocusCanDuck"
	case FocusFocused:
		return "Focused"
	default:
		return "Unknown"
	}
}

// FocusHolder is notified when its audio focus changes.
type FocusHolder interface {
	OnFocusChange(change FocusChange)
}

// Focus arbitrates exclusive audio output.
type Focus interface {
	// Request asks for focus and reports whether it was granted.
	Request(h FocusHolder) bool
	// Abandon gives focus up if h holds it.
	Abandon(h FocusHolder)
}

// FocusManager is an in-process Focus. Granting focus to a new holder
// takes it permanently from the previous one.
type FocusManager struct {
	mu          sync.Mutex
	holder      FocusHolder
	interrupted bool
}

// NewFocusManager creates an arbiter with no holder.
func NewFocusManager() *FocusManager {
	return &FocusManager{}
}

func (f *FocusManager) Request(h FocusHolder) bool {
	f.mu.Lock()
	prev := f.holder
	f.holder = h
	f.interrupted = false
	f.mu.Unlock()

	if prev != nil && prev != h {
		prev.OnFocusChange(FocusLoss)
	}
	return true
}

func (f *FocusManager) Abandon(h FocusHolder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holder == h {
		f.holder = nil
		f.interrupted = false
	}
}

// Holder returns the current focus holder, or nil.
func (f *FocusManager) Holder() FocusHolder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.holder
}

// Interrupt signals a temporary interruption, such as an incoming call or
// a notification sound, to the current holder.
func (f *FocusManager) Interrupt(canDuck bool) {
	f.mu.Lock()
	h := f.holder
	f.interrupted = h != nil
	f.mu.Unlock()
	if h == nil {
		return
	}
	if canDuck {
		h.OnFocusChange(FocusLossTransientCanDuck)
	} else {
		h.OnFocusChange(FocusLossTransient)
	}
}

// Resume ends an interruption started by Interrupt.
func (f *FocusManager) Resume() {
	f.mu.Lock()
	h := f.holder
	was := f.interrupted
	f.interrupted = false
	f.mu.Unlock()
	if h != nil && was {
		h.OnFocusChange(FocusGain)
	}
}

// Revoke takes focus away from the current holder for good.
func (f *FocusManager) Revoke() {
	f.mu.Lock()
	h := f.holder
	f.holder = nil
	f.interrupted = false
	f.mu.Unlock()
	if h != nil {
		h.OnFocusChange(FocusLoss)
	}
}

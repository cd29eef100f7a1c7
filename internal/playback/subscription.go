package playback

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	StateChanged   <-chan StateChange
	Error          <-chan ErrorEvent
	BackendChanged <-chan BackendChange
	Done           <-chan struct{}

	// Internal write channels
	stateCh   chan StateChange
	errorCh   chan ErrorEvent
	backendCh chan BackendChange
	doneCh    chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		stateCh:   make(chan StateChange, eventBufferSize),
		errorCh:   make(chan ErrorEvent, eventBufferSize),
		backendCh: make(chan BackendChange, eventBufferSize),
		doneCh:    make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.Error = s.errorCh
	s.BackendChanged = s.backendCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendState sends a state change event (non-blocking).
func (s *Subscription) sendState(e StateChange) {
	select {
	case s.stateCh <- e:
	default:
		// Drop if buffer full
	}
}

// sendError sends an error event (non-blocking).
func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}

// sendBackend sends a backend change event (non-blocking).
func (s *Subscription) sendBackend(e BackendChange) {
	select {
	case s.backendCh <- e:
	default:
	}
}
